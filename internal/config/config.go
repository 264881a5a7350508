// Package config loads the optional settings-decoder configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

const (
	// Application
	appName = "settings-decoder"

	// Environment variables
	xdgConfigHomeEnv = "XDG_CONFIG_HOME"

	// Default paths
	defaultConfigDir = ".config"
	configFileName   = "config.toml"
)

// Config holds defaults for command line flags. Every field is optional.
type Config struct {
	Settings string   `toml:"settings"`
	Security string   `toml:"security"`
	Format   string   `toml:"format"`
	Servers  []string `toml:"servers,omitempty"`
	Color    *bool    `toml:"color,omitempty"`
	LogFile  string   `toml:"logfile,omitempty"`
}

// GetConfigDir returns the settings-decoder configuration directory path
func GetConfigDir() (string, error) {
	baseDir := os.Getenv(xdgConfigHomeEnv)
	if baseDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, defaultConfigDir)
	}
	return filepath.Join(baseDir, appName), nil
}

// DefaultPath returns the path of the default configuration file
func DefaultPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the configuration file at path. When path is empty the default
// location is used and a missing file yields an empty Config. A path given
// explicitly must exist.
func Load(fs afero.Fs, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return &Config{}, nil
		}
		path = p
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in config %s: %v", path, undecoded)
	}

	return &cfg, nil
}
