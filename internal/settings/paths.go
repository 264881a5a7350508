package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// Default Maven locations, relative to the home directory
	m2DirName        = ".m2"
	settingsFileName = "settings.xml"
	securityFileName = "settings-security.xml"

	homePrefix = "~" + string(filepath.Separator)
)

// GetM2Dir returns the user's ~/.m2 directory path
func GetM2Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, m2DirName), nil
}

// DefaultSettingsPath returns ~/.m2/settings.xml
func DefaultSettingsPath() (string, error) {
	m2Dir, err := GetM2Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(m2Dir, settingsFileName), nil
}

// DefaultSecurityPath returns ~/.m2/settings-security.xml
func DefaultSecurityPath() (string, error) {
	m2Dir, err := GetM2Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(m2Dir, securityFileName), nil
}

// ExpandPath expands a leading "~/" to the home directory. Other paths are
// returned unchanged.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, homePrefix) && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %s: %w", path, err)
	}

	if path == "~" {
		return homeDir, nil
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// resolveRelative expands target and, when still relative, resolves it
// against the directory of the file that referenced it.
func resolveRelative(from, target string) (string, error) {
	target, err := ExpandPath(target)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(target) {
		return filepath.Clean(target), nil
	}
	return filepath.Join(filepath.Dir(from), target), nil
}
