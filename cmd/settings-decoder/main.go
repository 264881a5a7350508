package main

import (
	"fmt"
	"io"
	"os"

	"github.com/awnumar/memguard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/DeprecatedLuar/settings-decoder/internal/commands"
	"github.com/DeprecatedLuar/settings-decoder/internal/config"
	"github.com/DeprecatedLuar/settings-decoder/internal/logging"
	"github.com/DeprecatedLuar/settings-decoder/internal/report"
	"github.com/DeprecatedLuar/settings-decoder/internal/settings"
)

const appName = "settings-decoder"

var (
	debugMode bool
	useM2     bool
	noColor   bool
	cfg       = &config.Config{}
	logCloser io.Closer
)

func main() {
	// wipe enclaves on Ctrl-C and on every exit path
	memguard.CatchInterrupt()
	defer memguard.Purge()
	cli.OsExiter = exit

	app := newApp(afero.NewOsFs())
	if err := app.Run(os.Args); err != nil {
		// cli.Exit errors have already been printed and exited by the app
		if _, ok := err.(cli.ExitCoder); !ok {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exit(commands.ExitUsage)
		}
	}
}

// exit closes the log file first, as neither os.Exit nor memguard.SafeExit
// run deferred calls and cli.OsExiter fires before App.After
func exit(code int) {
	closeLog()
	memguard.SafeExit(code)
}

func closeLog() {
	if logCloser == nil {
		return
	}
	if err := logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: closing log file: %v\n", err)
	}
	logCloser = nil
}

func newApp(fs afero.Fs) *cli.App {
	return &cli.App{
		Name:  appName,
		Usage: "Recover plaintext passwords from Maven settings.xml and settings-security.xml",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "settings",
				Aliases: []string{"f"},
				Usage:   "location of settings.xml file",
				EnvVars: []string{"SETTINGS_DECODER_SETTINGS"},
			},
			&cli.StringFlag{
				Name:    "settings-security",
				Aliases: []string{"s"},
				Usage:   "location of settings-security.xml",
				EnvVars: []string{"SETTINGS_DECODER_SECURITY"},
			},
			&cli.BoolFlag{
				Name:        "m2",
				Usage:       "use ~/.m2/settings.xml and ~/.m2/settings-security.xml when not given",
				Destination: &useM2,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Usage:   fmt.Sprintf("output format, one of %v", report.Formats()),
			},
			&cli.StringSliceFlag{
				Name:  "server",
				Usage: "only show the server or proxy with this ID (repeatable)",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "configuration file (default $XDG_CONFIG_HOME/settings-decoder/config.toml)",
			},
			&cli.BoolFlag{
				Name:        "no-color",
				Usage:       "never colour the output",
				Destination: &noColor,
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "write logs to this file instead of stderr",
			},
			&cli.BoolFlag{
				Name:        "debug",
				Usage:       "Enable debug output",
				Destination: &debugMode,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "decrypt",
				Usage:     "Decrypt a single value (prompts when VALUE is omitted)",
				ArgsUsage: "[VALUE]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "settings-security",
						Aliases: []string{"s"},
						Usage:   "location of settings-security.xml holding the master password",
						EnvVars: []string{"SETTINGS_DECODER_SECURITY"},
					},
					&cli.StringFlag{
						Name:    "key",
						Aliases: []string{"k"},
						Usage:   "key to decrypt with (default: master password from --settings-security, else the system key)",
					},
				},
				Action: func(c *cli.Context) error {
					return commands.HandleDecrypt(commands.DecryptOptions{
						Fs:           fs,
						SecurityPath: securityPath(c),
						Key:          c.String("key"),
						Value:        c.Args().First(),
						Out:          c.App.Writer,
					})
				},
			},
		},
		Before: func(c *cli.Context) error {
			logfile := c.String("log-file")

			loaded, err := config.Load(fs, c.String("config"))
			if err != nil {
				return cli.Exit(err.Error(), commands.ExitUsage)
			}
			cfg = loaded
			if logfile == "" {
				logfile = cfg.LogFile
			}

			closeLog()
			logCloser = logging.Init(appName, logging.Debug(debugMode), logging.Logfile(logfile))
			Debugf("config: %+v", *cfg)
			return nil
		},
		After: func(c *cli.Context) error {
			closeLog()
			return nil
		},
		Action: func(c *cli.Context) error {
			settingsFile := settingsPath(c)
			securityFile := securityPath(c)

			if settingsFile == "" || securityFile == "" {
				cli.ShowAppHelp(c)
				return cli.Exit("", commands.ExitUsage)
			}

			return commands.HandleDecode(commands.DecodeOptions{
				Fs:           fs,
				SettingsPath: settingsFile,
				SecurityPath: securityFile,
				Format:       firstNonEmpty(c.String("format"), cfg.Format),
				Servers:      servers(c),
				Color:        useColor(),
				Width:        report.TerminalWidth(os.Stdout),
				Out:          c.App.Writer,
			})
		},
	}
}

func settingsPath(c *cli.Context) string {
	return pathFrom(c.String("settings"), cfg.Settings, settings.DefaultSettingsPath)
}

func securityPath(c *cli.Context) string {
	return pathFrom(lineageString(c, "settings-security"), cfg.Security, settings.DefaultSecurityPath)
}

// lineageString returns the first non-empty value of a flag defined on
// both a command and its parent. c.String stops at the nearest command
// defining the flag, even when only the parent was given it.
func lineageString(c *cli.Context, name string) string {
	for _, ctx := range c.Lineage() {
		if v := ctx.String(name); v != "" {
			return v
		}
	}
	return ""
}

// pathFrom picks the flag, then the config file, then the ~/.m2 default
// when --m2 is set
func pathFrom(flag, configured string, fallback func() (string, error)) string {
	if p := firstNonEmpty(flag, configured); p != "" {
		return p
	}
	if !useM2 {
		return ""
	}
	p, err := fallback()
	if err != nil {
		log.Warn().Err(err).Msg("cannot locate ~/.m2")
		return ""
	}
	return p
}

func servers(c *cli.Context) []string {
	if ids := c.StringSlice("server"); len(ids) > 0 {
		return ids
	}
	return cfg.Servers
}

func useColor() bool {
	if noColor {
		return false
	}
	if cfg.Color != nil && !*cfg.Color {
		return false
	}
	return report.IsTerminal(os.Stdout)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func Debugf(format string, args ...any) {
	if debugMode {
		log.Debug().Msgf(format, args...)
	}
}
