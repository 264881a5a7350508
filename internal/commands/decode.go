package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/DeprecatedLuar/settings-decoder/internal/report"
	"github.com/DeprecatedLuar/settings-decoder/internal/resolver"
	"github.com/DeprecatedLuar/settings-decoder/internal/search"
	"github.com/DeprecatedLuar/settings-decoder/internal/settings"
)

// Exit codes
const (
	ExitOK      = 0
	ExitUsage   = 1 // missing or invalid arguments, missing input files
	ExitFailure = 2 // unreadable input or master password
)

// DecodeOptions are the inputs of HandleDecode
type DecodeOptions struct {
	Fs           afero.Fs
	SettingsPath string
	SecurityPath string
	Format       string
	Servers      []string
	Color        bool
	Width        int
	Out          io.Writer
}

// HandleDecode prints the master password and every server and proxy
// credential in the settings file. Records that do not decrypt are marked
// in the output and do not change the exit status.
func HandleDecode(opts DecodeOptions) error {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	settingsPath, err := checkInput(opts.Fs, settings.KindSettings, opts.SettingsPath)
	if err != nil {
		return err
	}
	securityPath, err := checkInput(opts.Fs, settings.KindSecurity, opts.SecurityPath)
	if err != nil {
		return err
	}

	reporter, err := report.New(opts.Format, report.Color(opts.Color), report.Width(opts.Width))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsage)
	}

	filter := search.NewFilter(opts.Servers)
	r := resolver.New(opts.Fs, settingsPath, securityPath, resolver.Match(filter.Match))

	result, err := r.Resolve()
	if err != nil {
		debugf("resolver stopped in state %s", r.State())
		return exitError(err)
	}

	if failures := result.Failures(); failures > 0 {
		log.Warn().Msgf("%d of %d credentials could not be decrypted", failures, len(result.Credentials))
	}

	if missing := filter.Unmatched(knownIDs(result)); len(missing) > 0 {
		for _, id := range missing {
			if suggestions := search.Suggest(id, knownIDs(result)); len(suggestions) > 0 {
				log.Warn().Msgf("no server or proxy %q, did you mean: %s?", id, strings.Join(suggestions, ", "))
			} else {
				log.Warn().Msgf("no server or proxy %q", id)
			}
		}
		if len(result.Credentials) == 0 {
			return cli.Exit("no matching servers or proxies", ExitUsage)
		}
	}

	return reporter.Report(opts.Out, result)
}

// checkInput expands path and makes sure it names an existing file
func checkInput(fs afero.Fs, kind, path string) (string, error) {
	if path == "" {
		return "", cli.Exit(fmt.Sprintf("%s file not given", kind), ExitUsage)
	}

	expanded, err := settings.ExpandPath(path)
	if err != nil {
		return "", cli.Exit(err.Error(), ExitUsage)
	}

	if exists, _ := afero.Exists(fs, expanded); !exists {
		abs, err := filepath.Abs(expanded)
		if err != nil {
			abs = expanded
		}
		return "", cli.Exit((&settings.NotFoundError{Kind: kind, Path: abs}).Error(), ExitUsage)
	}

	return expanded, nil
}

// exitError maps resolver errors to exit codes
func exitError(err error) error {
	var nf *settings.NotFoundError
	if errors.As(err, &nf) {
		return cli.Exit(err.Error(), ExitUsage)
	}
	return cli.Exit("Error: "+err.Error(), ExitFailure)
}

func knownIDs(result *resolver.Result) []string {
	ids := make([]string, 0, len(result.Credentials)+len(result.Skipped))
	for _, c := range result.Credentials {
		ids = append(ids, c.ID)
	}
	return append(ids, result.Skipped...)
}
