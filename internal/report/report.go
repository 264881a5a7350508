// Package report writes resolved credentials in human or machine readable
// form.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/DeprecatedLuar/settings-decoder/internal/resolver"
)

// Output formats
const (
	FormatText     = "text"
	FormatTable    = "table"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatTOML     = "toml"
)

// Color constants
const (
	ColorFailure = "\033[31m" // Red for records that did not decrypt
	ColorReset   = "\033[0m"
)

const (
	// width of the separator between records, as printed by the original
	// Maven tool
	defaultSeparatorWidth = 73

	failurePlaceholder = "<could not decrypt: %v>"
)

// Reporter writes a resolution result to w
type Reporter interface {
	Report(w io.Writer, r *resolver.Result) error
}

type reportOpts struct {
	color bool
	width int
}

// Options configure a Reporter
type Options func(*reportOpts)

func evalOptions(options ...Options) *reportOpts {
	opts := &reportOpts{width: defaultSeparatorWidth}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// Color turns on ANSI colours for failure markers
func Color(color bool) Options {
	return func(ro *reportOpts) {
		ro.color = color
	}
}

// Width caps the separator line. Values below 1 are ignored.
func Width(width int) Options {
	return func(ro *reportOpts) {
		if width > 0 && width < ro.width {
			ro.width = width
		}
	}
}

var formats = map[string]func(*reportOpts) Reporter{
	FormatText:     func(o *reportOpts) Reporter { return &TextReporter{opts: o} },
	FormatTable:    func(o *reportOpts) Reporter { return &TableReporter{format: FormatTable, opts: o} },
	FormatMarkdown: func(o *reportOpts) Reporter { return &TableReporter{format: FormatMarkdown, opts: o} },
	FormatCSV:      func(o *reportOpts) Reporter { return &TableReporter{format: FormatCSV, opts: o} },
	FormatJSON:     func(o *reportOpts) Reporter { return &StructuredReporter{format: FormatJSON} },
	FormatTOML:     func(o *reportOpts) Reporter { return &StructuredReporter{format: FormatTOML} },
}

// Formats returns the supported format names, sorted
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the Reporter for format
func New(format string, options ...Options) (Reporter, error) {
	if format == "" {
		format = FormatText
	}

	fn, ok := formats[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (valid: %s)", format, strings.Join(Formats(), ", "))
	}
	return fn(evalOptions(options...)), nil
}

// failureText formats the inline marker shown in place of a password
func failureText(err error) string {
	return fmt.Sprintf(failurePlaceholder, err)
}

func colorize(enabled bool, color, s string) string {
	if !enabled {
		return s
	}
	return color + s + ColorReset
}
