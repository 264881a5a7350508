// Package logging sets up zerolog for the command line tool. Output goes to
// stderr so it never mixes with decoded credentials on stdout.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type discardCloser struct {
	io.Writer
}

func (discardCloser) Close() error { return nil }

type logOpts struct {
	logfile string
	debug   bool
	out     io.Writer
}

// Options configure Init
type Options func(*logOpts)

func evalOptions(options ...Options) *logOpts {
	opts := &logOpts{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// Debug enables debug level logging
func Debug(debug bool) Options {
	return func(lo *logOpts) {
		lo.debug = debug
	}
}

// Logfile sends logs to a file instead of stderr. "-" means stdout and
// os.DevNull discards everything.
func Logfile(logfile string) Options {
	return func(lo *logOpts) {
		lo.logfile = logfile
	}
}

// Writer sends logs to w, mostly for tests
func Writer(w io.Writer) Options {
	return func(lo *logOpts) {
		lo.out = w
	}
}

// Init replaces the global zerolog logger. It returns a closer for any log
// file opened.
func Init(prefix string, options ...Options) io.Closer {
	opts := evalOptions(options...)

	var nocolor bool
	var out io.WriteCloser = discardCloser{os.Stderr}

	switch {
	case opts.out != nil:
		out = discardCloser{opts.out}
		nocolor = true
	case opts.logfile == "":
	case opts.logfile == "-":
		out = discardCloser{os.Stdout}
	case opts.logfile == os.DevNull:
		out = discardCloser{io.Discard}
	default:
		out = &lumberjack.Logger{Filename: opts.logfile}
		nocolor = true
	}

	level := zerolog.InfoLevel
	if opts.debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    nocolor,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("%s:", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("%s: %s", prefix, i)
		},
	})

	return out
}
