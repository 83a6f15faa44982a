// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where logs go.
type Options struct {
	Level string
	// File enables a rotating JSON log file next to console output.
	File   string
	Output io.Writer
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// Setup installs the global logger and returns a closer for the log file, if any.
func Setup(opts Options) io.Closer {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: out, TimeFormat: time.DateTime}

	var (
		writer io.Writer = console
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		writer = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	zerolog.SetGlobalLevel(ParseLevel(opts.Level))
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
