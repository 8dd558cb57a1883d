package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// ParseLevel maps a configured level name to a zerolog level (defaults to info)
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing to console and, when file is not empty, to
// file as JSON lines. The returned closer releases the log file.
func New(level, format, file string, console io.Writer) (zerolog.Logger, io.Closer, error) {
	var out io.Writer = console
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: console, TimeFormat: time.DateTime}
	}

	var closer io.Closer = nopCloser{}
	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = zerolog.MultiLevelWriter(out, f)
		closer = f
	}

	l := zerolog.New(out).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Logger()

	return l, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init initializes the global logger with the specified level, format and
// optional log file
func Init(level, format, file string) (io.Closer, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	l, closer, err := New(level, format, file, os.Stdout)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(ParseLevel(level))
	log.Logger = l

	return closer, nil
}

// Get returns a reference to the global logger
func Get() *zerolog.Logger {
	return &log.Logger
}
