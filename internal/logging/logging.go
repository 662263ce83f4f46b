// Package logging builds the zerolog logger shared by every component.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures the console and file sinks.
type Options struct {
	// Console defaults to os.Stderr.
	Console      io.Writer
	ConsoleLevel string
	NoColor      bool

	// File is the log file path; empty disables the file sink.
	File      string
	FileLevel string
	// MaxSizeMB rotates File to File.1 at startup once it grows past this size.
	MaxSizeMB int
}

// leveledWriter drops events below min before they reach w.
type leveledWriter struct {
	w   io.Writer
	min zerolog.Level
}

func (l leveledWriter) Write(p []byte) (int, error) { return l.w.Write(p) }

func (l leveledWriter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < l.min {
		return len(p), nil
	}
	return l.w.Write(p)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to the console and, when configured, a file.
// The returned closer flushes and closes the file sink.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	consoleLevel, err := ParseLevel(opts.ConsoleLevel, zerolog.InfoLevel)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{leveledWriter{
		w: zerolog.ConsoleWriter{
			Out:        console,
			NoColor:    opts.NoColor,
			TimeFormat: time.TimeOnly,
		},
		min: consoleLevel,
	}}
	minLevel := consoleLevel
	var closer io.Closer = nopCloser{}

	if opts.File != "" {
		fileLevel, err := ParseLevel(opts.FileLevel, zerolog.DebugLevel)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		f, err := openLogFile(opts.File, int64(opts.MaxSizeMB)<<20)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		writers = append(writers, leveledWriter{w: f, min: fileLevel})
		closer = f
		if fileLevel < minLevel {
			minLevel = fileLevel
		}
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(minLevel).
		With().
		Timestamp().
		Logger()
	return logger, closer, nil
}

// ParseLevel parses a level name, returning def for an empty string.
func ParseLevel(s string, def zerolog.Level) (zerolog.Level, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return def, nil
	}
	if s == "warning" {
		s = "warn"
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return def, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// openLogFile opens path for appending, rotating it first when it is larger
// than maxBytes.
func openLogFile(path string, maxBytes int64) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	if maxBytes > 0 {
		if st, err := os.Stat(path); err == nil && st.Size() > maxBytes {
			if err := os.Rename(path, path+".1"); err != nil {
				return nil, fmt.Errorf("rotate log file: %w", err)
			}
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
