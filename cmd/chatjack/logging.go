package main

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// newLogger builds the root logger. Components derive prefixed children.
func newLogger(w io.Writer, level log.Level, timestamps bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		TimeFormat:      "15:04:05.000",
	})
}

func levelFor(configured log.Level, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	return configured
}

// logWriter opens path for the TUI's logs, or discards them
func logWriter(path string) (io.Writer, func() error, error) {
	if path == "" {
		return io.Discard, func() error { return nil }, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
