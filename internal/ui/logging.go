package ui

import (
	"log/slog"
	"os"
)

// SetupLogging installs the process-wide logger. Debug mode turns on the
// transport/extractor chatter that is too noisy for normal runs.
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})))
}
