// Package logtrace provides logging and tracing utilities for the client and CLI.
// It integrates with zerolog for structured logging and carries request ids
// through contexts.
package logtrace

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLoggerTo initializes the global logger with Unix timestamps, writing to
// w at the given level. An empty level means "info".
func InitLoggerTo(w io.Writer, level string) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil {
			return err
		}
		lvl = parsed
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}
