// Package logx builds the process logger.
package logx

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
	"time"
)

// New returns a logger at level (info when unparsable) and installs it as the
// global zerolog logger. pretty selects the console writer.
func New(service, level string, pretty bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339

	var l zerolog.Logger
	if pretty {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stderr)
	}
	l = l.Level(lvl).With().Timestamp().Str("service", service).Logger()
	log.Logger = l
	return l
}
