package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger aliases zerolog.Logger so packages depend on the infra contract.
type Logger = zerolog.Logger

// NewLogger builds the service logger: human readable in development, JSON
// lines everywhere else.
func NewLogger(appEnv string) Logger {
	return newLogger(os.Stdout, appEnv)
}

// NopLogger discards everything. Components fall back to it when no logger
// is injected.
func NopLogger() Logger {
	return zerolog.Nop()
}

func newLogger(w io.Writer, appEnv string) Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "outfitgen").
		Logger()
}
