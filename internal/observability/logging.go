package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"

	"stargifty/internal/config"
)

// NewLogger builds a component-tagged logger. JSON to stdout by default,
// console format when LOG_FORMAT=console.
func NewLogger(cfg config.Log, component string) zerolog.Logger {
	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}

	return logger.
		Level(parseLogLevel(cfg.Level)).
		With().
		Timestamp().
		Str("component", component).
		Logger()
}

func parseLogLevel(s string) zerolog.Level {
	switch s {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
