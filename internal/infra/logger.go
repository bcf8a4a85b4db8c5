package infra

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process-wide logger shared by the API server and the
// worker. Output is JSON on stdout; development switches to the console
// writer and debug level so pipeline stage logs are readable while iterating.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// Logger aliases zerolog.Logger so pipeline packages can take a logger in
// their Options structs without importing zerolog themselves.
type Logger = zerolog.Logger
