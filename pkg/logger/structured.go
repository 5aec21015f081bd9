package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var zlog = zerolog.Nop()

// InitStructured initializes the structured zerolog logger
func InitStructured(env string) {
	InitWriter(env, nil)
}

// InitWriter initializes the logger writing to w. A nil w selects stdout,
// pretty-printed for development environments.
func InitWriter(env string, w io.Writer) {
	if w == nil {
		if isDevelopment(env) {
			// Pretty console output for development
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		} else {
			// JSON output for production (machine-readable)
			w = os.Stdout
		}
	}

	level := zerolog.InfoLevel
	if isDevelopment(env) {
		level = zerolog.DebugLevel
	}

	zlog = zerolog.New(w).Level(level).With().
		Timestamp().
		Str("service", "angple-wiki").
		Str("env", env).
		Logger()

	zerolog.TimeFieldFormat = time.RFC3339
}

func isDevelopment(env string) bool {
	return env == "development" || env == "dev" || env == "local"
}

// GetLogger returns the global zerolog logger
func GetLogger() *zerolog.Logger {
	return &zlog
}

// WithRequestID returns a logger with request_id field
func WithRequestID(requestID string) zerolog.Logger {
	return zlog.With().Str("request_id", requestID).Logger()
}

// WithUserID returns a logger with user_id field
func WithUserID(userID string) zerolog.Logger {
	return zlog.With().Str("user_id", userID).Logger()
}

// WithComponent returns a logger tagged with a component name
func WithComponent(name string) zerolog.Logger {
	return zlog.With().Str("component", name).Logger()
}
