package observability

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger with the run id stamped on every event,
// so log lines from one fetch invocation correlate without repeating the
// field at call sites. APP_ENV=dev (or development) switches to the
// human-friendly console writer.
func NewLogger(env, runID string) zerolog.Logger {
	var l zerolog.Logger
	if env == "dev" || env == "development" {
		l = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		l = zerolog.New(os.Stdout)
	}
	return l.With().Timestamp().Str("run_id", runID).Logger()
}
