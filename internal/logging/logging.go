package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns the process logger. dev gets a human readable console writer,
// everything else gets JSON lines on stdout.
func New(env, component string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "dev" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return zerolog.New(out).With().Timestamp().Str("component", component).Logger()
}
