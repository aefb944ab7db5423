package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"docsim/internal/config"
)

// New builds the process logger. Console output is for humans at a
// terminal, json for anything that ships logs elsewhere.
func New(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}
