// Package logging builds the single process-wide zerolog.Logger the CLI
// root constructs and passes down by value. Library code never touches a
// global logger; every component takes a zerolog.Logger at construction.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config controls the logger the CLI root builds.
type Config struct {
	Level  string // trace, debug, info, warn, error; default info
	Format string // "json" or "console"; empty means auto-detect from Output
	Output io.Writer
}

// New builds a logger from cfg. When Format is empty, console-pretty
// output is used on a TTY and JSON otherwise, matching spec.md's ambient
// logging requirement.
func New(cfg Config) zerolog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	format := cfg.Format
	if format == "" {
		if f, ok := output.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			format = "console"
		} else {
			format = "json"
		}
	}

	var w io.Writer = output
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}

	logger := zerolog.New(w).With().Timestamp().Logger()
	return logger.Level(parseLevel(cfg.Level))
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
