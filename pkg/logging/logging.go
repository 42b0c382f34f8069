// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	stdLog "log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Output formats accepted by ConfigureGlobalLogging.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	mu  sync.Mutex
	out io.Writer = os.Stderr
)

// Logs stay off stdout, which carries reports.
func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = zerolog.New(consoleWriter(out)).With().Timestamp().Logger()
}

func consoleWriter(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
}

// SetOutput redirects log output. Takes effect at the next ConfigureGlobalLogging call.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// ConfigureGlobalLogging sets the global level and format. An unknown level falls back
// to warn and is reported once at that level.
func ConfigureGlobalLogging(levelStr, format string) zerolog.Level {
	mu.Lock()
	w := out
	mu.Unlock()

	level, err := ParseLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	var sink io.Writer = consoleWriter(w)
	if strings.EqualFold(format, FormatJSON) {
		sink = w
	}

	ctx := zerolog.New(sink).With().Timestamp()
	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	// Route stray stdlib log output through zerolog at debug.
	stdLog.SetFlags(0)
	stdLog.SetOutput(stdLogWriter{logger: log.Logger})

	if err != nil {
		log.Warn().Str("level", levelStr).Msg("invalid log level, using warn")
	}
	return level
}

// ParseLevel parses a level name. "" means warn.
func ParseLevel(s string) (zerolog.Level, error) {
	if strings.TrimSpace(s) == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.WarnLevel, err
	}
	return level, nil
}

type stdLogWriter struct {
	logger zerolog.Logger
}

func (w stdLogWriter) Write(p []byte) (int, error) {
	w.logger.Debug().Str("source", "stdlog").Msg(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}
