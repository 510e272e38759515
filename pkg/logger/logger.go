// Package logger provides the process-wide zerolog logger.
//
// Call Init once from main, then Get wherever a logger is not injected.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Defaults to info.
	Level string
	// Pretty switches to coloured console output. Keep false in production.
	Pretty bool
	// Service is attached to every entry as the "service" field when set.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu       sync.RWMutex
	instance *zerolog.Logger
)

// Init builds the global logger. Only the first call has any effect.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		l := New(opts)
		zerolog.SetGlobalLevel(l.GetLevel())
		instance = &l
	}
	return *instance
}

// New builds a standalone logger without touching the global one.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(ParseLevel(opts.Level)).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// Get returns the global logger. Panics if Init has not been called yet.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Reset drops the global logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	zerolog.SetGlobalLevel(zerolog.TraceLevel)
}

// ParseLevel maps a level name to zerolog, falling back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
