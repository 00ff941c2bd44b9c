// Package logger provides the process-wide structured logger backed by zerolog.
//
// Initialise once at startup with Init, then retrieve anywhere with Get.
// Components receive a child logger through their constructors.
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
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Defaults to "info" when empty or unrecognised.
	Level string
	// Pretty switches to the coloured console writer. JSON otherwise.
	Pretty bool
	// Service is attached to every entry as the "service" field when set.
	Service string
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu       sync.Mutex
	instance *zerolog.Logger
)

// Init builds the process logger. Only the first call has any effect until
// Reset is called.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		l := New(opts)
		instance = &l
	}
	return *instance
}

// New builds a logger without touching the process-wide instance.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger()
}

// Get returns the process logger. Panics if Init has not been called yet.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Reset drops the process logger so that the next Init call rebuilds it.
// Intended for tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
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
