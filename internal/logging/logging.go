// Package logging holds the process-wide structured logger.
//
// The terminal belongs to the UI, so log output goes to a file. Until Setup
// is called every event is discarded.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	logger     = zerolog.Nop()
	loggerLock sync.RWMutex
)

// Options configures Setup.
type Options struct {
	File    string // path of the log file; empty means DefaultFile()
	Level   string
	Console bool // human-readable lines instead of JSON
}

// DefaultFile returns $XDG_STATE_HOME/tasker/tasker.log, falling back to
// ~/.local/state when XDG_STATE_HOME is unset.
func DefaultFile() string {
	dir := os.Getenv("XDG_STATE_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "tasker.log")
		}
		dir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(dir, "tasker", "tasker.log")
}

// Setup opens the log file and installs the logger. Each call tags events
// with a fresh session id. The returned closer releases the file. A File
// of "-" logs human-readable lines to stderr.
func Setup(opts Options) (io.Closer, error) {
	if _, err := ParseLevel(opts.Level); err != nil {
		return nil, err
	}
	path := opts.File
	if path == "" {
		path = DefaultFile()
	}
	if path == "-" {
		opts.Console = true
		install(os.Stderr, opts)
		return nopCloser{}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	install(f, opts)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func install(w io.Writer, opts Options) {
	var out io.Writer = w
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen, NoColor: true}
	}

	level, _ := ParseLevel(opts.Level)
	l := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("session", uuid.NewString()).
		Logger()

	loggerLock.Lock()
	logger = l
	loggerLock.Unlock()
}

// SetLevel changes the level of the installed logger. Unknown names leave
// it unchanged.
func SetLevel(level string) error {
	l, err := ParseLevel(level)
	if err != nil {
		return err
	}
	loggerLock.Lock()
	logger = logger.Level(l)
	loggerLock.Unlock()
	return nil
}

// ParseLevel maps a level name to a zerolog level. An empty name means info.
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q (want debug, info, warn or error)", level)
	}
}

func current() *zerolog.Logger {
	loggerLock.RLock()
	l := logger
	loggerLock.RUnlock()
	return &l
}

func Debug() *zerolog.Event { return current().Debug() }

func Info() *zerolog.Event { return current().Info() }

func Warn() *zerolog.Event { return current().Warn() }

func Error() *zerolog.Event { return current().Error() }
