// Package debug provides conditional debug logging for kgv.
//
// Debug logging is enabled by setting the KGV_DEBUG environment variable:
//
//	KGV_DEBUG=1 kgv
//
// Messages go through a zap logger. By default the sink is stderr; the TUI
// calls Init with a log file so output never lands on the alternate screen.
// When disabled (default), Log and friends are no-ops. Warn is always written
// to the configured sink.
//
// Usage:
//
//	import "github.com/vanderheijden86/kgview/pkg/debug"
//
//	func myFunc() {
//	    debug.Log("processing %d nodes", count)
//	    // ...
//	    debug.LogTiming("myFunc", elapsed)
//	}
package debug

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu sync.RWMutex
	// enabled is true when KGV_DEBUG env var is set
	enabled bool
	logger  *zap.SugaredLogger
	// closer flushes the file sink installed by Init
	closer func()
)

func init() {
	enabled = os.Getenv("KGV_DEBUG") != ""
	logger = newLogger(zapcore.Lock(os.Stderr))
	closer = func() {}
}

func newLogger(ws zapcore.WriteSyncer) *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), ws, zapcore.DebugLevel)
	return zap.New(core).Named("KGV").Sugar()
}

// Init redirects all log output to the file at path, creating parent
// directories as needed. The returned function flushes and closes the file.
func Init(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	l := newLogger(zapcore.AddSync(f))
	mu.Lock()
	logger = l
	closer = func() {
		_ = l.Sync()
		_ = f.Close()
	}
	mu.Unlock()
	return Close, nil
}

// Close flushes the current sink.
func Close() {
	mu.Lock()
	c := closer
	closer = func() {}
	mu.Unlock()
	c()
}

func sink() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return enabled
}

// SetEnabled allows programmatic control of debug logging.
func SetEnabled(e bool) {
	mu.Lock()
	enabled = e
	mu.Unlock()
}

// Log writes a debug message if debug logging is enabled.
// Uses printf-style formatting.
func Log(format string, args ...any) {
	if !Enabled() {
		return
	}
	sink().Debugf(format, args...)
}

// Warn records a degraded-but-handled failure. It is written even when debug
// logging is disabled.
func Warn(format string, args ...any) {
	sink().Warnf(format, args...)
}

// LogTiming writes a timing message if debug logging is enabled.
func LogTiming(name string, d time.Duration) {
	if !Enabled() {
		return
	}
	sink().Debugw("timing", "op", name, "elapsed", d)
}

// LogIf writes a debug message only if the condition is true.
func LogIf(cond bool, format string, args ...any) {
	if !cond || !Enabled() {
		return
	}
	sink().Debugf(format, args...)
}

// LogEnterExit logs function entry and exit with timing.
// Usage:
//
//	func myFunc() {
//	    defer debug.LogEnterExit("myFunc")()
//	    // ...
//	}
func LogEnterExit(name string) func() {
	if !Enabled() {
		return func() {}
	}
	sink().Debugf("-> %s", name)
	start := time.Now()
	return func() {
		sink().Debugf("<- %s (%v)", name, time.Since(start))
	}
}

// Trace is an alias for LogEnterExit for convenience.
var Trace = LogEnterExit

// Dump logs a value with its type for debugging complex structures.
func Dump(name string, v any) {
	if !Enabled() {
		return
	}
	sink().Debugf("%s: %T = %+v", name, v, v)
}

// Section logs a section header for visual organization in debug output.
func Section(name string) {
	if !Enabled() {
		return
	}
	sink().Debugf("=== %s ===", name)
}
