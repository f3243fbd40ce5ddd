// Package logging provides categorized logging for bizpilot, one zap
// sugared logger per pipeline stage. Until Initialize is called every
// logger is a no-op, so library code can log unconditionally.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot         Category = "boot"         // Startup and wiring
	CategorySession      Category = "session"      // Turn lifecycle, persistence
	CategoryPerception   Category = "perception"   // Normalizing, intent matching, expansion
	CategoryArticulation Category = "articulation" // Actions, previews, composition
	CategoryAPI          Category = "api"          // LLM/tool invocations
	CategoryStore        Category = "store"        // Session store operations
	CategoryConfig       Category = "config"       // Config loading and reloads
)

var (
	mu      sync.RWMutex
	loggers = make(map[Category]*zap.SugaredLogger)
	nop     = zap.NewNop().Sugar()
	root    *zap.Logger
	level   zap.AtomicLevel
)

// Initialize sets up file-backed logging under dir. Each category writes to
// its own date-stamped file. Calling it twice is a no-op.
func Initialize(dir string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if root != nil {
		return nil
	}
	if dir == "" {
		return fmt.Errorf("log directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	date := time.Now().Format("2006-01-02")
	path := filepath.Join(dir, fmt.Sprintf("%s_bizpilot.log", date))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(f), level)
	root = zap.New(core)

	loggers = make(map[Category]*zap.SugaredLogger)
	Get(CategoryBoot).Infof("logging initialized: dir=%s debug=%v", dir, debug)
	return nil
}

// SetDebug toggles debug-level output at runtime.
func SetDebug(on bool) {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		return
	}
	if on {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

// Get returns the logger for a category, or a no-op logger before Initialize.
func Get(category Category) *zap.SugaredLogger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	r := root
	mu.RUnlock()

	if r == nil {
		return nop
	}

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := r.Sugar().Named(string(category))
	loggers[category] = l
	return l
}

// Sync flushes all buffered log entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if root != nil {
		_ = root.Sync()
	}
}

// =============================================================================
// CONVENIENCE FUNCTIONS
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...any) { Get(CategoryBoot).Infof(format, args...) }

// BootWarn logs a warning to the boot category.
func BootWarn(format string, args ...any) { Get(CategoryBoot).Warnf(format, args...) }

// Session logs to the session category.
func Session(format string, args ...any) { Get(CategorySession).Infof(format, args...) }

// SessionDebug logs debug to the session category.
func SessionDebug(format string, args ...any) { Get(CategorySession).Debugf(format, args...) }

// SessionWarn logs a warning to the session category.
func SessionWarn(format string, args ...any) { Get(CategorySession).Warnf(format, args...) }

// Perception logs to the perception category.
func Perception(format string, args ...any) { Get(CategoryPerception).Infof(format, args...) }

// PerceptionDebug logs debug to the perception category.
func PerceptionDebug(format string, args ...any) { Get(CategoryPerception).Debugf(format, args...) }

// PerceptionWarn logs a warning to the perception category.
func PerceptionWarn(format string, args ...any) { Get(CategoryPerception).Warnf(format, args...) }

// Articulation logs to the articulation category.
func Articulation(format string, args ...any) { Get(CategoryArticulation).Infof(format, args...) }

// ArticulationDebug logs debug to the articulation category.
func ArticulationDebug(format string, args ...any) {
	Get(CategoryArticulation).Debugf(format, args...)
}

// API logs to the api category.
func API(format string, args ...any) { Get(CategoryAPI).Infof(format, args...) }

// APIWarn logs a warning to the api category.
func APIWarn(format string, args ...any) { Get(CategoryAPI).Warnf(format, args...) }

// Store logs to the store category.
func Store(format string, args ...any) { Get(CategoryStore).Infof(format, args...) }

// StoreWarn logs a warning to the store category.
func StoreWarn(format string, args ...any) { Get(CategoryStore).Warnf(format, args...) }

// Config logs to the config category.
func Config(format string, args ...any) { Get(CategoryConfig).Infof(format, args...) }

// ConfigWarn logs a warning to the config category.
func ConfigWarn(format string, args ...any) { Get(CategoryConfig).Warnf(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer measures operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debugf("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning if the duration exceeds threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warnf("%s took %v (threshold: %v)", t.op, elapsed, threshold)
	} else {
		Get(t.category).Debugf("%s completed in %v", t.op, elapsed)
	}
	return elapsed
}
