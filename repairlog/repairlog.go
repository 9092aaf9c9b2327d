// Package repairlog initializes the process-wide logger. Grounded on
// spec.md §9's "global mutable state (logger)... explicit initialization at
// process start; never mutated from worker threads; logger sinks are
// thread-safe by contract" note. zap's global sugared logger already
// satisfies that contract, so this package is a thin, explicit Init/Get
// wrapper rather than a reimplementation.
package repairlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger *zap.SugaredLogger = zap.NewNop().Sugar()
)

// Options configures the process logger.
type Options struct {
	Verbose bool
	Debug   bool
}

// Init builds and installs the process-wide logger. Called once from
// main; safe to call again in tests, which is why it takes a lock rather
// than using sync.Once.
func Init(opts Options) error {
	cfg := zap.NewProductionConfig()
	switch {
	case opts.Debug:
		cfg = zap.NewDevelopmentConfig()
	case opts.Verbose:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	logger = built.Sugar()
	mu.Unlock()
	return nil
}

// Get returns the current process logger. Before Init is called it returns
// a no-op logger, so callers never need a nil check.
func Get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Job returns a logger scoped to one batch job, tagging every line with
// its numeric queue id and its uuid-based correlation id (spec.md §9's
// logger-as-external-collaborator note; the correlation id is what
// cross-process log aggregation keys on).
func Job(jobID uint64, correlationID string) *zap.SugaredLogger {
	return Get().With("job_id", jobID, "correlation_id", correlationID)
}
