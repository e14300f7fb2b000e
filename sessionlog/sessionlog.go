// Package sessionlog routes recoverable decode errors and informational
// events through a rate-limited logger, so a capture full of malformed
// segments doesn't flood stdout while still leaving a trail.
package sessionlog

import (
	"log"
	"os"
	"time"

	"github.com/m-lab/go/logx"
)

var (
	info         = log.New(os.Stdout, "info: ", log.LstdFlags|log.Lshortfile)
	sparseLogger = log.New(os.Stdout, "sparse: ", log.LstdFlags|log.Lshortfile)
)

// Logger wraps a rate-limited sink keyed by an arbitrary category string, so
// different error kinds (ShortHeader, MalformedOption, ...) get independent
// rate limits instead of competing for the same budget.
type Logger struct {
	every    time.Duration
	limiters map[string]*logx.Logger
}

// New creates a Logger that emits at most one line per category every d.
func New(d time.Duration) *Logger {
	return &Logger{every: d, limiters: make(map[string]*logx.Logger)}
}

// Sparse logs a rate-limited line under category, formatted like log.Printf.
func (l *Logger) Sparse(category, format string, args ...any) {
	lim, ok := l.limiters[category]
	if !ok {
		lim = logx.NewLogEvery(sparseLogger, l.every)
		l.limiters[category] = lim
	}
	lim.Printf("[%s] "+format, append([]any{category}, args...)...)
}

// Info logs unconditionally, for events that are inherently low-volume
// (stream creation, session startup) rather than per-segment.
func Info(format string, args ...any) {
	info.Printf(format, args...)
}
