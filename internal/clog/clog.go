// Package clog is the core's logging facade. It mirrors the teacher's
// subsystem-tagged logger (log.Debugf(log.RequestSys, ...)) at a scale that
// fits a library rather than a full trading bot: one tag per component,
// a package-level default sink, and an injectable Logger for callers who
// already have their own structured logger wired up.
package clog

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Tag identifies the subsystem emitting a log line.
type Tag string

// Subsystem tags used across the core.
const (
	ExchangeCore   Tag = "EXCHANGE"
	RateLimiter    Tag = "RATELIMIT"
	CircuitBreaker Tag = "CIRCUITBREAKER"
	WebsocketMgr   Tag = "WEBSOCKET"
	Signer         Tag = "SIGNER"
)

// Logger is the minimal interface the core logs through. Callers may supply
// their own implementation (e.g. an adapter over zerolog/zap) via SetLogger.
type Logger interface {
	Debugf(tag Tag, format string, args ...any)
	Warnf(tag Tag, format string, args ...any)
	Errorf(tag Tag, format string, args ...any)
}

type stdLogger struct {
	mu  sync.Mutex
	out *log.Logger
}

func (s *stdLogger) logf(level string, tag Tag, format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Printf("%s [%s] %s", level, tag, fmt.Sprintf(format, args...))
}

func (s *stdLogger) Debugf(tag Tag, format string, args ...any) { s.logf("DEBUG", tag, format, args...) }
func (s *stdLogger) Warnf(tag Tag, format string, args ...any)  { s.logf("WARN", tag, format, args...) }
func (s *stdLogger) Errorf(tag Tag, format string, args ...any) { s.logf("ERROR", tag, format, args...) }

var (
	mu      sync.RWMutex
	current Logger = &stdLogger{out: log.New(os.Stderr, "", log.LstdFlags)}
)

// SetLogger replaces the package-level logger. The swap is guarded by a
// mutex, so it is safe to call concurrently with the package functions
// below; a logging call already in flight finishes on the old logger.
func SetLogger(l Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

func get() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Debugf logs a debug-level line tagged with tag.
func Debugf(tag Tag, format string, args ...any) { get().Debugf(tag, format, args...) }

// Warnf logs a warn-level line tagged with tag.
func Warnf(tag Tag, format string, args ...any) { get().Warnf(tag, format, args...) }

// Errorf logs an error-level line tagged with tag.
func Errorf(tag Tag, format string, args ...any) { get().Errorf(tag, format, args...) }
