package runlog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xxxsen/mdkeep/internal/model"
)

// Sink receives the log lines of an import run in the order they are produced.
type Sink interface {
	Append(entry model.LogEntry)
}

type SinkFunc func(entry model.LogEntry)

func (f SinkFunc) Append(entry model.LogEntry) {
	f(entry)
}

// Logger stamps entries with a clock and hands them to a sink.
type Logger struct {
	sink Sink
	now  func() time.Time
}

func New(sink Sink) *Logger {
	return &Logger{sink: sink, now: time.Now}
}

func (l *Logger) WithClock(now func() time.Time) *Logger {
	return &Logger{sink: l.sink, now: now}
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.emit(model.LogLevelInfo, format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.emit(model.LogLevelSuccess, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit(model.LogLevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.emit(model.LogLevelError, format, args...)
}

func (l *Logger) emit(level model.LogLevel, format string, args ...interface{}) {
	if l == nil || l.sink == nil {
		return
	}
	l.sink.Append(model.LogEntry{
		Time:    l.now(),
		Message: fmt.Sprintf(format, args...),
		IsError: level == model.LogLevelError,
		Level:   level,
	})
}

type loggerKey struct{}

func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// FromContext returns the run logger stored in ctx, or a logger that drops everything.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*Logger); ok && l != nil {
			return l
		}
	}
	return New(nil)
}

// Memory keeps entries in memory; safe for concurrent readers.
type Memory struct {
	mu      sync.Mutex
	entries []model.LogEntry
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Append(entry model.LogEntry) {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
}

func (m *Memory) Entries() []model.LogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.LogEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *Memory) Reset() {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
}

type multi []Sink

func (m multi) Append(entry model.LogEntry) {
	for _, s := range m {
		s.Append(entry)
	}
}

func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}
