// Package attemptlog records per-attempt dispatch diagnostics without ever
// blocking the dispatch loop.
package attemptlog

import (
	"sync"
	"sync/atomic"

	"github.com/Egham-7/oracle-proxy/internal/models"

	fiberlog "github.com/gofiber/fiber/v2/log"
)

const defaultBufferSize = 256

// Observer receives one event per downstream attempt. Implementations must
// return promptly and must not panic.
type Observer interface {
	Observe(event models.AttemptEvent)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event models.AttemptEvent)

// Observe calls f(event).
func (f ObserverFunc) Observe(event models.AttemptEvent) { f(event) }

// Discard drops every event.
var Discard Observer = ObserverFunc(func(models.AttemptEvent) {})

// AsyncLogger hands events to a single background writer. When the buffer is
// full, events are dropped and counted instead of waiting.
type AsyncLogger struct {
	events  chan models.AttemptEvent
	write   func(models.AttemptEvent)
	dropped atomic.Int64

	mu      sync.RWMutex
	closed  bool
	started sync.Once
	done    chan struct{}
}

// NewAsyncLogger creates a logger with the given buffer size that writes through fiberlog.
func NewAsyncLogger(bufferSize int) *AsyncLogger {
	return NewAsyncLoggerWithWriter(bufferSize, Write)
}

// NewAsyncLoggerWithWriter creates a logger that hands events to write on its background goroutine.
func NewAsyncLoggerWithWriter(bufferSize int, write func(models.AttemptEvent)) *AsyncLogger {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &AsyncLogger{
		events: make(chan models.AttemptEvent, bufferSize),
		write:  write,
		done:   make(chan struct{}),
	}
}

// Start launches the background writer. Calling it more than once is a no-op.
func (l *AsyncLogger) Start() {
	l.started.Do(func() {
		go l.run()
	})
}

func (l *AsyncLogger) run() {
	defer close(l.done)
	for event := range l.events {
		l.safeWrite(event)
	}
}

func (l *AsyncLogger) safeWrite(event models.AttemptEvent) {
	defer func() {
		if r := recover(); r != nil {
			fiberlog.Errorf("attempt log writer panicked: %v", r)
		}
	}()
	l.write(event)
}

// Observe enqueues event without blocking.
func (l *AsyncLogger) Observe(event models.AttemptEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		l.dropped.Add(1)
		return
	}
	select {
	case l.events <- event:
	default:
		l.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (l *AsyncLogger) Dropped() int64 {
	return l.dropped.Load()
}

// Close stops accepting events and waits for buffered ones to be written.
// If Start was never called, buffered events are discarded.
func (l *AsyncLogger) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()

	started := true
	l.started.Do(func() { started = false })
	if started {
		<-l.done
	}
	if n := l.Dropped(); n > 0 {
		fiberlog.Warnf("attempt log dropped %d events", n)
	}
}

// Write logs event through fiberlog at a level matching its outcome.
func Write(e models.AttemptEvent) {
	switch e.Outcome {
	case models.AttemptSuccess:
		fiberlog.Infof("[%s] token #%d/%d succeeded (%d) in %v",
			e.RequestID, e.Index+1, e.Total, e.StatusCode, e.Latency)
	case models.AttemptRateLimited, models.AttemptUnavailable:
		fiberlog.Warnf("[%s] token #%d/%d busy (%d). Switching...",
			e.RequestID, e.Index+1, e.Total, e.StatusCode)
	case models.AttemptTimeout:
		fiberlog.Errorf("[%s] token #%d/%d hit the dispatch deadline after %v",
			e.RequestID, e.Index+1, e.Total, e.Latency)
	default:
		fiberlog.Warnf("[%s] token #%d/%d failed (%s, status %d): %s",
			e.RequestID, e.Index+1, e.Total, e.Outcome, e.StatusCode, e.Reason)
	}
}
