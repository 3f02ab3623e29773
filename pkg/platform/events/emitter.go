package events

import (
	"context"
	"log"
	"strings"
	"sync"
)

// Emitter publishes committed events. Emission failures must not roll back the
// state change that produced the event; callers log and continue.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Recorder captures events in memory for assertions.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event{}, r.events...)
}

// ByAction filters the recorded events.
func (r *Recorder) ByAction(action Action) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// LogEmitter writes events to the process log. Default sink when no broker is
// configured.
type LogEmitter struct {
	logger *log.Logger
}

func NewLogEmitter(logger *log.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(_ context.Context, event Event) error {
	var b strings.Builder
	for k, v := range event.Fields {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(v)
	}
	l.logger.Printf("event topic=%s action=%s entity=%d actor=%s from=%q to=%q ts=%d%s",
		event.Topic, event.Action, event.EntityID, event.Actor,
		event.FromStatus, event.ToStatus, event.Timestamp, b.String())
	return nil
}

// Multi fans one event out to several sinks, returning the first error after
// trying all of them.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, event Event) error {
	var firstErr error
	for _, e := range m {
		if err := e.Emit(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
