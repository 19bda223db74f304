package events

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Notifier publishes order events. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, events ...Event) error
}

// LogNotifier writes every event to a zerolog logger.
type LogNotifier struct {
	logger zerolog.Logger
	level  zerolog.Level
}

// NewLogNotifier logs through the global logger at level.
func NewLogNotifier(level zerolog.Level) *LogNotifier {
	return &LogNotifier{logger: log.Logger, level: level}
}

func (n *LogNotifier) Notify(ctx context.Context, events ...Event) error {
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		body, err := e.Encode()
		if err != nil {
			return err
		}
		n.logger.WithLevel(n.level).
			Str("event", string(e.Type)).
			Str("security", e.Security).
			Str("order", e.Payload.ID).
			RawJSON("body", body).
			Msg("order event")
	}
	return nil
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, events ...Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]Type, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

// Multi forwards to every notifier, returning all their errors joined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, events ...Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, events...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
