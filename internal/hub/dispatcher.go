// Package hub receives trigger events from the configured sources and routes
// each one to the handler registered for its kind.
package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownKind is returned for events no handler is registered for.
var ErrUnknownKind = errors.New("unknown trigger kind")

// HandlerFunc processes one event. A returned error marks the event for
// redelivery.
type HandlerFunc func(ctx context.Context, ev Event) error

// Deduper suppresses repeated deliveries of the same event.
type Deduper interface {
	SeenOnce(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Dispatcher routes events to handlers, at most maxInflight at a time.
type Dispatcher struct {
	handlers map[Kind]HandlerFunc
	dedup    Deduper
	dedupTTL time.Duration
	sem      chan struct{}
	wg       sync.WaitGroup
	Log      *zap.SugaredLogger
}

// NewDispatcher creates a dispatcher with no handlers.
func NewDispatcher(maxInflight int, log *zap.SugaredLogger) *Dispatcher {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	return &Dispatcher{
		handlers: make(map[Kind]HandlerFunc),
		sem:      make(chan struct{}, maxInflight),
		Log:      log,
	}
}

// SetDeduper enables duplicate suppression for events that carry an ID.
func (d *Dispatcher) SetDeduper(dd Deduper, ttl time.Duration) {
	d.dedup = dd
	d.dedupTTL = ttl
}

// Register binds h to kind, replacing any previous handler.
// Handlers must be registered before events start flowing.
func (d *Dispatcher) Register(kind Kind, h HandlerFunc) {
	d.handlers[kind] = h
}

// Handles reports whether a handler is registered for kind.
func (d *Dispatcher) Handles(kind Kind) bool {
	_, ok := d.handlers[kind]
	return ok
}

// Handle runs the event's handler on the calling goroutine.
func (d *Dispatcher) Handle(ctx context.Context, ev Event) error {
	h, ok := d.handlers[ev.Kind]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKind, ev.Kind)
	}

	key := ev.dedupKey()
	if d.dedup != nil && key != "" {
		first, err := d.dedup.SeenOnce(ctx, key, d.dedupTTL)
		if err != nil {
			// Processing twice is better than dropping the event.
			d.Log.Warnw("Dedup check failed", "event_id", ev.ID, "kind", ev.Kind, "error", err)
		} else if !first {
			d.Log.Debugw("Duplicate event skipped", "event_id", ev.ID, "kind", ev.Kind)
			return nil
		}
	}

	err := d.run(ctx, h, ev)
	if err != nil {
		d.Log.Errorw("Trigger handler failed", "event_id", ev.ID, "kind", ev.Kind, "error", err)
		if d.dedup != nil && key != "" {
			if ferr := d.dedup.Forget(ctx, key); ferr != nil {
				d.Log.Warnw("Failed to release dedup key", "event_id", ev.ID, "error", ferr)
			}
		}
	}
	return err
}

func (d *Dispatcher) run(ctx context.Context, h HandlerFunc, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, ev)
}

// Go handles ev on its own goroutine once a slot is free. It blocks while
// maxInflight handlers are running and gives up if ctx is cancelled first.
// A started handler is not cancelled with ctx; use Wait to drain.
func (d *Dispatcher) Go(ctx context.Context, ev Event) {
	select {
	case d.sem <- struct{}{}:
	case <-ctx.Done():
		d.Log.Warnw("Event dropped on shutdown", "event_id", ev.ID, "kind", ev.Kind)
		return
	}
	d.wg.Add(1)
	go func() {
		defer func() {
			<-d.sem
			d.wg.Done()
		}()
		_ = d.Handle(context.WithoutCancel(ctx), ev)
	}()
}

// Wait blocks until every handler started by Go has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
