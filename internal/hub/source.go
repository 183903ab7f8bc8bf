package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Source is anything that delivers trigger events, e.g. a change stream or a
// Redis channel. Run blocks until ctx is cancelled or the source fails.
type Source interface {
	Name() string
	Run(ctx context.Context, d *Dispatcher) error
}

const (
	minRestartDelay = 500 * time.Millisecond
	maxRestartDelay = 30 * time.Second
)

// RunSource keeps src running until ctx is cancelled, restarting it with
// exponential backoff whenever it fails.
func RunSource(ctx context.Context, src Source, d *Dispatcher, log *zap.SugaredLogger) {
	delay := minRestartDelay
	for {
		started := time.Now()
		err := src.Run(ctx, d)
		if ctx.Err() != nil {
			log.Infow("Trigger source stopped", "source", src.Name())
			return
		}
		if err == nil {
			err = errors.New("source returned without error")
		}
		if time.Since(started) > maxRestartDelay {
			delay = minRestartDelay
		}
		log.Errorw("Trigger source failed, restarting", "source", src.Name(), "delay", delay, "error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
		delay *= 2
		if delay > maxRestartDelay {
			delay = maxRestartDelay
		}
	}
}
