package app

import (
	"context"
	"time"

	"github.com/five82/parley/internal/control"
)

const defaultTickInterval = 100 * time.Millisecond

// RunTicker publishes a Tick every interval until ctx is cancelled or the
// bus refuses an event.
func RunTicker(ctx context.Context, events interface{ Publish(control.Event) error }, interval time.Duration, now func() time.Time) error {
	if interval <= 0 {
		interval = defaultTickInterval
	}
	if now == nil {
		now = time.Now
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := events.Publish(control.Tick{At: now()}); err != nil {
				return err
			}
		}
	}
}
