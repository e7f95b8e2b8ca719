package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/five82/parley/internal/bus"
	"github.com/five82/parley/internal/control"
)

func TestRunTicker_PublishesTicks(t *testing.T) {
	events := bus.New[control.Event]()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunTicker(ctx, events, time.Millisecond, nil) }()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	for i := 0; i < 3; i++ {
		ev, err := events.Next(waitCtx)
		if err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		if _, ok := ev.(control.Tick); !ok {
			t.Fatalf("event %d = %T, want control.Tick", i, ev)
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("RunTicker returned %v after cancel", err)
	}
}

func TestRunTicker_StopsWhenBusCloses(t *testing.T) {
	events := bus.New[control.Event]()
	events.Close()

	err := RunTicker(context.Background(), events, time.Millisecond, nil)
	if !errors.Is(err, bus.ErrClosed) {
		t.Fatalf("RunTicker = %v, want bus.ErrClosed", err)
	}
}
