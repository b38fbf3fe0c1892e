package reminder

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

type countingBooking struct {
	calls atomic.Int64
	err   error
}

func (c *countingBooking) ReminderSweep(context.Context, time.Duration) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestSweeper_TicksUntilCanceled(t *testing.T) {
	svc := &countingBooking{}
	s := NewSweeper(svc, slog.Default(), Config{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for svc.calls.Load() < 3 {
		select {
		case <-deadline:
			t.Fatal("sweeper did not tick in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestSweeper_KeepsRunningAfterError(t *testing.T) {
	svc := &countingBooking{err: errors.New("db down")}
	s := NewSweeper(svc, slog.Default(), Config{Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for svc.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("sweeper stopped after an error")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
