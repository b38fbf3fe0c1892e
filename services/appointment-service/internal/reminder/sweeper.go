package reminder

import (
	"context"
	"log/slog"
	"time"
)

// Booking is the slice of the lifecycle service the sweeper needs.
type Booking interface {
	ReminderSweep(ctx context.Context, lookahead time.Duration) (int, error)
}

// Sweeper periodically asks the lifecycle service to dispatch reminders for
// soon-starting virtual appointments. It runs on its own ticker, independent
// of request traffic, and keeps ticking through sweep failures.
type Sweeper struct {
	svc       Booking
	logger    *slog.Logger
	interval  time.Duration
	lookahead time.Duration
}

type Config struct {
	Interval  time.Duration
	Lookahead time.Duration
}

func NewSweeper(svc Booking, logger *slog.Logger, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 60 * time.Second
	}
	if cfg.Lookahead <= 0 {
		cfg.Lookahead = 30 * time.Minute
	}
	return &Sweeper{
		svc:       svc,
		logger:    logger,
		interval:  cfg.Interval,
		lookahead: cfg.Lookahead,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sent, err := s.svc.ReminderSweep(ctx, s.lookahead)
			if err != nil {
				s.logger.Error("reminder sweep failed", "err", err)
				continue
			}
			if sent > 0 {
				s.logger.Info("reminders dispatched", "count", sent)
			}
		}
	}
}
