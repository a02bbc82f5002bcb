package sweep

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/minfaz98/cozy-stay/internal/clock"
)

type Runner interface {
	Run(ctx context.Context) (*Result, error)
}

// Scheduler fires a Runner once a day at a fixed wall-clock time. Runs are
// strictly sequential: the next wait starts only after the previous run
// returns.
type Scheduler struct {
	runner   Runner
	clock    clock.Clock
	at       clock.Daily
	location *time.Location
	logger   *slog.Logger
}

func NewScheduler(runner Runner, clk clock.Clock, at clock.Daily, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{runner: runner, clock: clk, at: at, location: loc, logger: logger}
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	for {
		now := s.clock.Now()
		next := s.at.Next(now, s.location)
		s.logger.InfoContext(ctx, "next daily sweep scheduled", "at", next)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
		}

		if _, err := s.runner.Run(ctx); err != nil {
			if errors.Is(err, ErrAlreadyRunning) {
				s.logger.WarnContext(ctx, "daily sweep skipped", "error", err)
				continue
			}
			s.logger.ErrorContext(ctx, "daily sweep", "error", err)
		}
	}
}
