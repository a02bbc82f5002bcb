// Package sweep runs the once-a-day maintenance pass: expiring card-less
// holds, billing no-shows and requesting a reporting snapshot.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/repository"
)

// ErrAlreadyRunning is returned when a previous run has not finished yet,
// here or on another worker holding the shared sweep lock.
var ErrAlreadyRunning = errors.New("sweep already running")

type Expirer interface {
	ExpirePending(ctx context.Context, id int64) (*domain.Reservation, error)
}

type NoShowBiller interface {
	BillNoShow(ctx context.Context, id int64) (*domain.Reservation, error)
}

type Reporter interface {
	Report(ctx context.Context, result Result) error
}

type Locker interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (token string, ok bool, err error)
	ReleaseSweepLock(ctx context.Context, token string) error
}

type Policy struct {
	Location           *time.Location
	ConfirmationCutoff clock.Daily
}

// Result summarizes one run. Skipped counts candidates that another request
// had already moved on by the time the sweep reached them.
type Result struct {
	Day        time.Time
	Cancelled  []int64
	NoShows    []int64
	Skipped    int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

type Sweeper struct {
	reservations repository.ReservationRepository
	expirer      Expirer
	biller       NoShowBiller
	clock        clock.Clock
	policy       Policy
	reporter     Reporter
	locker       Locker
	lockTTL      time.Duration
	logger       *slog.Logger

	running sync.Mutex
}

type Option func(*Sweeper)

func WithReporter(reporter Reporter) Option {
	return func(s *Sweeper) {
		s.reporter = reporter
	}
}

// WithLocker shares the not-running-twice guarantee across worker processes.
func WithLocker(locker Locker, ttl time.Duration) Option {
	return func(s *Sweeper) {
		s.locker = locker
		s.lockTTL = ttl
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

func NewSweeper(
	reservations repository.ReservationRepository,
	expirer Expirer,
	biller NoShowBiller,
	clk clock.Clock,
	policy Policy,
	opts ...Option,
) *Sweeper {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	s := &Sweeper{
		reservations: reservations,
		expirer:      expirer,
		biller:       biller,
		clock:        clk,
		policy:       policy,
		lockTTL:      10 * time.Minute,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one sweep. Each candidate is handled on its own; a failure is
// logged and counted without stopping the rest. The returned error reports
// listing or reporting failures, never per-candidate ones.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	if !s.running.TryLock() {
		return nil, ErrAlreadyRunning
	}
	defer s.running.Unlock()

	if s.locker != nil {
		token, ok, err := s.locker.AcquireSweepLock(ctx, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire sweep lock: %w", err)
		}
		if !ok {
			return nil, ErrAlreadyRunning
		}
		defer func() {
			if err := s.locker.ReleaseSweepLock(ctx, token); err != nil {
				s.logger.WarnContext(ctx, "release sweep lock", "error", err)
			}
		}()
	}

	now := s.clock.Now()
	result := &Result{
		Day:       clock.CivilDate(now, s.policy.Location),
		StartedAt: now,
	}
	log := s.logger.With("day", result.Day.Format(time.DateOnly))

	var errs []error
	if err := s.expirePending(ctx, log, now, result); err != nil {
		errs = append(errs, err)
	}
	if err := s.billNoShows(ctx, log, result); err != nil {
		errs = append(errs, err)
	}
	result.FinishedAt = s.clock.Now()

	if s.reporter != nil {
		if err := s.reporter.Report(ctx, *result); err != nil {
			log.ErrorContext(ctx, "request daily snapshot", "error", err)
			errs = append(errs, fmt.Errorf("report: %w", err))
		}
	}

	log.InfoContext(ctx, "daily sweep finished",
		"cancelled", len(result.Cancelled), "no_shows", len(result.NoShows),
		"skipped", result.Skipped, "failed", result.Failed)
	return result, errors.Join(errs...)
}

func (s *Sweeper) expirePending(ctx context.Context, log *slog.Logger, now time.Time, result *Result) error {
	cutoff := s.policy.ConfirmationCutoff.Last(now, s.policy.Location)
	candidates, err := s.reservations.ListPendingWithoutCard(ctx, cutoff)
	if err != nil {
		log.ErrorContext(ctx, "list pending reservations", "error", err)
		return fmt.Errorf("list pending: %w", err)
	}

	for _, r := range candidates {
		_, err := s.expirer.ExpirePending(ctx, r.ID)
		switch {
		case err == nil:
			result.Cancelled = append(result.Cancelled, r.ID)
		case errors.Is(err, domain.ErrInvalidStateTransition):
			result.Skipped++
		default:
			result.Failed++
			log.ErrorContext(ctx, "expire pending reservation", "reservation_id", r.ID, "error", err)
		}
	}
	return nil
}

func (s *Sweeper) billNoShows(ctx context.Context, log *slog.Logger, result *Result) error {
	candidates, err := s.reservations.ListOverdueConfirmed(ctx, result.Day)
	if err != nil {
		log.ErrorContext(ctx, "list overdue reservations", "error", err)
		return fmt.Errorf("list overdue: %w", err)
	}

	for _, r := range candidates {
		_, err := s.biller.BillNoShow(ctx, r.ID)
		switch {
		case err == nil:
			result.NoShows = append(result.NoShows, r.ID)
		case errors.Is(err, domain.ErrInvalidStateTransition):
			result.Skipped++
		default:
			result.Failed++
			log.ErrorContext(ctx, "bill no-show", "reservation_id", r.ID, "error", err)
		}
	}
	return nil
}
