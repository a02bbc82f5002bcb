package rooms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minfaz98/cozy-stay/internal/availability"
	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/pricing"
	"github.com/minfaz98/cozy-stay/internal/repository"
)

type UseCase interface {
	List(ctx context.Context) ([]domain.Room, error)
	GetByID(ctx context.Context, id int64) (*domain.Room, error)
	Availability(ctx context.Context, id int64, checkIn, checkOut time.Time) (bool, error)
	Quote(ctx context.Context, id int64, checkIn, checkOut time.Time) (*Quote, error)
}

type Cache interface {
	GetRooms(ctx context.Context) ([]domain.Room, error)
	SetRooms(ctx context.Context, rooms []domain.Room) error
}

// Quote is the undiscounted price of a stay with weekly and monthly tiers
// applied.
type Quote struct {
	RoomID     int64  `json:"room_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Nights     int    `json:"nights"`
	TotalCents int64  `json:"total_amount_cents"`
}

type Service struct {
	repo    repository.RoomRepository
	checker *availability.Checker
	cache   Cache
	logger  *slog.Logger
}

func NewService(repo repository.RoomRepository, reservations repository.ReservationRepository, cache Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		checker: availability.NewChecker(repo, reservations),
		cache:   cache,
		logger:  logger,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Room, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetRooms(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.logger.WarnContext(ctx, "read room cache", "error", err)
		}
	}

	rooms, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetRooms(ctx, rooms); err != nil {
			s.logger.WarnContext(ctx, "fill room cache", "error", err)
		}
	}
	return rooms, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Availability(ctx context.Context, id int64, checkIn, checkOut time.Time) (bool, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return false, err
	}
	return s.checker.IsAvailable(ctx, id, checkIn, checkOut, 0)
}

func (s *Service) Quote(ctx context.Context, id int64, checkIn, checkOut time.Time) (*Quote, error) {
	if err := validRange(checkIn, checkOut); err != nil {
		return nil, err
	}
	room, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Quote{
		RoomID:     room.ID,
		CheckIn:    checkIn.Format(time.DateOnly),
		CheckOut:   checkOut.Format(time.DateOnly),
		Nights:     pricing.Nights(checkIn, checkOut),
		TotalCents: pricing.StayPrice(*room, checkIn, checkOut),
	}, nil
}

func validRange(checkIn, checkOut time.Time) error {
	if checkIn.IsZero() || checkOut.IsZero() {
		return fmt.Errorf("%w: check-in and check-out dates are required", domain.ErrValidation)
	}
	if !checkOut.After(checkIn) {
		return fmt.Errorf("%w: check-out must be after check-in", domain.ErrValidation)
	}
	return nil
}

var _ UseCase = (*Service)(nil)
