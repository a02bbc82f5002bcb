package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/minfaz98/cozy-stay/config"
	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/domain"
	"github.com/minfaz98/cozy-stay/internal/repository"
	"github.com/minfaz98/cozy-stay/internal/repository/memory"
	"github.com/minfaz98/cozy-stay/migrations"
)

// NewLogger returns a JSON slog logger at the configured level and installs
// it as the default.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// Storage bundles the repositories of whichever backend is configured.
type Storage struct {
	Rooms        repository.RoomRepository
	Reservations repository.ReservationRepository
	Billing      repository.BillingRepository
	Charges      repository.ChargeRepository

	close func()
}

func (s *Storage) Close() {
	if s.close != nil {
		s.close()
	}
}

func OpenStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Storage, error) {
	if cfg.Storage.Driver == config.StorageDriverMemory {
		store := memory.NewStore()
		for _, room := range CatalogRooms() {
			store.AddRoom(room)
		}
		logger.Warn("using in-memory storage; data is lost on exit")
		return &Storage{
			Rooms:        store.Rooms(),
			Reservations: store.Reservations(),
			Billing:      store.Billing(),
			Charges:      store.Charges(),
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	logger.Info("database connection established")

	if cfg.Storage.Migrate {
		if err := Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
	}

	return &Storage{
		Rooms:        repository.NewRoomRepository(pool),
		Reservations: repository.NewReservationRepository(pool),
		Billing:      repository.NewBillingRepository(pool),
		Charges:      repository.NewChargeRepository(pool),
		close:        pool.Close,
	}, nil
}

// Migrate applies every pending embedded migration.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	// db borrows connections from pool; pool.Close releases them
	db := stdlib.OpenDBFromPool(pool)

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("create goose provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}

// CatalogRooms is the room inventory the memory backend starts with. It
// mirrors the seed migration.
func CatalogRooms() []domain.Room {
	rate := func(cents int64) *int64 { return &cents }
	return []domain.Room{
		{Number: "101", Type: domain.RoomTypeSingle, PriceCents: 8000, WeeklyRateCents: rate(48000), MonthlyRateCents: rate(180000), Capacity: 1},
		{Number: "102", Type: domain.RoomTypeSingle, PriceCents: 8000, WeeklyRateCents: rate(48000), MonthlyRateCents: rate(180000), Capacity: 1},
		{Number: "201", Type: domain.RoomTypeDouble, PriceCents: 12000, WeeklyRateCents: rate(72000), MonthlyRateCents: rate(270000), Capacity: 2},
		{Number: "202", Type: domain.RoomTypeDouble, PriceCents: 12000, WeeklyRateCents: rate(72000), MonthlyRateCents: rate(270000), Capacity: 2},
		{Number: "203", Type: domain.RoomTypeDouble, PriceCents: 12000, WeeklyRateCents: rate(72000), MonthlyRateCents: rate(270000), Capacity: 2},
		{Number: "301", Type: domain.RoomTypeFamily, PriceCents: 18000, WeeklyRateCents: rate(108000), Capacity: 4},
		{Number: "302", Type: domain.RoomTypeFamily, PriceCents: 18000, WeeklyRateCents: rate(108000), Capacity: 4},
		{Number: "401", Type: domain.RoomTypeDeluxe, PriceCents: 25000, WeeklyRateCents: rate(150000), Capacity: 2},
		{Number: "501", Type: domain.RoomTypeSuite, PriceCents: 40000, Capacity: 4},
	}
}

// Policies parses the hotel's wall-clock settings once at start-up.
type Policies struct {
	Location           *time.Location
	ConfirmationCutoff clock.Daily
	CheckoutTime       clock.Daily
	SweepTime          clock.Daily
}

func LoadPolicies(cfg *config.Config) (Policies, error) {
	loc, err := cfg.Hotel.Location()
	if err != nil {
		return Policies{}, fmt.Errorf("hotel timezone: %w", err)
	}
	cutoff, err := clock.ParseDaily(cfg.Hotel.ConfirmationCutoff)
	if err != nil {
		return Policies{}, fmt.Errorf("confirmation cutoff: %w", err)
	}
	checkout, err := clock.ParseDaily(cfg.Hotel.CheckoutTime)
	if err != nil {
		return Policies{}, fmt.Errorf("checkout time: %w", err)
	}
	sweep, err := clock.ParseDaily(cfg.Worker.SweepTime)
	if err != nil {
		return Policies{}, fmt.Errorf("sweep time: %w", err)
	}
	return Policies{Location: loc, ConfirmationCutoff: cutoff, CheckoutTime: checkout, SweepTime: sweep}, nil
}
