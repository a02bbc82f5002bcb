package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minfaz98/cozy-stay/api"
	"github.com/minfaz98/cozy-stay/config"
	"github.com/minfaz98/cozy-stay/internal/bootstrap"
	"github.com/minfaz98/cozy-stay/internal/cache"
	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/kafka"
	"github.com/minfaz98/cozy-stay/internal/service/billing"
	"github.com/minfaz98/cozy-stay/internal/service/reservation"
	"github.com/minfaz98/cozy-stay/internal/service/rooms"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg.Log)

	policies, err := bootstrap.LoadPolicies(cfg)
	if err != nil {
		logger.Error("load hotel policies", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer storage.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.RoomsCacheTTLSeconds)*time.Second)
	defer redisCache.Close()
	if err := redisCache.Ping(ctx); err != nil {
		logger.Error("connect redis", "error", err)
		os.Exit(1)
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()
	if err := producer.CheckConnection(ctx); err != nil {
		logger.Warn("kafka unreachable; events will be dropped until it recovers", "error", err)
	}

	clk := clock.Real{}
	reservationService := reservation.NewService(
		storage.Rooms,
		storage.Reservations,
		clk,
		reservation.Policy{Location: policies.Location, ConfirmationCutoff: policies.ConfirmationCutoff},
		reservation.WithLocker(redisCache,
			time.Duration(cfg.Booking.RoomLockTTLSeconds)*time.Second,
			time.Duration(cfg.Booking.RoomLockWaitMillis)*time.Millisecond),
		reservation.WithRoomCache(redisCache),
		reservation.WithProducer(producer, cfg.Kafka.ReservationEventsTopic),
		reservation.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		reservation.WithLogger(logger),
	)
	billingService := billing.NewService(
		storage.Reservations,
		storage.Rooms,
		storage.Billing,
		storage.Charges,
		clk,
		billing.Policy{Location: policies.Location, CheckoutTime: policies.CheckoutTime},
		billing.WithRoomCache(redisCache),
		billing.WithProducer(producer, cfg.Kafka.ReservationEventsTopic),
		billing.WithLogger(logger),
	)
	roomService := rooms.NewService(storage.Rooms, storage.Reservations, redisCache, logger)

	handlers := api.Handlers{
		Reservations: api.NewReservationHandler(reservationService),
		Billing:      api.NewBillingHandler(billingService),
		Rooms:        api.NewRoomHandler(roomService),
	}
	if err := bootstrap.Run(ctx, cfg.HTTP, handlers, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
