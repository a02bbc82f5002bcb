package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/minfaz98/cozy-stay/config"
	"github.com/minfaz98/cozy-stay/internal/bootstrap"
	"github.com/minfaz98/cozy-stay/internal/cache"
	"github.com/minfaz98/cozy-stay/internal/clock"
	"github.com/minfaz98/cozy-stay/internal/kafka"
	"github.com/minfaz98/cozy-stay/internal/notify"
	"github.com/minfaz98/cozy-stay/internal/service/billing"
	"github.com/minfaz98/cozy-stay/internal/service/reservation"
	"github.com/minfaz98/cozy-stay/internal/sweep"
)

const sweepLockTTL = 30 * time.Minute

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

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	defer producer.Close()

	clk := clock.Real{}
	reservationService := reservation.NewService(
		storage.Rooms,
		storage.Reservations,
		clk,
		reservation.Policy{Location: policies.Location, ConfirmationCutoff: policies.ConfirmationCutoff},
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
		billing.WithProducer(producer, cfg.Kafka.ReservationEventsTopic),
		billing.WithLogger(logger),
	)

	sweeper := sweep.NewSweeper(
		storage.Reservations,
		reservationService,
		billingService,
		clk,
		sweep.Policy{Location: policies.Location, ConfirmationCutoff: policies.ConfirmationCutoff},
		sweep.WithReporter(sweep.NewKafkaReporter(producer, cfg.Kafka.ReportingTopic)),
		sweep.WithLocker(redisCache, sweepLockTTL),
		sweep.WithLogger(logger),
	)
	scheduler := sweep.NewScheduler(sweeper, clk, policies.SweepTime, policies.Location, logger)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic)
	defer consumer.Close()
	sender := notify.NewSender(logger)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := consumer.Consume(ctx, notify.Handler(sender)); err != nil {
			logger.Error("notification consumer stopped", "error", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			logger.Error("sweep scheduler stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("received shutdown signal")
	wg.Wait()
	logger.Info("worker stopped")
}
