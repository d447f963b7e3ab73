package cmd

import (
	"context"
	"fmt"
	"time"

	"fairdice/api"
	"fairdice/config"
	"fairdice/database"
	"fairdice/events"
	"fairdice/infrastructure"
	"fairdice/infrastructure/observability"
	"fairdice/repository"
	"fairdice/service"

	log "github.com/sirupsen/logrus"
)

const eventStreamName = "fairdice_events"

// Run initializes and starts the application
func Run(ctx context.Context) error {
	cfg := config.Get()

	if err := ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	log.WithField("environment", cfg.Environment).Info("Starting fairdice")

	db, err := database.NewConnection(ctx, cfg.GetDatabaseURL())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	eventBus := events.NewBus()

	if cfg.NATSEnabled() {
		natsClient := infrastructure.NewNATSClient(cfg.NATSServers)
		if err := natsClient.Connect(ctx); err != nil {
			return err
		}
		defer natsClient.Close()

		mapper := infrastructure.NewEventSubjectMapper(cfg.NATSSubjectPrefix)
		if err := natsClient.EnsureStream(eventStreamName, mapper.StreamSubjects()); err != nil {
			log.WithError(err).Warn("Failed to ensure event stream; events are dropped until it exists")
		}
		infrastructure.NewEventForwarder(natsClient, mapper).Attach(eventBus)
	} else {
		log.Info("NATS_SERVERS not set, event export disabled")
	}

	var locker service.AccountLocker = service.NewLocalAccountLocker()
	if cfg.RedisEnabled() {
		redisClient, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		locker = service.ChainLockers(locker, infrastructure.NewRedisAccountLocker(redisClient, cfg.AccountLockTTL))
	}

	metrics := observability.NewMetricsProvider(cfg)
	if err := metrics.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Failed to shut down metrics")
		}
	}()

	retry := service.RetryPolicy{
		MaxAttempts:  cfg.SettleMaxAttempts,
		BaseDelay:    cfg.SettleRetryBaseDelay,
		StoreTimeout: cfg.StoreTimeout,
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, eventBus)
	seeds := service.NewSeedManager(uowFactory, locker, retry, metrics)
	services := api.Services{
		Accounts:     service.NewAccountService(uowFactory, cfg.StartingBalance, retry),
		Games:        service.NewGameService(uowFactory, retry),
		Wagers:       service.NewWagerEngine(uowFactory, seeds, locker, retry, metrics),
		Seeds:        seeds,
		Verification: service.NewVerificationService(uowFactory, retry),
	}

	server := api.NewServer(cfg.HTTPAddr, []byte(cfg.JWTSecret), services)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down fairdice")
	case err := <-serverErr:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Error during HTTP shutdown")
	}

	log.Info("Shutdown completed")
	return nil
}
