package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coursepay/internal/adminlog"
	"coursepay/internal/catalog"
	"coursepay/internal/config"
	"coursepay/internal/db"
	"coursepay/internal/deposit"
	"coursepay/internal/events"
	"coursepay/internal/logger"
	"coursepay/internal/notify"
	"coursepay/internal/pawapay"
	"coursepay/internal/payout"
	"coursepay/internal/purchase"
	"coursepay/internal/scheduler"
	"coursepay/internal/server"
	"coursepay/internal/telemetry"
	"coursepay/internal/user"
	"coursepay/internal/video"
	"coursepay/internal/wallet"

	"github.com/redis/go-redis/v9"
)

// @title Coursepay API
// @version 1.0
// @description Payments, payouts and access grants for the course marketplace.
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	logger.Init()
	logger.Info("Starting coursepay")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.Init(ctx, "coursepay", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatalf("Failed to init tracing: %v", err)
	}

	logger.Info("Connecting to database...")
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, "migrations"); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	publisher, err := events.New(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	adminEvents := adminlog.NewStore(database)
	users := user.NewRepository(database)
	items := catalog.NewRepository(database)
	wallets := wallet.NewRepository(database)
	purchases := purchase.NewRepository(database)
	pawa := pawapay.NewClient(cfg.PawaPayBaseURL, cfg.PawaPayAPIToken)

	notifier := notify.New(rdb, notify.NewFCMClient(cfg.FCMBaseURL, cfg.FCMServerKey), users, adminEvents)
	defer notifier.Close()
	go notifier.Start(ctx)

	grants := purchase.NewGrantService(database, purchases, wallets, cfg.TeacherShare, publisher, notifier, adminEvents)

	deposits := deposit.NewService(pawa, items, purchases, grants, adminEvents, deposit.Config{
		MaxAmount:    cfg.DepositMax,
		Country:      cfg.PawaPayCountry,
		PollInterval: cfg.PollInterval,
		PollAttempts: cfg.PollMaxAttempts,
	})

	payouts := payout.NewService(database, payout.NewRepository(database), wallets, pawa, publisher, adminEvents, payout.Config{
		Min:          cfg.PayoutMin,
		Max:          cfg.PayoutMax,
		PhoneRule:    cfg.PhoneRules[cfg.PawaPayCountry],
		UnknownAfter: cfg.PayoutUnknownAfter,
	})

	videos := video.NewService(
		video.NewClient(cfg.BunnyBaseURL, cfg.BunnyLibraryID, cfg.BunnyAPIKey, cfg.BunnyTokenKey),
		items, purchases, adminEvents,
	)

	var limiter server.Limiter
	if cfg.RateLimitBackend == "redis" {
		limiter = server.NewRedisLimiter(rdb, cfg.RateLimitRPS, cfg.RateLimitBurst)
	} else {
		limiter = server.NewMemoryLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	}

	srv := server.New(cfg, server.Handlers{
		Deposits:    deposit.NewHandler(deposits),
		Purchases:   purchase.NewHandler(grants, cfg.AutoCreditBatchSize),
		Payouts:     payout.NewHandler(payouts),
		Wallets:     wallet.NewHandler(wallets),
		Notify:      notify.NewHandler(notifier),
		Videos:      video.NewHandler(videos),
		Users:       user.NewHandler(users),
		AdminEvents: adminlog.NewHandler(adminEvents),
	}, limiter)

	sched := scheduler.New(logger.L())
	jobs := []scheduler.Job{
		{
			Name:     "auto-credit",
			Schedule: cfg.AutoCreditSchedule,
			Run: func(ctx context.Context) error {
				_, err := grants.AutoCredit(ctx, cfg.AutoCreditBatchSize)
				return err
			},
		},
		{
			Name:     "pending-deposits",
			Schedule: cfg.PendingDepositSchedule,
			Run: func(ctx context.Context) error {
				age := time.Duration(cfg.PendingDepositAgeMinutes) * time.Minute
				_, err := deposits.ReconcilePending(ctx, age, cfg.AutoCreditBatchSize)
				return err
			},
		},
		{
			Name:     "payout-reconcile",
			Schedule: cfg.PayoutReconcileSchedule,
			Run: func(ctx context.Context) error {
				_, err := payouts.Reconcile(ctx, cfg.AutoCreditBatchSize)
				return err
			},
		},
		{
			Name:     "notification-queue",
			Schedule: "@every 1m",
			Run: func(ctx context.Context) error {
				notifier.QueueLength(ctx)
				return nil
			},
		},
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			logger.Fatalf("Failed to schedule jobs: %v", err)
		}
	}
	sched.Start()

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Infof("Server starting on port %s", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Infof("Received signal: %v", sig)
	case err := <-serverErrChan:
		logger.Errorf("Server error: %v", err)
	}

	logger.Info("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Error during server shutdown: %v", err)
	}
	sched.Stop(shutdownCtx)
	cancel()

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Errorf("Error flushing traces: %v", err)
	}

	logger.Info("Server stopped")
}
