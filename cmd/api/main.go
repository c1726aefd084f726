package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/aydindemir/driftops-backend/api/routes"
	"github.com/aydindemir/driftops-backend/internal/bookings"
	"github.com/aydindemir/driftops-backend/internal/finance"
	"github.com/aydindemir/driftops-backend/internal/locks"
	"github.com/aydindemir/driftops-backend/internal/packages"
	"github.com/aydindemir/driftops-backend/internal/rentals"
	"github.com/aydindemir/driftops-backend/internal/transactions"
	"github.com/aydindemir/driftops-backend/internal/wallet"
	"github.com/aydindemir/driftops-backend/pkg/config"
	"github.com/aydindemir/driftops-backend/pkg/db"
	"github.com/aydindemir/driftops-backend/pkg/logger"
	"github.com/aydindemir/driftops-backend/pkg/migrate"
	"github.com/aydindemir/driftops-backend/pkg/outbox"
	"github.com/aydindemir/driftops-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	conn := dbClient.DB()
	events := outbox.NewService(outbox.NewRepository(conn), logg)

	transactionRepo := transactions.NewRepository(conn)
	bookingRepo := bookings.NewRepository(conn)
	packageRepo := packages.NewRepository(conn)
	rentalRepo := rentals.NewRepository(conn)
	walletRepo := wallet.NewRepository(conn)

	walletService, err := wallet.NewService(walletRepo, events, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	inspector, err := transactions.NewInspector(transactionRepo, bookingRepo, packageRepo, rentalRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create dependency inspector", err)
		os.Exit(1)
	}

	locker, err := locks.NewCustomerLocker(redisClient, cfg.Cascade.CustomerLockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create customer locker", err)
		os.Exit(1)
	}

	coordinator, err := transactions.NewCoordinator(
		dbClient, transactionRepo, inspector,
		bookingRepo, packageRepo, rentalRepo,
		walletRepo, walletService, locker, events, logg,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create deletion coordinator", err)
		os.Exit(1)
	}

	financeService, err := finance.NewService(finance.NewRepository(conn), finance.NewEstimator(cfg.Finance), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create finance service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, financeService, coordinator, transactionRepo, walletService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
