package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luvy/luvy-api/internal/config"
	"github.com/luvy/luvy-api/internal/domain/market"
	"github.com/luvy/luvy-api/internal/domain/progression"
	"github.com/luvy/luvy-api/internal/domain/receipt"
	"github.com/luvy/luvy-api/internal/domain/wallet"
	"github.com/luvy/luvy-api/internal/middleware"
	"github.com/luvy/luvy-api/internal/pkg/database"
	"github.com/luvy/luvy-api/internal/pkg/events"
	"github.com/luvy/luvy-api/internal/pkg/jwt"
	"github.com/luvy/luvy-api/internal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting luvy API server")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.RunMigrations {
		if err := database.Migrate(db); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("Redis not available, events and market cache disabled")
		redisClient = nil
	}
	if redisClient != nil {
		defer database.CloseRedis(redisClient)
	}

	publisher := events.NewPublisher(redisClient)
	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// Market
	marketSvc := market.NewService(db, market.NewRepository(db), market.Genesis{
		PoolEur: cfg.MarketGenesisPoolEur,
		Supply:  cfg.MarketGenesisSupply,
	}, market.NewCache(redisClient))

	// Wallet + ledger
	walletSvc := wallet.NewService(db, wallet.NewRepository(db), marketSvc, publisher)

	// Progression
	progressionSvc := progression.NewService(db, progression.NewRepository(db), walletSvc, publisher, progression.ReferralRewards{
		Referrer: cfg.ReferralReferrerReward,
		Referred: cfg.ReferralReferredReward,
	})
	walletSvc.AddDebitObserver(progressionSvc)

	// Receipts
	receiptSvc := receipt.NewService(db, receipt.NewRepository(db), walletSvc, progressionSvc, publisher)

	router := newRouter(cfg, handlers{
		wallet:      wallet.NewHandler(walletSvc),
		receipt:     receipt.NewHandler(receiptSvc),
		market:      market.NewHandler(marketSvc),
		progression: progression.NewHandler(progressionSvc),
	}, middleware.Auth(jwtService))

	var snapshotWorker *market.Worker
	if cfg.MarketSnapshotEnabled {
		snapshotWorker = market.NewWorker(marketSvc, 0)
		snapshotWorker.Start()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if snapshotWorker != nil {
		snapshotWorker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
