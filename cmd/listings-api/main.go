package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/secondhandhub/marketplace-backend/api/controllers"
	"github.com/secondhandhub/marketplace-backend/api/routes"
	"github.com/secondhandhub/marketplace-backend/internal/auth"
	"github.com/secondhandhub/marketplace-backend/internal/listings"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/db"
	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	"github.com/secondhandhub/marketplace-backend/pkg/env"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
	"github.com/secondhandhub/marketplace-backend/pkg/redis"
	"github.com/secondhandhub/marketplace-backend/pkg/storage/s3"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "listings-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "listings-api",
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

	if cfg.FeatureFlags.AutoMigrate {
		if err := dbClient.AutoMigrate(&models.Listing{}); err != nil {
			logg.Error(context.Background(), "failed to migrate schema", err)
			os.Exit(1)
		}
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

	s3Client, err := s3.New(context.Background(), cfg.S3)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap s3", err)
		os.Exit(1)
	}

	listingsService, err := listings.NewService(listings.ServiceParams{
		Repo:           listings.NewRepository(dbClient.DB()),
		Uploader:       s3Client,
		Attach:         listings.NewProfileClient(cfg.Services),
		ListingsBucket: cfg.S3.ListingsBucket,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create listings service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting listings api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewListingsRouter(routes.ListingsRouterParams{
			Config:     cfg,
			Logger:     logg,
			Listings:   listingsService,
			Blocklist:  auth.NewRedisBlocklist(redisClient),
			HealthDeps: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "listings api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
