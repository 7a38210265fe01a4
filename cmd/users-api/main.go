package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/secondhandhub/marketplace-backend/api/controllers"
	"github.com/secondhandhub/marketplace-backend/api/routes"
	"github.com/secondhandhub/marketplace-backend/internal/auth"
	"github.com/secondhandhub/marketplace-backend/internal/profile"
	"github.com/secondhandhub/marketplace-backend/internal/registration"
	"github.com/secondhandhub/marketplace-backend/internal/users"
	"github.com/secondhandhub/marketplace-backend/pkg/config"
	"github.com/secondhandhub/marketplace-backend/pkg/db"
	"github.com/secondhandhub/marketplace-backend/pkg/db/models"
	"github.com/secondhandhub/marketplace-backend/pkg/env"
	"github.com/secondhandhub/marketplace-backend/pkg/logger"
	"github.com/secondhandhub/marketplace-backend/pkg/mail"
	"github.com/secondhandhub/marketplace-backend/pkg/redis"
	"github.com/secondhandhub/marketplace-backend/pkg/storage/s3"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "users-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "users-api",
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
		if err := dbClient.AutoMigrate(&models.User{}); err != nil {
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

	userRepo := users.NewRepository(dbClient.DB())
	blocklist := auth.NewRedisBlocklist(redisClient)

	registrationService, err := registration.NewService(registration.ServiceParams{
		UserRepo:    userRepo,
		Pending:     registration.NewRedisPendingStore(redisClient, cfg.EmailToken.MaxAge),
		Mailer:      mail.NewSMTPMailer(cfg.Mail),
		TokenCfg:    cfg.EmailToken,
		PasswordCfg: cfg.Password,
		PublicURL:   cfg.App.PublicURL,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create registration service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  userRepo,
		Blocklist: blocklist,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	profileService, err := profile.NewService(profile.ServiceParams{
		UserRepo:    userRepo,
		Uploader:    s3Client,
		UsersBucket: cfg.S3.UsersBucket,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create profile service", err)
		os.Exit(1)
	}

	addr := ":" + env.Get("PORT", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting users api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewUsersRouter(routes.UsersRouterParams{
			Config:       cfg,
			Logger:       logg,
			Registration: registrationService,
			Auth:         authService,
			Profile:      profileService,
			Blocklist:    blocklist,
			RateLimits:   redisClient,
			HealthDeps: map[string]controllers.Pinger{
				"database": dbClient,
				"redis":    redisClient,
			},
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "users api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
