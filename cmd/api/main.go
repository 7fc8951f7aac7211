package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/server"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/validation"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := validation.RegisterGin(); err != nil {
		logging.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx := context.Background()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if err := database.RunMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Redis backs the token denylist and rate limiting; both are off without it
	var redisClient *redis.Client
	var denylist service.TokenDenylist
	var createLimit gin.HandlerFunc
	if cfg.RedisEnabled() {
		redisClient, err = database.NewRedisClient(ctx, cfg)
		if err != nil {
			logging.Warn().Err(err).Msg("redis unavailable, continuing without token revocation and rate limiting")
		} else {
			defer redisClient.Close()
			denylist = service.NewRedisTokenDenylist(redisClient)
			createLimit = middleware.NewRecipeCreationRateLimiter(redisClient, cfg.RecipeCreateLimit, cfg.RecipeCreateWindow).RateLimitMiddleware()
		}
	}

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize image storage")
	}

	enforcer, err := authz.NewEnforcer()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize authorization")
	}

	srv := server.New(cfg, api.Deps{
		DB:                db,
		Redis:             redisClient,
		Auth:              service.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL, denylist),
		Images:            images,
		Enforcer:          enforcer,
		RecipeCreateLimit: createLimit,
	})

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logging.Error().Err(err).Msg("server error")
		}
	case sig := <-quit:
		logging.Info().Str("signal", sig.String()).Msg("received signal")
	}

	logging.Info().Msg("shutting down server")
	if err := srv.Shutdown(context.Background()); err != nil {
		logging.Error().Err(err).Msg("server shutdown error")
	}
	logging.Info().Msg("server stopped")
}

func newImageStore(ctx context.Context, cfg *config.Config) (storage.ImageStore, error) {
	if cfg.StorageDriver == "s3" {
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return storage.NewS3Store(s3cfg, cfg.S3Region, cfg.S3Endpoint), nil
	}
	return storage.NewDiskStore(cfg.MediaDir, cfg.MediaURL)
}
