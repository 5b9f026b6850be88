// Package main is the entry point for the Top 5 API server.
package main

import (
	"context"
	"time"

	"github.com/tiaocarreiro/top5/internal/config"
	"github.com/tiaocarreiro/top5/internal/data"
	"github.com/tiaocarreiro/top5/internal/http/handler"
	"github.com/tiaocarreiro/top5/internal/http/router"
	"github.com/tiaocarreiro/top5/internal/provider/youtube"
	"github.com/tiaocarreiro/top5/internal/repository/cached"
	"github.com/tiaocarreiro/top5/internal/repository/postgres"
	"github.com/tiaocarreiro/top5/internal/service"
	"github.com/tiaocarreiro/top5/pkg/logger"
)

func main() {
	ctx := context.Background()
	logger.InitLogging()
	config.InitConf()

	pool, err := data.NewPostgresPool(ctx)
	if err != nil {
		logger.Fatal(ctx, "failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	musicRepo := postgres.NewMusicRepository(pool)
	if err := musicRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal(ctx, "failed to ensure music schema: %v", err)
	}
	userRepo := postgres.NewUserRepository(pool)
	if err := userRepo.EnsureSchema(ctx); err != nil {
		logger.Fatal(ctx, "failed to ensure user schema: %v", err)
	}

	redisClient := data.NewRedisClient()
	ttl := time.Duration(config.Conf.CacheTTLSeconds) * time.Second
	repo := cached.NewMusicRepository(musicRepo, redisClient, ttl)

	svc := service.NewService(repo, youtube.NewProvider(nil), service.RealClock{},
		service.WithUserRepository(userRepo))

	engine := router.New(
		handler.NewMusicHandler(svc),
		handler.NewAdminHandler(svc),
		handler.NewHealthHandler(pool, redisClient),
		router.Config{
			AdminToken:       config.Conf.AdminToken,
			SuggestRateLimit: config.Conf.SuggestRateLimit,
			RateLimitClient:  redisClient,
		},
	)

	port := config.Conf.Port
	if port == "" {
		logger.Info(ctx, "no port configured, falling back to default: 8080")
		port = "8080"
	}
	if err := engine.Run(":" + port); err != nil {
		logger.Fatal(ctx, "failed to start server: %v", err)
	}
}
