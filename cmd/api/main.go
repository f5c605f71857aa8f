package main

// @title Building Discovery Map API
// @version 1.0.0
// @description Интерактивная карта зданий: проекция разнородных пакетов записей в источник карты, поиск зданий рядом с пользователем, клиентская кластеризация и действия из подсказок карты.

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/building-discovery/docs"
	"github.com/building-discovery/internal/config"
	httpDelivery "github.com/building-discovery/internal/delivery/http"
	"github.com/building-discovery/internal/delivery/http/handler"
	"github.com/building-discovery/internal/feature"
	"github.com/building-discovery/internal/infrastructure/storage"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/repository/cache"
	"github.com/building-discovery/internal/repository/postgres"
	redisRepo "github.com/building-discovery/internal/repository/redis"
	"github.com/building-discovery/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Building Discovery Map API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	// 4. Connect to Redis (cache) and Redis Streams
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	streamsClient, err := cache.NewRedisStreams(&cfg.RedisStreams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}

	// 5. Initialize repositories
	pointRepo := postgres.NewPointRepository(db)
	statusRepo := postgres.NewStatusRepository(db)
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)

	cacheRepo, err := cache.NewCacheRepository(redisClient)
	if err != nil {
		log.Fatal("Failed to initialize cache repository", zap.Error(err))
	}

	imageResolver := storage.NewResolver(&cfg.Storage, log)

	log.Info("Repositories initialized")

	// 6. Initialize use cases
	nearbyUC := usecase.NewNearbyUseCase(
		pointRepo,
		statusRepo,
		cacheRepo,
		usecase.NearbyOptionsFromConfig(cfg),
		log,
	)

	mapUC := usecase.NewMapUseCase(
		nearbyUC,
		imageResolver,
		feature.ClusterSettings{
			MaxZoom: cfg.Map.ClusterMaxZoom,
			Radius:  cfg.Map.ClusterRadiusPx,
		},
		log,
	)

	actionUC := usecase.NewActionUseCase(streamRepo, log)

	log.Info("Use cases initialized")

	// 7. Initialize HTTP handlers
	mapHandler := handler.NewMapHandler(mapUC, log)
	actionHandler := handler.NewActionHandler(actionUC, log)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthChecker{
		"postgres": db,
		"redis":    redisClient,
	}, log)

	// 8. Initialize HTTP server
	server := httpDelivery.NewServer(cfg, log, mapHandler, actionHandler, healthHandler)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	if err := db.Close(); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Failed to close Redis", zap.Error(err))
	}

	if err := streamsClient.Close(); err != nil {
		log.Error("Failed to close Redis Streams", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
