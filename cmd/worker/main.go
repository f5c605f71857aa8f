package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/building-discovery/internal/config"
	"github.com/building-discovery/internal/pkg/logger"
	"github.com/building-discovery/internal/repository/cache"
	"github.com/building-discovery/internal/repository/postgres"
	redisRepo "github.com/building-discovery/internal/repository/redis"
	"github.com/building-discovery/internal/worker"
	"github.com/building-discovery/internal/worker/action"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Map Action Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis (cache) and Redis Streams
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	streamsClient, err := cache.NewRedisStreams(&cfg.RedisStreams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamsClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	actionRepo := postgres.NewActionRepository(db)
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)
	cacheRepo, err := cache.NewCacheRepository(redisClient)
	if err != nil {
		log.Fatal("Failed to initialize cache repository", zap.Error(err))
	}

	// 6. Initialize workers
	actionWorker := action.NewWorker(
		streamRepo,
		actionRepo,
		cacheRepo,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	)

	// 7. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(log, cfg.Worker.ShutdownTimeout)
	workerManager.Register(actionWorker)

	// 8. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker stopped")
}
