package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/config"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/db"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/jobstore"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/logger"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/queue"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/storage"
	"github.com/JACKSON-PHARM/pharmasight-sub001/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	log.Info().Str("version", cfg.App.Version).Msg("Starting import worker")

	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	repo := db.NewRepository(database)

	redisClient, err := queue.NewRedisClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	store := jobstore.NewRedisStore(redisClient.Client(), cfg)

	fileStorage, err := storage.NewS3Storage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	importWorker := worker.NewImportWorker(cfg, repo, store, fileStorage, redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	if err := importWorker.Start(ctx); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Import worker stopped with error")
	}

	importWorker.Stop()
	log.Info().Msg("Import worker exited")
}
