package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/timmy/shopvec/internal/config"
	"github.com/timmy/shopvec/internal/logger"
	"github.com/timmy/shopvec/internal/repository"
	"github.com/timmy/shopvec/internal/service"
	"github.com/timmy/shopvec/internal/storage"
)

func main() {
	envCfg := logger.LoadFromEnv()
	envCfg.ServiceName = "shopvec-split"
	appLogger := logger.NewFromEnv(envCfg)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	input := flag.String("input", "", "Input JSON array file (overrides config)")
	chunkSize := flag.Int("chunk-size", 0, "Items per chunk (0 uses the configured size)")
	publish := flag.Bool("publish", false, "Upload chunk files to object storage after splitting")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	splitCfg := &service.SplitConfig{
		InputFile: cfg.Split.InputFile,
		OutputDir: cfg.Split.OutputDir,
		ChunkSize: cfg.Split.ChunkSize,
		Publish:   *publish,
	}
	if *input != "" {
		splitCfg.InputFile = *input
	}
	if *chunkSize > 0 {
		splitCfg.ChunkSize = *chunkSize
	}

	var store storage.ObjectStorage
	if *publish {
		store, err = storage.NewStorage(&storage.S3Config{
			Type:      storage.StorageType(cfg.Storage.Type),
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			PublicURL: cfg.Storage.PublicURL,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to initialize storage")
		}
	}

	// Run history is bookkeeping; a broken database never blocks the pipeline.
	var runs *repository.RunRepository
	if cfg.Database.Path != "" || cfg.Database.DSN != "" {
		db, err := repository.InitDB(&cfg.Database)
		if err != nil {
			appLogger.WithError(err).Warn("Run history disabled: failed to initialize database")
		} else {
			runs = repository.NewRunRepository(db)
		}
	}

	svc := service.NewSplitService(store, runs, appLogger, splitCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	ctx = logger.SetPipeline(ctx, "split")
	ctx = logger.SetJobID(ctx, uuid.NewString())

	stats, err := svc.Run(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Split failed")
	}
	appLogger.WithFields(logger.Fields{
		"chunks":      stats.Chunks,
		"total_items": stats.TotalItems,
		"output_dir":  splitCfg.OutputDir,
	}).Info("Split finished")
}
