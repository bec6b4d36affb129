package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/timmy/shopvec/internal/config"
	"github.com/timmy/shopvec/internal/hub"
	"github.com/timmy/shopvec/internal/logger"
	"github.com/timmy/shopvec/internal/repository"
	"github.com/timmy/shopvec/internal/service"
)

func main() {
	envCfg := logger.LoadFromEnv()
	envCfg.ServiceName = "shopvec-convert"
	appLogger := logger.NewFromEnv(envCfg)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	limit := flag.Int("limit", 0, "Maximum number of records to export (0 uses the configured cap)")
	output := flag.String("output", "", "Output file path (overrides config)")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	convertCfg := &service.ConvertConfig{
		RepoID:          cfg.Hub.RepoID,
		FeaturesFile:    cfg.Hub.FeaturesFile,
		ImagesFile:      cfg.Hub.ImagesFile,
		JoinColumn:      cfg.Convert.JoinColumn,
		EmbeddingColumn: cfg.Convert.EmbeddingColumn,
		ImageColumn:     cfg.Convert.ImageColumn,
		MaxItems:        cfg.Convert.MaxItems,
		OutputFile:      cfg.Convert.OutputFile,
	}
	if *limit > 0 {
		convertCfg.MaxItems = *limit
	}
	if *output != "" {
		convertCfg.OutputFile = *output
	}

	hubClient := hub.NewClient(&hub.Config{
		Endpoint: cfg.Hub.Endpoint,
		CacheDir: cfg.Hub.CacheDir,
		Token:    cfg.Hub.Token,
	})

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

	svc := service.NewConvertService(hubClient, runs, appLogger, convertCfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	ctx = logger.SetPipeline(ctx, "convert")
	ctx = logger.SetJobID(ctx, uuid.NewString())

	stats, err := svc.Run(ctx)
	if err != nil {
		appLogger.WithError(err).Fatal("Conversion failed")
	}
	appLogger.WithFields(logger.Fields{
		"records": stats.OutputRecords,
		"skipped": stats.SkippedRecords,
		"dropped": stats.DroppedRows,
		"output":  convertCfg.OutputFile,
	}).Info("Conversion finished")
}
