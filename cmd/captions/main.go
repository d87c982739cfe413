package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/calebms/vidshift/internal/config"
	"github.com/calebms/vidshift/internal/ledger"
	"github.com/calebms/vidshift/internal/logger"
	"github.com/calebms/vidshift/internal/platform"
	"github.com/calebms/vidshift/internal/service"
)

func main() {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "vidshift-captions",
	})
	logger.SetDefaultLogger(appLogger)

	configPath := flag.String("config", "", "Path to config file")
	dryRun := flag.Bool("dry-run", false, "Print intended matches without uploading or writing the run log")
	language := flag.String("language", "", "Caption track language tag (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger = logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		FileOnly:    cfg.Log.FileOnly,
		ServiceName: "vidshift-captions",
	})
	logger.SetDefaultLogger(appLogger)

	if *dryRun {
		cfg.Captions.DryRun = true
	}
	if *language != "" {
		cfg.Captions.Language = *language
	}

	if err := cfg.ValidateCaptions(); err != nil {
		appLogger.WithError(err).Fatal("Invalid configuration")
	}

	// The ledger's successful entries are the match universe; captions for
	// videos that never migrated have nothing to attach to.
	store, err := ledger.Open(cfg.Ledger.Path, ledger.Options{
		Lock:   cfg.Ledger.Lock,
		Logger: appLogger,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open ledger")
	}
	defer store.Close()

	client := platform.NewClient(&platform.ClientConfig{
		BaseURL:   cfg.API.BaseURL,
		Token:     cfg.API.Token,
		AccountID: cfg.API.AccountID,
	})

	runID := uuid.NewString()
	captions := service.NewCaptionService(client, appLogger, &service.CaptionOptions{
		Dir:      cfg.Captions.Dir,
		Language: cfg.Captions.Language,
		LogPath:  cfg.Captions.LogPath,
		Delay:    time.Duration(cfg.Migration.DelayMs) * time.Millisecond,
		DryRun:   cfg.Captions.DryRun,
		RunID:    runID,
	})

	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()
	ctx = logger.SetRunID(ctx, runID)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	summary, err := captions.Run(ctx, store.Successes())
	if err != nil {
		appLogger.WithError(err).Fatal("Caption run aborted")
	}

	appLogger.WithFields(logger.Fields{
		"matched":   summary.Matched,
		"unmatched": summary.Unmatched,
		"uploaded":  summary.Uploaded,
		"failed":    summary.Failed,
	}).Info("Caption run completed")
}
