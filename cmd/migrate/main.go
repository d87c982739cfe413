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
	"github.com/calebms/vidshift/internal/manifest"
	"github.com/calebms/vidshift/internal/platform"
	"github.com/calebms/vidshift/internal/service"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "vidshift-migrate",
	})
	logger.SetDefaultLogger(appLogger)

	// Parse command line flags
	configPath := flag.String("config", "", "Path to config file")
	dryRun := flag.Bool("dry-run", false, "Report what would happen without submitting or writing the ledger")
	group := flag.String("group", "", "Only migrate records with this group id (overrides config)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger = logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		File:        cfg.Log.File,
		FileOnly:    cfg.Log.FileOnly,
		ServiceName: "vidshift-migrate",
	})
	logger.SetDefaultLogger(appLogger)

	if *dryRun {
		cfg.Migration.DryRun = true
	}
	if *group != "" {
		cfg.Migration.GroupFilter = *group
	}

	if err := cfg.ValidateMigration(); err != nil {
		appLogger.WithError(err).Fatal("Invalid configuration")
	}

	// Read the manifest up front; a missing or unreadable export is fatal
	// before any remote work starts.
	records, err := manifest.Read(cfg.Manifest.Path, manifest.Columns{
		ID:       cfg.Manifest.IDColumn,
		Name:     cfg.Manifest.NameColumn,
		URL:      cfg.Manifest.URLColumn,
		Group:    cfg.Manifest.GroupColumn,
		Download: cfg.Manifest.DownloadColumn,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to read manifest")
	}

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

	engine := service.NewMigrationEngine(store, client, appLogger, &service.MigrationOptions{
		Delay:       time.Duration(cfg.Migration.DelayMs) * time.Millisecond,
		GroupFilter: cfg.Migration.GroupFilter,
		DryRun:      cfg.Migration.DryRun,
	})

	runID := uuid.NewString()
	ctx, cancel := context.WithCancel(appLogger.WithContext(context.Background()))
	defer cancel()
	ctx = logger.SetRunID(ctx, runID)

	// Handle graceful shutdown; the ledger's per-item durability makes
	// stopping between items safe, the next run resumes where this left off.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("Received shutdown signal, canceling...")
		cancel()
	}()

	summary, err := engine.Run(ctx, records)
	if err != nil {
		appLogger.WithError(err).Fatal("Migration run aborted")
	}

	// Individual item failures are the expected steady state of a resumable
	// migration; only fatal setup errors exit non-zero.
	appLogger.WithFields(logger.Fields{
		"succeeded":          summary.Succeeded,
		"failed":             summary.Failed,
		"skipped_done":       summary.SkippedDone,
		"skipped_ineligible": summary.SkippedIneligible,
		"total":              summary.Total,
	}).Info("Migration completed")
}
