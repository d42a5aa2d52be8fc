package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/reeldeck/reeldeck-api/internal/config"
	"github.com/reeldeck/reeldeck-api/internal/platform/blob"
	"github.com/reeldeck/reeldeck-api/internal/platform/jsonfile"
	"github.com/reeldeck/reeldeck-api/internal/platform/veo"
	"github.com/reeldeck/reeldeck-api/internal/service"
	"github.com/reeldeck/reeldeck-api/internal/store"
	"github.com/reeldeck/reeldeck-api/internal/task"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger

	// Stores (using interfaces for proper abstraction)
	deckStore store.DeckStore
	blobStore blob.Store

	// Task tracking
	ledger *task.Ledger

	// Service layer
	deckService *service.DeckService
	reconciler  *service.Reconciler
	scanner     *service.FailedTaskScanner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration and logger
// that must be established before application initialization.
func newApplication(cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	// Initialize the JSON file deck store
	deckStore, err := jsonfile.New(logger, cfg.Store.DecksFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize deck store: %w", err)
	}
	app.deckStore = deckStore
	logger.Info("deck store initialized", "path", cfg.Store.DecksFile)

	// Initialize the video generation client
	generator, err := veo.NewClient(logger.With("component", "veo_client"), cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize video generation client: %w", err)
	}
	logger.Info("video generation client initialized", "base_url", cfg.Provider.BaseURL)

	// Initialize local blob storage and the video republisher
	blobStore, err := blob.NewLocalStore(logger, cfg.Blob)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize blob store: %w", err)
	}
	app.blobStore = blobStore

	publisher, err := blob.NewRepublisher(logger, blobStore, os.TempDir())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize republisher: %w", err)
	}

	// Initialize the in-memory task ledger
	app.ledger = task.NewLedger()

	// Initialize the batch submitter
	submitter, err := service.NewBatchSubmitter(
		generator,
		app.ledger,
		service.SubmitterConfigFromApp(cfg.Generation, cfg.RateLimit),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch submitter: %w", err)
	}

	// Initialize the deck service
	app.deckService, err = service.NewDeckService(
		app.deckStore,
		submitter,
		cfg.Generation.MaxCardsPerDeck,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create deck service: %w", err)
	}

	// Initialize the reconciler
	defaults := task.Defaults{
		Model:          cfg.Generation.Model,
		AspectRatio:    cfg.Generation.AspectRatio,
		GenerationType: cfg.Generation.GenerationType,
	}
	app.reconciler, err = service.NewReconciler(
		app.deckStore,
		generator,
		app.ledger,
		publisher,
		defaults,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create reconciler: %w", err)
	}

	// Initialize the retroactive failed-task scanner
	app.scanner, err = service.NewFailedTaskScanner(app.deckStore, generator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create failed task scanner: %w", err)
	}

	logger.Info("application initialized successfully")
	return app, nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	app.logger.Info("application shutdown completed")
}
