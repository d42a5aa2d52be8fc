// Package main implements the entry point for the ReelDeck API server,
// which manages video decks and orchestrates batch video generation
// against the external provider.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/reeldeck/reeldeck-api/internal/config"
	"github.com/reeldeck/reeldeck-api/internal/platform/logger"
)

// main is the entry point for the reeldeck-api server. It initializes
// configuration, sets up logging, wires the application dependencies,
// and starts the HTTP server.
func main() {
	cfg, appLogger, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app, err := newApplication(cfg, appLogger)
	if err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration and sets up structured logging.
// Returns the loaded config, the root logger, and any initialization error.
func initializeApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"decks_file", cfg.Store.DecksFile,
		"provider_url", cfg.Provider.BaseURL)

	return cfg, appLogger, nil
}
