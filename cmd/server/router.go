package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/reeldeck/reeldeck-api/internal/api"
)

// setupRouter creates and configures the application router with all routes
// and middleware. It accepts the application dependencies to create handlers
// and register routes. Returns the configured router.
func (app *application) setupRouter() http.Handler {
	// Create a router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Create API handlers using the application's services
	deckHandler := api.NewDeckHandler(
		app.deckService,
		app.reconciler,
		app.scanner,
		app.logger,
	)

	// Register routes
	r.Route("/api", func(r chi.Router) {
		deckHandler.Routes(r)
	})

	// Serve republished videos and uploaded blobs from the local blob root
	fileServer := http.StripPrefix("/blobs/", http.FileServer(http.Dir(app.config.Blob.RootDir)))
	r.Get("/blobs/*", fileServer.ServeHTTP)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte("OK"))
		if err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
