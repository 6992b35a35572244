package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/zk/internal/api"
	"github.com/starford/zk/internal/index"
	"github.com/starford/zk/internal/noteservice"
)

// Serve runs the REST API and keeps the index in sync with the zettelkasten
// until ctx is cancelled or a shutdown signal arrives.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.config
	logger := a.logger

	svc, err := a.service()
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           a.httpHandler(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("zk_path", a.store.Root()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reindex zettels edited outside the API.
	g.Go(func() error {
		err := index.Watch(gCtx, a.db, a.store, logger, func(kind, id string) {
			logger.Debug("zettel changed", slog.String("kind", kind), slog.String("id", id))
		})
		if err != nil && gCtx.Err() == nil {
			return fmt.Errorf("watcher error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group once the HTTP server has been shut down, so
// the watcher stops as well.
var errShutdown = errors.New("shutdown")

func (a *App) httpHandler(svc *noteservice.Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health checks are unauthenticated.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, nil)
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, a.ready(r.Context()))
	})

	r.Mount("/api", api.NewRouter(svc, a.config.Auth.AuthEnabled(), a.config.Auth.Token))
	return r
}

// ready reports whether the zettelkasten directory and the index are usable.
func (a *App) ready(ctx context.Context) error {
	info, err := os.Stat(a.store.Root())
	if err != nil {
		return fmt.Errorf("zettelkasten: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("zettelkasten: %s is not a directory", a.store.Root())
	}
	if a.db == nil {
		return errors.New("index: not open")
	}
	if err := a.db.Ping(ctx); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

func writeHealth(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	body := map[string]string{"status": "ok"}
	if err != nil {
		body = map[string]string{"status": "unavailable", "error": err.Error()}
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(body)
}
