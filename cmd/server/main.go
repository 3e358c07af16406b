package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Olprog59/go-freightdesk/internal/app"
	"github.com/Olprog59/go-freightdesk/internal/config"
	"github.com/Olprog59/go-freightdesk/internal/logging"
	"github.com/Olprog59/go-freightdesk/internal/transport/web"
)

// init configures standard logger flags / Configure les flags du logger standard
func init() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.LstdFlags)
}

// main is the application entry point / Point d'entrée de l'application
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

// run initializes and starts the HTTP server / Initialise et démarre le serveur HTTP
func run() error {
	// Load configuration (.env is read first when present)
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger, closeLogs := logging.NewLogger(cfg.Logging, cfg.IsProduction(), os.Stdout)
	slog.SetDefault(logger)
	defer func() {
		if err := closeLogs(); err != nil {
			log.Printf("flush logs: %v", err)
		}
	}()

	logStartupInfo(cfg)

	// Initialize container with all dependencies
	container, err := app.NewContainer(cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Setup HTTP server
	handler := web.NewHandler(container)
	mux := web.NewMux(ctx, handler, container)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("shutting down server gracefully")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

// logStartupInfo displays startup information / Affiche les informations de démarrage
func logStartupInfo(conf *config.Config) {
	slog.Info("🚀 Starting freightdesk",
		"environment", conf.Environment,
		"port", conf.Server.Port,
		"database", conf.Database.Type,
	)

	if conf.RateLimiter.Enabled {
		slog.Info("🛡️  Rate limiter enabled",
			"global_rps", conf.RateLimiter.RPS,
			"global_burst", conf.RateLimiter.Burst,
			"batch_rps", conf.RateLimiter.BatchRPS,
			"batch_burst", conf.RateLimiter.BatchBurst,
		)
	} else {
		slog.Warn("⚠️  Rate limiter is DISABLED")
	}

	slog.Info("📦 Records",
		"max_batch_size", conf.Records.MaxBatchSize,
		"batch_concurrency", conf.Records.BatchConcurrency,
		"max_page_size", conf.Records.MaxPageSize,
	)
}
