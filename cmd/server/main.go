package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/markdown-blog-api/internal/api"
	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/database"
	"github.com/markdown-blog-api/internal/notify"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/markdown-blog-api/internal/service"
	"github.com/markdown-blog-api/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "json")
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Markdown Blog API server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos, err := repository.New(db, &cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize post storage")
	}

	// Initialize services
	services := service.NewServices(repos, notify.New(&cfg.Mail, log), cfg, log)

	// Start notification dispatcher
	go services.Notification.Start(context.Background())
	log.Info().Bool("enabled", cfg.Notify.Enabled).Msg("Notification dispatcher started")

	// Initialize router
	router := api.NewRouter(services, cfg, db, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Announce posts still queued, bounded by the shutdown timeout
	services.Notification.Stop(ctx)

	log.Info().Msg("Server exited gracefully")
}
