// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/layerhub/marketplace-backend/internal/config"
	"github.com/layerhub/marketplace-backend/internal/database"
	"github.com/layerhub/marketplace-backend/internal/i18n"
	"github.com/layerhub/marketplace-backend/internal/repository"
	"github.com/layerhub/marketplace-backend/internal/router"
	"github.com/layerhub/marketplace-backend/internal/services"
)

func main() {
	cmd := &cli.Command{
		Name:   "marketplace",
		Usage:  "3D print marketplace product API",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Create or update the product schema and indexes",
				Action: migrate,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Fatal("Command failed")
	}
}

func serve(ctx context.Context, _ *cli.Command) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize i18n: %w", err)
	}

	products, closeStore, err := openProductStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return err
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router; its background jobs stop when serve returns
	routerCtx, stopRouter := context.WithCancel(ctx)
	defer stopRouter()
	r := router.Initialize(routerCtx, cfg, products, storage)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logrus.WithField("port", cfg.Server.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}

func migrate(ctx context.Context, _ *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg)

	_, closeStore, err := openProductStore(ctx, cfg)
	if err != nil {
		return err
	}
	closeStore()

	logrus.WithField("driver", cfg.Database.Driver).Info("Migration complete")
	return nil
}

// openProductStore connects the configured product store and brings its
// schema or indexes up to date.
func openProductStore(ctx context.Context, cfg *config.Config) (repository.ProductRepository, func(), error) {
	switch cfg.Database.Driver {
	case "mongo":
		client, coll, err := database.ConnectMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewMongoProductRepository(coll)
		if err := repo.EnsureIndexes(ctx); err != nil {
			database.DisconnectMongo(context.Background(), client)
			return nil, nil, err
		}
		return repo, func() { database.DisconnectMongo(context.Background(), client) }, nil
	default:
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(db); err != nil {
			database.Close(db)
			return nil, nil, err
		}
		return repository.NewGormProductRepository(db), func() { database.Close(db) }, nil
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
