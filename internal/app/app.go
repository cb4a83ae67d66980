// Package app wires the configuration, run archive, analyzer and REST
// server of pinch-server together.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/chrissnell/pinchpoint/internal/controllers/restserver"
	"github.com/chrissnell/pinchpoint/internal/database"
	"github.com/chrissnell/pinchpoint/pkg/config"
	"github.com/chrissnell/pinchpoint/pkg/pinch"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}

	// The archive is optional; leave store as a nil interface without it
	var store restserver.RunStore
	if cfgData.ArchiveEnabled() {
		client, err := database.Open(cfgData.Storage.Postgres.ConnectionString, a.logger)
		if err != nil {
			return fmt.Errorf("error opening run archive: %w", err)
		}
		defer client.Close()
		store = client
		a.logger.Info("run archive enabled")
	}

	analyzer := pinch.NewAnalyzer(a.logger)

	rest, err := restserver.NewController(ctx, &wg, a.configProvider, store, analyzer, a.logger)
	if err != nil {
		return err
	}
	if err := rest.StartController(); err != nil {
		return err
	}

	a.logger.Infow("application started successfully", "problems", len(cfgData.Problems))

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		a.logger.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		a.logger.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	a.logger.Info("waiting for all workers to terminate...")
	wg.Wait()
	a.logger.Info("shutdown complete")

	return nil
}
