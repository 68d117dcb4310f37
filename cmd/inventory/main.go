// Command inventory serves the hardware store inventory over HTTP.
//
// Settings come from APP_* environment variables; see package config.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/auth"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/config"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/server"
	"github.com/vyrodovalexey/ferreteria-inventory/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inventory: %v\n", err)
		return 1
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inventory: building logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := serve(cfg, logger); err != nil {
		logger.Error("inventory server failed", zap.Error(err))
		return 1
	}
	return 0
}

// serve runs the server until SIGINT or SIGTERM and then drains it within
// the configured shutdown timeout.
func serve(cfg *config.Config, logger *zap.Logger) error {
	authenticator, err := auth.New(cfg.AuthMode, cfg.BasicAuthUsers, cfg.APIKeys)
	if err != nil {
		return fmt.Errorf("building %s authenticator: %w", cfg.AuthMode, err)
	}

	inventory, err := newInventory(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg, logger, inventory, authenticator)
	listenErr := make(chan error, 1)
	go func() { listenErr <- srv.Start() }()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}
	stop()
	logger.Info("shutdown requested", zap.Duration("timeout", cfg.ShutdownTimeout))

	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	return errors.Join(srv.Shutdown(drainCtx), <-listenErr)
}

// newInventory builds the store, loading the demo catalogue when asked.
func newInventory(cfg *config.Config, logger *zap.Logger) (*store.MemoryStore, error) {
	inventory := store.NewMemoryStore()
	if !cfg.SeedDemo {
		return inventory, nil
	}

	items, err := store.Seed(inventory, store.DemoItems())
	if err != nil {
		return nil, fmt.Errorf("seeding demo items: %w", err)
	}

	logger.Info("demo inventory loaded",
		zap.Int("count", len(items)),
		zap.Float64("total", inventory.Total("")),
	)
	return inventory, nil
}

// initLogger builds a sampled JSON logger on stdout. Unknown levels fall
// back to info.
func initLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "timestamp"
	encoder.MessageKey = "message"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder.EncodeDuration = zapcore.SecondsDurationEncoder

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(lvl)
	zapConfig.EncoderConfig = encoder
	zapConfig.OutputPaths = []string{"stdout"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named("inventory"), nil
}
