package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/msgledger/msgledger/internal/common"
	"github.com/msgledger/msgledger/internal/config"
	"github.com/msgledger/msgledger/internal/scan"
	"github.com/msgledger/msgledger/internal/service"
	"github.com/msgledger/msgledger/internal/storage"
)

// setupLogging configures slog from the resolved configuration.
func setupLogging() error {
	var level slog.Level
	switch viper.GetString("logging.level") {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return common.SetupLogger(level, viper.GetString("logging.format"))
}

// initStorage initializes the storage service with proper path expansion.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/msgledger/msgledger.db"
	}

	// Expand tilde and environment variables
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// scanConfig builds orchestrator settings from the resolved configuration.
func scanConfig() scan.Config {
	cfg := scan.DefaultConfig()
	if currency := viper.GetString("scan.currency"); currency != "" {
		cfg.Currency = currency
	}
	if seconds := viper.GetInt("dedupe.window_seconds"); seconds > 0 {
		cfg.DedupeWindow = time.Duration(seconds) * time.Second
	}
	cfg.GlobalSkipSMS = viper.GetBool("scan.global_skip_sms")
	cfg.GlobalSkipEmail = viper.GetBool("scan.global_skip_email")
	return cfg
}
