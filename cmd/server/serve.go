package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sakif/scoreboard/internal/auth"
	"github.com/sakif/scoreboard/internal/config"
	"github.com/sakif/scoreboard/internal/logging"
	"github.com/sakif/scoreboard/internal/repository"
	"github.com/sakif/scoreboard/internal/repository/memory"
	"github.com/sakif/scoreboard/internal/repository/postgres"
	"github.com/sakif/scoreboard/internal/repository/sqlite"
	"github.com/sakif/scoreboard/internal/server"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until interrupted. Settings come from flags, the
--config file and the environment, in that order.`,
		RunE: runServe,
	}
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags(), configFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	passwords, err := auth.NewPasswordServiceWithCost(cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("password service: %w", err)
	}

	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		logger.Error("failed to open store", slog.String("driver", cfg.DBDriver), slog.String("error", err.Error()))
		return err
	}

	srv, err := server.New(server.Config{Port: cfg.Port}, logger, server.Deps{
		Store:     store,
		Tokens:    tokens,
		Passwords: passwords,
	})
	if err != nil {
		_ = store.Close()
		return err
	}

	// Start() blocks until SIGINT/SIGTERM and closes the store on the way out.
	return srv.Start()
}

// openStore opens the backend named by cfg.DBDriver.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		logger.Info("using sqlite store", slog.String("path", cfg.DBPath))
		return db, nil

	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if err := migrateUp(cfg.DatabaseURL); err != nil {
				_ = store.Close()
				return nil, err
			}
		}
		logger.Info("using postgres store", slog.Bool("auto_migrate", cfg.AutoMigrate))
		return store, nil

	case config.DriverMemory:
		logger.Warn("using in-memory store; all data is lost on exit")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown db-driver %q", cfg.DBDriver)
	}
}
