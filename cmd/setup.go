package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/ytmb/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	r.config = config

	r.logger.Info("initializing database", "path", config.Database.Path)

	_, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	r.logger.Infof("setup complete for database: %v", config.Database.Path)
	return nil
}

// SetupRollback rolls back the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	config, err := r.resolveConfig(cmd.String("config"))
	if err != nil {
		return err
	}
	r.config = config

	if r.db != nil {
		if err := shared.RollbackMigration(r.db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		r.writePlain("Rolled back most recent migration\n")
		return nil
	}

	db, err := shared.NewDatabase(config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	r.writePlain("Rolled back most recent migration\n")
	return nil
}

// resolveConfig loads the config at path, creating it from the template when
// absent, and falls back to defaults on any failure.
func (r *Runner) resolveConfig(configPath string) (*shared.Config, error) {
	if configPath == "" {
		return r.config, nil
	}

	if _, err := os.Stat(configPath); err == nil {
		config, err := shared.LoadConfig(configPath)
		if err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			return shared.DefaultConfig(), nil
		}
		return config, nil
	}

	r.logger.Info("config file not found, creating from template", "path", configPath)
	if err := shared.CreateConfigFile(configPath); err != nil {
		r.logger.Warn("failed to create config file, using defaults", "error", err)
		return shared.DefaultConfig(), nil
	}

	r.logger.Info("config file created", "path", configPath)
	config, err := shared.LoadConfig(configPath)
	if err != nil {
		r.logger.Warn("failed to load created config, using defaults", "error", err)
		return shared.DefaultConfig(), nil
	}
	return config, nil
}
