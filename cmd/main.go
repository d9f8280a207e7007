package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/ytmb/internal/services"
	"github.com/desertthunder/ytmb/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config.toml, using defaults", "error", err)
		}
	}

	catalog := services.NewProxyCatalog(config.Catalog.BaseURL, config.Catalog.AuthFile)

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "ytmb",
		Usage:    "Back up a YouTube Music library into a local relational mirror",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
