package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/desertthunder/tunegrab/internal/services"
	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "config.toml"

func main() {
	logger := shared.NewLogger(nil)

	configPath := defaultConfigPath
	if v, ok := os.LookupEnv("TUNEGRAB_CONFIG"); ok && v != "" {
		configPath = v
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(nil)

	var catalog services.CatalogProvider
	if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
		catalog = svc
	} else {
		logger.Debug("spotify disabled", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Catalog:    catalog,
		Extractor:  services.NewYTDLP(config.Extractor.Binary),
		Covers:     services.NewCoverClient(shared.Seconds(config.Timeouts.Cover, 15*time.Second)),
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "tunegrab",
		Usage:    "Fetch tagged audio from YouTube and Spotify links over Telegram",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("shutting down")
			os.Exit(0)
		}
		logger.Fatalf("application error: %v", err)
	}
}
