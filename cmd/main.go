package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/vnnkl/plex-to-arrs/internal/cache"
	"github.com/vnnkl/plex-to-arrs/internal/managers"
	"github.com/vnnkl/plex-to-arrs/internal/metadata"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
	"github.com/vnnkl/plex-to-arrs/internal/watchlist"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.FromEnv()
	if _, err := os.Stat("config.toml"); err == nil {
		if err := config.ApplyFile("config.toml"); err != nil {
			logger.Warnf("ignoring config.toml: %v", err)
		}
	}

	plex := watchlist.NewClient(watchlist.DefaultBaseURL, config.Plex.Token, config.RequestTimeout, logger)
	tmdb := metadata.NewTMDB("", config.TMDB.APIKey, config.RequestTimeout, logger)
	classifier := metadata.NewClassifier(tmdb, logger)
	radarr := managers.NewRadarr(config.Radarr, config.RequestTimeout, logger)
	sonarr := managers.NewSonarr(config.Sonarr, config.RequestTimeout, logger)
	store := cache.NewStore(config.Cache.Path, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		Watchlist:  plex,
		Classifier: classifier,
		Movies:     radarr,
		Shows:      sonarr,
		Profiles:   []ProfileLister{radarr, sonarr},
		Store:      store,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "plexarr",
		Usage:    "Sync the Plex watchlist into Radarr & Sonarr",
		Version:  "0.3.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
