package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/vnnkl/plex-to-arrs/internal/cache"
	"github.com/vnnkl/plex-to-arrs/internal/managers"
	"github.com/vnnkl/plex-to-arrs/internal/tasks"
)

// SyncRun runs a full watchlist → Radarr/Sonarr sync pass.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if path := cmd.String("config"); path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := config.ApplyFile(path); err != nil {
				return err
			}
		}
	}
	if cmd.Bool("dry-run") {
		config.DryRun = true
	}
	if cmd.Bool("curl") {
		config.GenCurl = true
	}

	if err := config.Validate(); err != nil {
		return err
	}

	store := r.store
	if path := cmd.String("cache"); path != "" {
		store = cache.NewStore(path, r.logger)
	}

	r.logger.Info("starting sync", "dry_run", config.DryRun, "curl", config.GenCurl)
	r.writePlain("Starting watchlist sync...\n")
	if config.DryRun {
		r.writePlain("Mode: dry run (no changes will be made)\n")
	}
	r.writePlain("\n")

	engine := tasks.NewEngine(tasks.EngineOpts{
		Watchlist:   r.watchlist,
		Classifier:  r.classifier,
		Movies:      managers.NewPreview(r.movies, config.DryRun, config.GenCurl, r.output),
		Shows:       managers.NewPreview(r.shows, config.DryRun, config.GenCurl, r.output),
		Store:       store,
		MaxCacheAge: config.Cache.RefreshAge(),
		DryRun:      config.DryRun,
		Logger:      r.logger,
	})

	// Create progress channel and goroutine to handle updates
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadCache:
				r.writePlain("📦 %s\n", update.Message)
			case tasks.FetchWatchlist:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.Diff:
				r.writePlain("🔍 %s\n\n", update.Message)
			case tasks.Dispatch:
				r.writePlain("   %s\n", update.Message)
			case tasks.PersistCache:
				r.writePlain("\n💾 %s\n", update.Message)
			}
		}
	}()

	// Run the engine operation
	report, runErr := engine.Run(ctx, progressCh)
	close(progressCh)
	<-done

	if report == nil {
		return runErr
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(report, true); err != nil {
			return err
		}
		return runErr
	}

	r.writePlain("\n")
	r.writePlainHeader("Sync Complete")
	r.writePlain("Watchlist items: %d\n", report.TotalWatchlist)
	r.writePlain("Already synced:  %d\n", report.AlreadySynced)
	r.writePlain("Newly synced:    %d\n", report.NewlySynced)
	r.writePlain("Movies added:    %d\n", report.MoviesAdded)
	r.writePlain("Shows added:     %d\n", report.ShowsAdded)

	if len(report.Errors) > 0 {
		r.writePlain("\nFailed to sync %d items:\n", len(report.Errors))
		for _, item := range report.Errors {
			r.writePlain("  - %s: %s\n", item.Title, item.Reason)
		}
	}

	return runErr
}

// syncCommand runs the reconciliation pass
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Sync the Plex watchlist into Radarr & Sonarr",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Report what would be added without calling the managers",
			},
			&cli.BoolFlag{
				Name:  "curl",
				Usage: "Print equivalent curl commands instead of calling the managers",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Emit the sync report as JSON",
			},
			&cli.StringFlag{
				Name:  "cache",
				Usage: "Path to the sync cache file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.SyncRun,
	}
}
