package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

// WatchlistList fetches and prints the current Plex watchlist.
func (r *Runner) WatchlistList(ctx context.Context, cmd *cli.Command) error {
	if r.watchlist == nil {
		return fmt.Errorf("%w: watchlist client not initialized", shared.ErrMissingConfig)
	}

	r.logger.Info("fetching watchlist")

	items, err := r.watchlist.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch watchlist: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(items, true)
	}

	r.writePlain("✓ Watchlist fetched: %d items\n\n", len(items))
	for i, item := range items {
		r.writePlain("  %d. %s", i+1, item.Title)
		if item.Year > 0 {
			r.writePlain(" (%d)", item.Year)
		}
		r.writePlain(" [%s]\n", item.Kind)
	}

	return nil
}

// watchlistCommand inspects the source watchlist without dispatching
func watchlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "watchlist",
		Usage: "Inspect the Plex watchlist",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Fetch and print the current watchlist",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit items as JSON",
					},
				},
				Action: r.WatchlistList,
			},
		},
	}
}
