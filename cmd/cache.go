package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v3"
)

// CacheShow prints the sync cache contents and staleness.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	f := r.store.Load()

	if cmd.Bool("json") {
		return r.writeJSON(f, true)
	}

	r.writePlain("Cache file: %s\n", r.store.Path())
	r.writePlain("Entries: %d\n", f.Len())
	if !f.LastRefresh.IsZero() {
		r.writePlain("Last refresh: %s\n", f.LastRefresh.Format("2006-01-02 15:04:05"))
	}
	if f.IsStale(r.config.Cache.RefreshAge()) {
		r.writePlain("Status: stale (older than %dh, next sync re-verifies against the managers)\n", r.config.Cache.RefreshHours)
	} else {
		r.writePlain("Status: fresh\n")
	}

	if f.Len() == 0 {
		return nil
	}

	keys := make([]string, 0, f.Len())
	for key := range f.SyncedItems {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return f.SyncedItems[keys[i]].Title < f.SyncedItems[keys[j]].Title
	})

	r.writePlain("\n")
	for _, key := range keys {
		entry := f.SyncedItems[key]
		r.writePlain("  %s", entry.Title)
		if entry.Year > 0 {
			r.writePlain(" (%d)", entry.Year)
		}
		r.writePlain(" [%s → %s]\n", entry.Kind, entry.Target)
	}

	return nil
}

// CacheClear deletes the sync cache file. The next sync rebuilds it from
// the managers' own libraries via existence checks.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	path := r.store.Path()
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			r.writePlain("No cache file at %s\n", path)
			return nil
		}
		return fmt.Errorf("failed to remove cache: %w", err)
	}

	r.logger.Info("cache cleared", "path", path)
	r.writePlain("✓ Cache cleared: %s\n", path)
	return nil
}

// cacheCommand inspects and resets the sync cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect and manage the sync cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Print cache contents and staleness",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the cache file as JSON",
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Delete the sync cache file",
				Action: r.CacheClear,
			},
		},
	}
}
