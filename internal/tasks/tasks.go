// package tasks implements the reconciliation engine that keeps the Plex
// watchlist in sync with the downstream media managers.
//
// The core abstraction is SyncEngine, which loads the sync cache, fetches
// the watchlist, diffs, classifies, dispatches add requests, and persists
// what it synced. Operations emit progress updates via channels for
// non-blocking status reporting to the CLI layer.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/cache"
	"github.com/vnnkl/plex-to-arrs/internal/managers"
	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

// ItemError records one item that could not be synced this run. The item
// stays out of the cache and is reattempted on the next pass.
type ItemError struct {
	Key    string `json:"key"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// SyncReport summarizes one sync pass. It is created fresh per run,
// write-once, and is the single source of truth for what happened.
type SyncReport struct {
	RunID          string      `json:"run_id"`
	StartedAt      time.Time   `json:"started_at"`
	DryRun         bool        `json:"dry_run,omitempty"`
	TotalWatchlist int         `json:"total_watchlist"`
	AlreadySynced  int         `json:"already_synced"`
	NewlySynced    int         `json:"newly_synced"`
	MoviesAdded    int         `json:"movies_added"`
	ShowsAdded     int         `json:"shows_added"`
	Errors         []ItemError `json:"errors"`
}

// WatchlistFetcher retrieves the current watchlist from the source service.
type WatchlistFetcher interface {
	Fetch(ctx context.Context) ([]models.Item, error)
}

// Classifier resolves an item's media kind and canonical identity.
type Classifier interface {
	Classify(ctx context.Context, item models.Item) (models.Classification, error)
}

// CacheStore abstracts cache persistence so the engine is testable without
// filesystem side effects.
type CacheStore interface {
	Load() *cache.File
	Save(f *cache.File) error
}

// SyncEngine defines the single operation the scheduler invokes.
type SyncEngine interface {
	// Run performs one full sync pass and always produces a report, even
	// on partial failure.
	Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncReport, error)
}

// Engine implements SyncEngine. The manager APIs are rate sensitive, so
// items are dispatched one at a time.
type Engine struct {
	watchlist  WatchlistFetcher
	classifier Classifier
	movies     managers.Manager
	shows      managers.Manager
	store      CacheStore

	maxCacheAge time.Duration
	dryRun      bool
	logger      *log.Logger
}

// EngineOpts contains the dependencies and knobs for an Engine.
type EngineOpts struct {
	Watchlist   WatchlistFetcher
	Classifier  Classifier
	Movies      managers.Manager
	Shows       managers.Manager
	Store       CacheStore
	MaxCacheAge time.Duration
	DryRun      bool
	Logger      *log.Logger
}

// NewEngine creates an Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxCacheAge <= 0 {
		opts.MaxCacheAge = 24 * time.Hour
	}
	return &Engine{
		watchlist:   opts.Watchlist,
		classifier:  opts.Classifier,
		movies:      opts.Movies,
		shows:       opts.Shows,
		store:       opts.Store,
		maxCacheAge: opts.MaxCacheAge,
		dryRun:      opts.DryRun,
		logger:      opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without
// blocking. Progress reporting must never stall dispatching.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one sync pass.
//
// Fatal errors (rejected auth, failed watchlist fetch) abort before any
// dispatch and are returned alongside a report carrying a single top-level
// error entry. Per-item failures are folded into the report and never
// abort the loop.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncReport, error) {
	report := &SyncReport{
		RunID:     shared.GenerateID(),
		StartedAt: time.Now(),
		DryRun:    e.dryRun,
		Errors:    []ItemError{},
	}

	if e.watchlist == nil || e.classifier == nil || e.movies == nil || e.shows == nil || e.store == nil {
		return report, fmt.Errorf("%w: engine dependencies not initialized", shared.ErrInvalidConfig)
	}

	// LOAD_CACHE. A stale cache is advisory only: diff against an empty
	// baseline so every item re-verifies through the manager Exists
	// checks, which prevent duplicate adds.
	loaded := e.store.Load()
	stale := loaded.IsStale(e.maxCacheAge)
	e.sendProgress(progress, loadCacheUpdate(loaded.Len(), stale))

	working := loaded
	if stale {
		e.logger.Warn("sync cache expired, re-verifying against managers",
			"age_limit", e.maxCacheAge, "items", loaded.Len())
		working = cache.NewFile()
	}

	// FETCH_WATCHLIST. Failure here is fatal for the run; nothing has
	// been dispatched so the cache is left untouched.
	e.sendProgress(progress, fetchWatchlistUpdate())
	items, err := e.watchlist.Fetch(ctx)
	if err != nil {
		report.Errors = append(report.Errors, ItemError{Reason: err.Error()})
		return report, err
	}
	report.TotalWatchlist = len(items)

	// DIFF. An item is new iff its key is absent from the cache mapping.
	var pending []models.Item
	for _, item := range items {
		if working.Has(cache.ItemKey(item.Title, item.Kind, item.Year)) {
			report.AlreadySynced++
		} else {
			pending = append(pending, item)
		}
	}
	e.sendProgress(progress, diffUpdate(len(items), report.AlreadySynced, len(pending)))

	// DISPATCH. One item at a time; each success is recorded and
	// persisted immediately so a crash mid-run loses at most the item in
	// flight.
	for i, item := range pending {
		e.sendProgress(progress, dispatchUpdate(i+1, len(pending), item))
		e.dispatch(ctx, progress, report, working, item, i+1, len(pending))
	}

	// PERSIST_CACHE. Incremental saves already ran; this final save
	// refreshes the timestamp after a stale rebuild.
	if !e.dryRun {
		if err := e.store.Save(working); err != nil {
			e.logger.Warn("failed to save sync cache", "err", err)
		}
	}
	e.sendProgress(progress, persistUpdate(working.Len()))

	return report, nil
}

// dispatch runs the per-item pipeline: classify, select manager, check
// existence, add, record.
func (e *Engine) dispatch(ctx context.Context, progress chan<- ProgressUpdate, report *SyncReport, working *cache.File, item models.Item, step, total int) {
	key := cache.ItemKey(item.Title, item.Kind, item.Year)

	fail := func(err error) {
		report.Errors = append(report.Errors, ItemError{Key: key, Title: item.Title, Reason: err.Error()})
		e.sendProgress(progress, outcomeUpdate(step, total, item.Title, "failed"))
		e.logger.Error("item not synced", "title", item.Title, "err", err)
	}

	cls, err := e.classifier.Classify(ctx, item)
	if err != nil {
		fail(err)
		return
	}

	mgr := e.movies
	if cls.Kind == models.KindShow {
		mgr = e.shows
	}

	record := func(status managers.Status) {
		if !e.dryRun {
			working.Record(key, cache.Entry{
				Title:  item.Title,
				Kind:   cls.Kind,
				Year:   item.Year,
				Target: mgr.Name(),
			})
			if err := e.store.Save(working); err != nil {
				e.logger.Warn("failed to save sync cache", "err", err)
			}
		}
		report.NewlySynced++
		if status == managers.StatusAdded {
			if cls.Kind == models.KindShow {
				report.ShowsAdded++
			} else {
				report.MoviesAdded++
			}
		}
	}

	exists, err := mgr.Exists(ctx, cls)
	if err != nil {
		fail(err)
		return
	}
	if exists {
		// Already tracked through some other path; skip the add but
		// still record it so future diffs stay cheap.
		record(managers.StatusAlreadyPresent)
		e.sendProgress(progress, outcomeUpdate(step, total, item.Title, "already in "+mgr.Name()))
		return
	}

	result, err := mgr.Add(ctx, cls)
	if err != nil {
		fail(err)
		return
	}

	record(result.Status)
	e.sendProgress(progress, outcomeUpdate(step, total, item.Title, string(result.Status)))
}
