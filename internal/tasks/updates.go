package tasks

import (
	"fmt"

	"github.com/vnnkl/plex-to-arrs/internal/models"
)

// ProgressUpdate represents a progress event during a sync pass.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Phase enumerates the states of a sync pass.
type Phase int

const (
	LoadCache Phase = iota
	FetchWatchlist
	Diff
	Dispatch
	PersistCache
	Report
)

func (p Phase) String() string {
	switch p {
	case LoadCache:
		return "load_cache"
	case FetchWatchlist:
		return "fetch_watchlist"
	case Diff:
		return "diff"
	case Dispatch:
		return "dispatch"
	case PersistCache:
		return "persist_cache"
	case Report:
		return "report"
	default:
		return ""
	}
}

func loadCacheUpdate(cached int, stale bool) ProgressUpdate {
	msg := fmt.Sprintf("Loaded sync cache (%d previously synced items)", cached)
	if stale {
		msg = fmt.Sprintf("Sync cache is stale (%d items), re-verifying against managers", cached)
	}
	return ProgressUpdate{Phase: LoadCache, Step: 1, Total: 1, Message: msg}
}

func fetchWatchlistUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchWatchlist, Step: 1, Total: 1, Message: "Fetching Plex watchlist..."}
}

func diffUpdate(total, cached, pending int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Diff,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d watchlist items: %d already synced, %d to process", total, cached, pending),
	}
}

func dispatchUpdate(step, total int, item models.Item) ProgressUpdate {
	year := "????"
	if item.Year > 0 {
		year = fmt.Sprintf("%d", item.Year)
	}
	return ProgressUpdate{
		Phase:   Dispatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s (%s) - %s", step, total, item.Title, year, item.Kind),
		Data:    item,
	}
}

func outcomeUpdate(step, total int, title, outcome string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dispatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("  %s: %s", outcome, title),
	}
}

func persistUpdate(entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PersistCache,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Sync cache saved (%d items)", entries),
	}
}
