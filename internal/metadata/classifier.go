package metadata

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

// Searcher defines the TMDB lookups the classifier depends on.
type Searcher interface {
	SearchMovie(ctx context.Context, query string, year int) ([]SearchResult, error)
	SearchTV(ctx context.Context, query string, year int) ([]SearchResult, error)
}

// Classifier resolves an item's media kind and canonical TMDB identity.
//
// The watchlist entry's own type tag is trusted when unambiguous; only
// untyped entries trigger a lookup on both media kinds. When several
// candidates survive, the closest title match wins and the ambiguity is
// logged as a warning rather than failing the item (exact matches are the
// only guaranteed-correct case; fuzzy selection is best-effort).
type Classifier struct {
	tmdb   Searcher
	logger *log.Logger
}

// NewClassifier creates a Classifier backed by the given search client.
func NewClassifier(tmdb Searcher, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{tmdb: tmdb, logger: logger}
}

// Classify determines the kind, TMDB id, canonical title, and year for a
// watchlist item. It fails with [shared.ErrClassification] only when no
// usable kind can be determined after lookup; the item then remains
// unsynced and is reattempted on the next run.
func (c *Classifier) Classify(ctx context.Context, item models.Item) (models.Classification, error) {
	switch item.Kind {
	case models.KindMovie:
		return c.classifyAs(ctx, item, models.KindMovie)
	case models.KindShow:
		return c.classifyAs(ctx, item, models.KindShow)
	default:
		return c.classifyUnknown(ctx, item)
	}
}

func (c *Classifier) classifyAs(ctx context.Context, item models.Item, kind models.Kind) (models.Classification, error) {
	results, err := c.searchKind(ctx, kind, item.Title, item.Year)
	if err != nil {
		return models.Classification{}, fmt.Errorf("%w: lookup failed for %q: %v", shared.ErrClassification, item.Title, err)
	}

	// A year filter can miss when source and TMDB disagree on release year.
	if len(results) == 0 && item.Year > 0 {
		if results, err = c.searchKind(ctx, kind, item.Title, 0); err != nil {
			return models.Classification{}, fmt.Errorf("%w: lookup failed for %q: %v", shared.ErrClassification, item.Title, err)
		}
	}

	best, ok := c.pickBest(item.Title, results)
	if !ok {
		return models.Classification{}, fmt.Errorf("%w: no %s match for %q", shared.ErrClassification, kind, item.Title)
	}

	return models.Classification{
		Kind:   kind,
		TMDBID: best.ID,
		Title:  best.DisplayTitle(),
		Year:   best.ReleaseYear(),
	}, nil
}

// classifyUnknown consults both kinds and keeps whichever produced the
// closer title match.
func (c *Classifier) classifyUnknown(ctx context.Context, item models.Item) (models.Classification, error) {
	movie, movieErr := c.classifyAs(ctx, item, models.KindMovie)
	show, showErr := c.classifyAs(ctx, item, models.KindShow)

	switch {
	case movieErr != nil && showErr != nil:
		return models.Classification{}, fmt.Errorf("%w: %q matched neither a movie nor a series", shared.ErrClassification, item.Title)
	case movieErr != nil:
		return show, nil
	case showErr != nil:
		return movie, nil
	}

	c.logger.Warn("item matched both kinds, preferring closer title",
		"title", item.Title, "movie", movie.Title, "show", show.Title)

	if titleDistance(item.Title, show.Title) < titleDistance(item.Title, movie.Title) {
		return show, nil
	}
	return movie, nil
}

func (c *Classifier) searchKind(ctx context.Context, kind models.Kind, title string, year int) ([]SearchResult, error) {
	if kind == models.KindShow {
		return c.tmdb.SearchTV(ctx, title, year)
	}
	return c.tmdb.SearchMovie(ctx, title, year)
}

// pickBest selects the closest title match from a result set. An exact
// case-insensitive match always wins; otherwise fuzzy ranking decides and
// the ambiguity is logged.
func (c *Classifier) pickBest(title string, results []SearchResult) (SearchResult, bool) {
	if len(results) == 0 {
		return SearchResult{}, false
	}

	for _, r := range results {
		if strings.EqualFold(r.DisplayTitle(), title) {
			return r, true
		}
	}

	titles := make([]string, len(results))
	for i, r := range results {
		titles[i] = r.DisplayTitle()
	}

	ranks := fuzzy.RankFindNormalizedFold(title, titles)
	if len(ranks) == 0 {
		// Nothing even fuzzy-matches; fall back to the service's own
		// relevance ordering.
		c.logger.Warn("no close title match, trusting first search result",
			"query", title, "picked", results[0].DisplayTitle())
		return results[0], true
	}

	sort.Sort(ranks)
	if len(results) > 1 {
		c.logger.Warn("ambiguous title match, picking closest",
			"query", title, "picked", ranks[0].Target, "candidates", len(results))
	}
	return results[ranks[0].OriginalIndex], true
}

func titleDistance(query, candidate string) int {
	return fuzzy.LevenshteinDistance(strings.ToLower(query), strings.ToLower(candidate))
}
