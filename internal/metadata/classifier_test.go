package metadata

import (
	"context"
	"errors"
	"testing"

	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

type mockSearcher struct {
	movieResults map[string][]SearchResult // keyed by query
	tvResults    map[string][]SearchResult
	movieErr     error
	tvErr        error

	movieCalls []int // years passed to SearchMovie, in order
	tvCalls    []int
}

func (m *mockSearcher) SearchMovie(ctx context.Context, query string, year int) ([]SearchResult, error) {
	m.movieCalls = append(m.movieCalls, year)
	if m.movieErr != nil {
		return nil, m.movieErr
	}
	if year > 0 {
		// Year-filtered lookups only return results whose year matches.
		var filtered []SearchResult
		for _, r := range m.movieResults[query] {
			if r.ReleaseYear() == year {
				filtered = append(filtered, r)
			}
		}
		return filtered, nil
	}
	return m.movieResults[query], nil
}

func (m *mockSearcher) SearchTV(ctx context.Context, query string, year int) ([]SearchResult, error) {
	m.tvCalls = append(m.tvCalls, year)
	if m.tvErr != nil {
		return nil, m.tvErr
	}
	if year > 0 {
		var filtered []SearchResult
		for _, r := range m.tvResults[query] {
			if r.ReleaseYear() == year {
				filtered = append(filtered, r)
			}
		}
		return filtered, nil
	}
	return m.tvResults[query], nil
}

func TestClassifier_Classify(t *testing.T) {
	t.Run("trusts movie kind from source", func(t *testing.T) {
		searcher := &mockSearcher{
			movieResults: map[string][]SearchResult{
				"Inception": {{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}},
			},
		}
		c := NewClassifier(searcher, nil)

		got, err := c.Classify(context.Background(), models.Item{Title: "Inception", Year: 2010, Kind: models.KindMovie})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got.Kind != models.KindMovie || got.TMDBID != 27205 || got.Year != 2010 {
			t.Errorf("unexpected classification: %+v", got)
		}
		if len(searcher.tvCalls) != 0 {
			t.Error("movie items should never hit the TV endpoint")
		}
	})

	t.Run("trusts show kind from source", func(t *testing.T) {
		searcher := &mockSearcher{
			tvResults: map[string][]SearchResult{
				"Severance": {{ID: 95396, Name: "Severance", FirstAirDate: "2022-02-18"}},
			},
		}
		c := NewClassifier(searcher, nil)

		got, err := c.Classify(context.Background(), models.Item{Title: "Severance", Year: 2022, Kind: models.KindShow})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got.Kind != models.KindShow || got.TMDBID != 95396 || got.Title != "Severance" {
			t.Errorf("unexpected classification: %+v", got)
		}
		if len(searcher.movieCalls) != 0 {
			t.Error("show items should never hit the movie endpoint")
		}
	})

	t.Run("retries without year filter when filtered search is empty", func(t *testing.T) {
		// Source says 2011 but TMDB has 2010; the year-filtered search
		// misses and the unfiltered retry recovers.
		searcher := &mockSearcher{
			movieResults: map[string][]SearchResult{
				"Inception": {{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}},
			},
		}
		c := NewClassifier(searcher, nil)

		got, err := c.Classify(context.Background(), models.Item{Title: "Inception", Year: 2011, Kind: models.KindMovie})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got.TMDBID != 27205 {
			t.Errorf("expected fallback match, got %+v", got)
		}
		if len(searcher.movieCalls) != 2 || searcher.movieCalls[0] != 2011 || searcher.movieCalls[1] != 0 {
			t.Errorf("expected year-filtered then unfiltered lookup, got %v", searcher.movieCalls)
		}
	})

	t.Run("exact title match beats relevance order", func(t *testing.T) {
		searcher := &mockSearcher{
			movieResults: map[string][]SearchResult{
				"Dune": {
					{ID: 1, Title: "Dune: Part Two", ReleaseDate: "2024-02-27"},
					{ID: 2, Title: "Dune", ReleaseDate: "2021-09-15"},
				},
			},
		}
		c := NewClassifier(searcher, nil)

		got, err := c.Classify(context.Background(), models.Item{Title: "Dune", Kind: models.KindMovie})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got.TMDBID != 2 {
			t.Errorf("expected exact title match (id 2), got %+v", got)
		}
	})

	t.Run("unknown kind resolves via both endpoints", func(t *testing.T) {
		searcher := &mockSearcher{
			movieResults: map[string][]SearchResult{},
			tvResults: map[string][]SearchResult{
				"The Bear": {{ID: 136315, Name: "The Bear", FirstAirDate: "2022-06-23"}},
			},
		}
		c := NewClassifier(searcher, nil)

		got, err := c.Classify(context.Background(), models.Item{Title: "The Bear", Kind: models.KindUnknown})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got.Kind != models.KindShow || got.TMDBID != 136315 {
			t.Errorf("expected show classification, got %+v", got)
		}
	})

	t.Run("unknown kind matching both prefers closer title", func(t *testing.T) {
		searcher := &mockSearcher{
			movieResults: map[string][]SearchResult{
				"Fargo": {{ID: 275, Title: "Fargo", ReleaseDate: "1996-03-08"}},
			},
			tvResults: map[string][]SearchResult{
				"Fargo": {{ID: 60622, Name: "Fargo: A True Story", FirstAirDate: "2014-04-15"}},
			},
		}
		c := NewClassifier(searcher, nil)

		got, err := c.Classify(context.Background(), models.Item{Title: "Fargo", Kind: models.KindUnknown})
		if err != nil {
			t.Fatalf("Classify failed: %v", err)
		}
		if got.Kind != models.KindMovie || got.TMDBID != 275 {
			t.Errorf("expected the exact movie title to win, got %+v", got)
		}
	})

	t.Run("no match anywhere fails with classification error", func(t *testing.T) {
		searcher := &mockSearcher{}
		c := NewClassifier(searcher, nil)

		_, err := c.Classify(context.Background(), models.Item{Title: "Completely Unknown", Kind: models.KindUnknown})
		if !errors.Is(err, shared.ErrClassification) {
			t.Errorf("expected ErrClassification, got %v", err)
		}
	})

	t.Run("lookup failure wraps classification error", func(t *testing.T) {
		searcher := &mockSearcher{movieErr: errors.New("boom")}
		c := NewClassifier(searcher, nil)

		_, err := c.Classify(context.Background(), models.Item{Title: "Heat", Kind: models.KindMovie})
		if !errors.Is(err, shared.ErrClassification) {
			t.Errorf("expected ErrClassification, got %v", err)
		}
	})
}
