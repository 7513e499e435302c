// package metadata resolves watchlist items to a canonical identity using
// the TMDB search API.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public TMDB v3 API.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// SearchResult represents a single TMDB search match. Movie results carry
// Title/ReleaseDate, TV results carry Name/FirstAirDate.
type SearchResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
}

// DisplayTitle returns the title field appropriate for the result's type.
func (r SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// ReleaseYear extracts the year from whichever date field is populated,
// or 0 when neither parses.
func (r SearchResult) ReleaseYear() int {
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// TMDB is a read-only client for TMDB's search endpoints. Requests share a
// rate limiter so classification bursts stay polite.
type TMDB struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewTMDB creates a TMDB search client.
func NewTMDB(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) *TMDB {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &TMDB{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(4), 1),
		logger:     logger,
	}
}

// SearchMovie searches TMDB movies by title, filtered by release year when
// year is positive.
func (t *TMDB) SearchMovie(ctx context.Context, query string, year int) ([]SearchResult, error) {
	params := url.Values{}
	if year > 0 {
		params.Set("primary_release_year", strconv.Itoa(year))
	}
	return t.search(ctx, "/search/movie", query, params)
}

// SearchTV searches TMDB series by title, filtered by first-air year when
// year is positive.
func (t *TMDB) SearchTV(ctx context.Context, query string, year int) ([]SearchResult, error) {
	params := url.Values{}
	if year > 0 {
		params.Set("first_air_date_year", strconv.Itoa(year))
	}
	return t.search(ctx, "/search/tv", query, params)
}

func (t *TMDB) search(ctx context.Context, endpoint, query string, params url.Values) ([]SearchResult, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
	}

	params.Set("query", query)
	params.Set("api_key", t.apiKey)
	apiURL := t.baseURL + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: tmdb API key rejected", shared.ErrAuth)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: tmdb search returned status %d", shared.ErrTransientFetch, resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tmdb response: %v", shared.ErrTransientFetch, err)
	}

	return payload.Results, nil
}
