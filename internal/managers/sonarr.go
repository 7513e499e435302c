package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

// Sonarr tracks series. Sonarr's own identifier scheme is TVDB, so every
// operation first resolves the TMDB classification to a tvdbId via
// Sonarr's lookup endpoint.
type Sonarr struct {
	arrClient
	qualityProfile  int
	languageProfile int
	rootFolder      string
}

// NewSonarr creates a Sonarr manager client from its configuration.
func NewSonarr(cfg shared.ManagerConfig, timeout time.Duration, logger *log.Logger) *Sonarr {
	return &Sonarr{
		arrClient:       newArrClient(cfg.URL, cfg.APIKey, timeout, logger),
		qualityProfile:  cfg.QualityProfile,
		languageProfile: cfg.LanguageProfile,
		rootFolder:      cfg.RootFolder,
	}
}

func (s *Sonarr) Name() string {
	return "Sonarr"
}

type seriesLookup struct {
	Title  string `json:"title"`
	TVDBID int64  `json:"tvdbId"`
	Year   int    `json:"year"`
}

// lookup resolves a series title to Sonarr's lookup result, taking the
// first match as the most relevant one.
func (s *Sonarr) lookup(ctx context.Context, title string) (*seriesLookup, error) {
	query := url.Values{}
	query.Set("term", title)

	var results []seriesLookup
	if err := s.get(ctx, "/series/lookup", query, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no series found for %q", shared.ErrManagerAPI, title)
	}

	return &results[0], nil
}

// Exists checks whether the series is already in Sonarr's library.
func (s *Sonarr) Exists(ctx context.Context, c models.Classification) (bool, error) {
	found, err := s.lookup(ctx, c.Title)
	if err != nil {
		return false, err
	}

	var series []struct {
		TVDBID int64 `json:"tvdbId"`
	}
	if err := s.get(ctx, "/series", nil, &series); err != nil {
		return false, err
	}

	for _, sr := range series {
		if sr.TVDBID == found.TVDBID {
			return true, nil
		}
	}
	return false, nil
}

// AddRequest builds the series add call, resolving the tvdbId first.
func (s *Sonarr) AddRequest(ctx context.Context, c models.Classification) (*Request, error) {
	found, err := s.lookup(ctx, c.Title)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"title":             found.Title,
		"qualityProfileId":  s.qualityProfile,
		"languageProfileId": s.languageProfile,
		"tvdbId":            found.TVDBID,
		"rootFolderPath":    s.rootFolder,
		"monitored":         true,
		"addOptions": map[string]any{
			"searchForMissingEpisodes": true,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Request{
		Method:  http.MethodPost,
		URL:     s.baseURL + "/series",
		Headers: s.headers(),
		Body:    body,
	}, nil
}

// Add submits the series for monitored download at the configured profile.
func (s *Sonarr) Add(ctx context.Context, c models.Classification) (AddResult, error) {
	req, err := s.AddRequest(ctx, c)
	if err != nil {
		return AddResult{Status: StatusFailed, Reason: err.Error()}, err
	}

	s.logger.Debug("adding series", "title", c.Title, "tmdbId", c.TMDBID)
	return s.postAdd(ctx, req)
}

// QualityProfiles lists the profiles configured in Sonarr.
func (s *Sonarr) QualityProfiles(ctx context.Context) ([]Profile, error) {
	return s.qualityProfiles(ctx)
}
