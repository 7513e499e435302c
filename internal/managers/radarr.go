package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

// Radarr tracks movies. Items are addressed by TMDB id throughout.
type Radarr struct {
	arrClient
	qualityProfile int
	rootFolder     string
}

// NewRadarr creates a Radarr manager client from its configuration.
func NewRadarr(cfg shared.ManagerConfig, timeout time.Duration, logger *log.Logger) *Radarr {
	return &Radarr{
		arrClient:      newArrClient(cfg.URL, cfg.APIKey, timeout, logger),
		qualityProfile: cfg.QualityProfile,
		rootFolder:     cfg.RootFolder,
	}
}

func (r *Radarr) Name() string {
	return "Radarr"
}

// Exists checks whether the movie is already in Radarr's library.
func (r *Radarr) Exists(ctx context.Context, c models.Classification) (bool, error) {
	query := url.Values{}
	query.Set("tmdbId", strconv.FormatInt(c.TMDBID, 10))

	var movies []struct {
		ID int64 `json:"id"`
	}
	if err := r.get(ctx, "/movie", query, &movies); err != nil {
		return false, err
	}

	return len(movies) > 0, nil
}

// AddRequest builds the movie add call without performing it.
func (r *Radarr) AddRequest(_ context.Context, c models.Classification) (*Request, error) {
	payload := map[string]any{
		"title":            c.Title,
		"qualityProfileId": r.qualityProfile,
		"tmdbId":           c.TMDBID,
		"rootFolderPath":   r.rootFolder,
		"monitored":        true,
		"addOptions": map[string]any{
			"searchForMovie": true,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	return &Request{
		Method:  http.MethodPost,
		URL:     r.baseURL + "/movie",
		Headers: r.headers(),
		Body:    body,
	}, nil
}

// Add submits the movie for monitored download at the configured profile.
func (r *Radarr) Add(ctx context.Context, c models.Classification) (AddResult, error) {
	req, err := r.AddRequest(ctx, c)
	if err != nil {
		return AddResult{Status: StatusFailed, Reason: err.Error()}, err
	}

	r.logger.Debug("adding movie", "title", c.Title, "tmdbId", c.TMDBID)
	return r.postAdd(ctx, req)
}

// QualityProfiles lists the profiles configured in Radarr.
func (r *Radarr) QualityProfiles(ctx context.Context) ([]Profile, error) {
	return r.qualityProfiles(ctx)
}
