// package managers defines the shared "add item to library" capability and
// its Radarr and Sonarr implementations.
//
// Both managers expose the identical capability set; only the target
// service, the identifier scheme, and the payload shape differ. The
// orchestrator selects a Manager by classified kind instead of branching
// on media type.
package managers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
	"golang.org/x/time/rate"
)

// Status is the outcome of an add request.
type Status string

const (
	StatusAdded          Status = "added"
	StatusAlreadyPresent Status = "already_present"
	StatusFailed         Status = "failed"
)

// AddResult describes the outcome of submitting an item to a manager.
// already_present is not an error: the cache catches up to reality.
type AddResult struct {
	Status Status
	Reason string
}

// Request is a fully-formed manager API call, exposed so the preview
// decorator can describe a call without performing it.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    []byte
}

// Curl renders the request as a reproducible cURL command.
func (r *Request) Curl() string {
	return shared.CurlCommand(r.Method, r.URL, r.Headers, r.Body)
}

// Manager is the capability a downstream media manager exposes to the
// sync engine.
type Manager interface {
	// Name identifies the manager in logs and reports.
	Name() string

	// Exists queries the manager's library for the item, guarding against
	// titles added through any path other than this tool.
	Exists(ctx context.Context, c models.Classification) (bool, error)

	// AddRequest builds the API call that Add would perform.
	AddRequest(ctx context.Context, c models.Classification) (*Request, error)

	// Add submits the item for tracking at the configured quality profile.
	Add(ctx context.Context, c models.Classification) (AddResult, error)
}

// Profile is a manager-side quality profile.
type Profile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// arrError is the error body Radarr and Sonarr return on rejected adds.
type arrError struct {
	ErrorMessage string `json:"errorMessage"`
}

// arrClient holds the HTTP plumbing shared by both manager clients. The
// rate limiter keeps request pacing polite toward self-hosted services.
type arrClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

func newArrClient(baseURL, apiKey string, timeout time.Duration, logger *log.Logger) arrClient {
	if logger == nil {
		logger = log.Default()
	}
	return arrClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		logger:     logger,
	}
}

func (a *arrClient) headers() map[string]string {
	return map[string]string{
		"X-Api-Key":    a.apiKey,
		"Content-Type": "application/json",
	}
}

// get performs an authenticated GET and decodes the JSON response.
func (a *arrClient) get(ctx context.Context, path string, query url.Values, result any) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrManagerAPI, err)
	}

	apiURL := a.baseURL + path
	if len(query) > 0 {
		apiURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Api-Key", a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrManagerAPI, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: API key rejected (status 401)", shared.ErrManagerAPI)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", shared.ErrManagerAPI, resp.StatusCode, path)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrManagerAPI, err)
		}
	}

	return nil
}

// postAdd performs a prepared add request and classifies the outcome.
func (a *arrClient) postAdd(ctx context.Context, r *Request) (AddResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return AddResult{Status: StatusFailed, Reason: err.Error()}, fmt.Errorf("%w: %v", shared.ErrManagerAPI, err)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return AddResult{Status: StatusFailed, Reason: err.Error()}, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return AddResult{Status: StatusFailed, Reason: err.Error()}, fmt.Errorf("%w: %v", shared.ErrManagerAPI, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		return AddResult{Status: StatusAdded}, nil
	case http.StatusBadRequest:
		// A 400 whose message mentions a prior add means the item is
		// already tracked; treat it like success so the cache self-heals.
		var errs []arrError
		if err := json.NewDecoder(resp.Body).Decode(&errs); err == nil && len(errs) > 0 {
			msg := errs[0].ErrorMessage
			if strings.Contains(msg, "already been added") {
				return AddResult{Status: StatusAlreadyPresent, Reason: msg}, nil
			}
			return AddResult{Status: StatusFailed, Reason: msg},
				fmt.Errorf("%w: %s", shared.ErrManagerAPI, msg)
		}
		return AddResult{Status: StatusFailed, Reason: "bad request"},
			fmt.Errorf("%w: status 400", shared.ErrManagerAPI)
	default:
		reason := fmt.Sprintf("status %d", resp.StatusCode)
		return AddResult{Status: StatusFailed, Reason: reason},
			fmt.Errorf("%w: %s", shared.ErrManagerAPI, reason)
	}
}

// qualityProfiles fetches the manager's configured quality profiles.
func (a *arrClient) qualityProfiles(ctx context.Context) ([]Profile, error) {
	var profiles []Profile
	if err := a.get(ctx, "/qualityProfile", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}
