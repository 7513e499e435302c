// package watchlist retrieves the user's watchlist from the Plex metadata
// service.
package watchlist

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/models"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

const (
	// DefaultBaseURL is Plex's hosted metadata provider, which serves the
	// account-level watchlist independently of any media server.
	DefaultBaseURL = "https://metadata.provider.plex.tv"

	watchlistPath = "/library/sections/watchlist/all"
	clientID      = "plex-to-arrs"
	userAgent     = "plex-to-arrs/1.0"
)

// Client fetches the Plex watchlist. It performs no writes anywhere; the
// only side effect is the network call itself.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewClient creates a watchlist client authenticated by a Plex token.
func NewClient(baseURL, token string, timeout time.Duration, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// mediaContainer mirrors the XML payload of the watchlist endpoint. Shows
// arrive as Directory elements and movies as Video elements.
type mediaContainer struct {
	XMLName     xml.Name `xml:"MediaContainer"`
	Directories []entry  `xml:"Directory"`
	Videos      []entry  `xml:"Video"`
}

type entry struct {
	RatingKey string `xml:"ratingKey,attr"`
	Title     string `xml:"title,attr"`
	Type      string `xml:"type,attr"`
	Year      int    `xml:"year,attr"`
}

// Fetch retrieves the current watchlist. Upstream ordering is preserved
// within each element group; it only affects report readability.
//
// A rejected token maps to [shared.ErrAuth]; transport failures, timeouts,
// and server errors map to [shared.ErrTransientFetch].
func (c *Client) Fetch(ctx context.Context) ([]models.Item, error) {
	reqURL := c.baseURL + watchlistPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("X-Plex-Token", c.token)
	req.Header.Set("X-Plex-Client-Identifier", clientID)
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug("fetching watchlist", "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTransientFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrTransientFetch, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: plex token rejected", shared.ErrAuth)
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: plex returned status %d", shared.ErrTransientFetch, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", shared.ErrTransientFetch, resp.StatusCode)
	}

	var container mediaContainer
	if err := xml.Unmarshal(body, &container); err != nil {
		return nil, fmt.Errorf("%w: failed to parse watchlist: %v", shared.ErrTransientFetch, err)
	}

	items := make([]models.Item, 0, len(container.Directories)+len(container.Videos))
	for _, e := range append(container.Directories, container.Videos...) {
		items = append(items, models.Item{
			RatingKey: e.RatingKey,
			Title:     e.Title,
			Year:      e.Year,
			Kind:      models.ParseKind(e.Type),
		})
	}

	c.logger.Debug("watchlist fetched", "items", len(items))
	return items, nil
}
