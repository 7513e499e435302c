package managers

import (
	"context"
	"fmt"
	"io"

	"github.com/vnnkl/plex-to-arrs/internal/models"
)

// Preview wraps a Manager to intercept Add for dry-run and curl modes.
// Both flags are cross-cutting configuration, not per-manager code paths:
// the same decorator serves Radarr and Sonarr.
type Preview struct {
	Manager

	dryRun  bool
	genCurl bool
	output  io.Writer
}

// NewPreview decorates a manager. With dryRun set, Add reports the
// would-be outcome without any remote call. With genCurl set, Add emits
// the equivalent cURL command to output instead of performing the call.
func NewPreview(m Manager, dryRun, genCurl bool, output io.Writer) *Preview {
	return &Preview{Manager: m, dryRun: dryRun, genCurl: genCurl, output: output}
}

// Add intercepts the underlying manager's Add according to the configured
// mode; with neither flag set it calls straight through.
func (p *Preview) Add(ctx context.Context, c models.Classification) (AddResult, error) {
	switch {
	case p.dryRun:
		fmt.Fprintf(p.output, "[DRY RUN] Would add %s to %s (TMDB: %d)\n",
			c.Title, p.Manager.Name(), c.TMDBID)
		return AddResult{Status: StatusAdded, Reason: "dry-run"}, nil
	case p.genCurl:
		req, err := p.Manager.AddRequest(ctx, c)
		if err != nil {
			return AddResult{Status: StatusFailed, Reason: err.Error()}, err
		}
		fmt.Fprintf(p.output, "# %s: %s\n%s\n\n", p.Manager.Name(), c.Title, req.Curl())
		return AddResult{Status: StatusAdded, Reason: "curl generated"}, nil
	default:
		return p.Manager.Add(ctx, c)
	}
}
