package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
	"github.com/vnnkl/plex-to-arrs/internal/shared"
)

// ProfilesList fetches quality profiles from each configured manager and
// flags the profile the configuration points at.
func (r *Runner) ProfilesList(ctx context.Context, cmd *cli.Command) error {
	if len(r.profiles) == 0 {
		return fmt.Errorf("%w: no managers configured", shared.ErrMissingConfig)
	}

	for _, lister := range r.profiles {
		configured := r.configuredProfile(lister.Name())

		profiles, err := lister.QualityProfiles(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch %s profiles: %w", lister.Name(), err)
		}

		r.writePlainHeader(lister.Name())
		found := false
		for _, p := range profiles {
			marker := " "
			if p.ID == configured {
				marker = "*"
				found = true
			}
			r.writePlain("%s %d: %s\n", marker, p.ID, p.Name)
		}
		if !found {
			r.logger.Warn("configured quality profile not found", "manager", lister.Name(), "profile", configured)
			r.writePlain("! configured profile %d does not exist\n", configured)
		}
		r.writePlain("\n")
	}

	return nil
}

func (r *Runner) configuredProfile(manager string) int {
	switch manager {
	case "Radarr":
		return r.config.Radarr.QualityProfile
	case "Sonarr":
		return r.config.Sonarr.QualityProfile
	default:
		return 0
	}
}

// profilesCommand validates quality profile configuration against the managers
func profilesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "profiles",
		Usage: "List manager quality profiles and validate configuration",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "Fetch quality profiles from Radarr and Sonarr",
				Action: r.ProfilesList,
			},
		},
	}
}
