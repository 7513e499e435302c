package shared

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Default endpoints and profiles mirror a stock Radarr/Sonarr install.
const (
	defaultRadarrURL        = "http://localhost:7878/api/v3"
	defaultSonarrURL        = "http://localhost:8989/api/v3"
	defaultRadarrRootFolder = "/config/Downloads/complete/Filme"
	defaultSonarrRootFolder = "/config/Downloads/complete/Serien"
	defaultQualityProfile   = 4 // HD-1080p
	defaultLanguageProfile  = 1
	defaultCacheFile        = "sync_cache.json"
	defaultCacheRefreshHrs  = 24
	defaultRequestTimeout   = 30 * time.Second
)

// Config holds all settings for a sync pass. Values are sourced from the
// environment (optionally seeded from a .env file), with an optional TOML
// file layered on top.
type Config struct {
	Plex    PlexConfig    `toml:"plex"`
	Radarr  ManagerConfig `toml:"radarr"`
	Sonarr  ManagerConfig `toml:"sonarr"`
	TMDB    TMDBConfig    `toml:"tmdb"`
	Cache   CacheConfig   `toml:"cache"`
	DryRun  bool          `toml:"dry_run"`
	GenCurl bool          `toml:"generate_curl"`

	// RequestTimeout bounds every remote call so a run can never hang.
	RequestTimeout time.Duration `toml:"-"`
}

// PlexConfig contains watchlist source credentials.
type PlexConfig struct {
	Token string `toml:"token"`
}

// ManagerConfig contains connection settings for one downstream manager.
type ManagerConfig struct {
	URL             string `toml:"url"`
	APIKey          string `toml:"api_key"`
	QualityProfile  int    `toml:"quality_profile"`
	LanguageProfile int    `toml:"language_profile"`
	RootFolder      string `toml:"root_folder"`
}

// TMDBConfig contains metadata lookup credentials.
type TMDBConfig struct {
	APIKey string `toml:"api_key"`
}

// CacheConfig contains sync cache settings.
type CacheConfig struct {
	Path         string `toml:"path"`
	RefreshHours int    `toml:"refresh_hours"`
}

// RefreshAge returns the cache staleness threshold as a duration.
func (c CacheConfig) RefreshAge() time.Duration {
	return time.Duration(c.RefreshHours) * time.Hour
}

// FromEnv builds a Config from environment variables, loading a .env file
// first when one is present in the working directory.
func FromEnv() *Config {
	_ = godotenv.Load()

	return &Config{
		Plex: PlexConfig{Token: os.Getenv("PLEX_TOKEN")},
		Radarr: ManagerConfig{
			URL:            envOr("RADARR_URL", defaultRadarrURL),
			APIKey:         os.Getenv("RADARR_API_KEY"),
			QualityProfile: envInt("RADARR_QUALITY_PROFILE", defaultQualityProfile),
			RootFolder:     envOr("RADARR_ROOT_FOLDER", defaultRadarrRootFolder),
		},
		Sonarr: ManagerConfig{
			URL:             envOr("SONARR_URL", defaultSonarrURL),
			APIKey:          os.Getenv("SONARR_API_KEY"),
			QualityProfile:  envInt("SONARR_QUALITY_PROFILE", defaultQualityProfile),
			LanguageProfile: envInt("SONARR_LANGUAGE_PROFILE", defaultLanguageProfile),
			RootFolder:      envOr("SONARR_ROOT_FOLDER", defaultSonarrRootFolder),
		},
		TMDB: TMDBConfig{APIKey: os.Getenv("TMDB_API_KEY")},
		Cache: CacheConfig{
			Path:         envOr("CACHE_FILE", defaultCacheFile),
			RefreshHours: envInt("CACHE_REFRESH_HOURS", defaultCacheRefreshHrs),
		},
		DryRun:         envBool("DRY_RUN"),
		GenCurl:        envBool("GENERATE_CURL"),
		RequestTimeout: defaultRequestTimeout,
	}
}

// ApplyFile layers a TOML configuration file over the receiver. Zero-valued
// fields in the file leave the existing values untouched.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var overlay Config
	if err := toml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("%w: failed to parse %s: %v", ErrInvalidConfig, path, err)
	}

	applyString(&c.Plex.Token, overlay.Plex.Token)
	applyManager(&c.Radarr, overlay.Radarr)
	applyManager(&c.Sonarr, overlay.Sonarr)
	applyString(&c.TMDB.APIKey, overlay.TMDB.APIKey)
	applyString(&c.Cache.Path, overlay.Cache.Path)
	applyInt(&c.Cache.RefreshHours, overlay.Cache.RefreshHours)
	if overlay.DryRun {
		c.DryRun = true
	}
	if overlay.GenCurl {
		c.GenCurl = true
	}

	return nil
}

// Validate checks that every credential a sync pass depends on is present.
func (c *Config) Validate() error {
	missing := []struct{ name, value string }{
		{"PLEX_TOKEN", c.Plex.Token},
		{"RADARR_API_KEY", c.Radarr.APIKey},
		{"SONARR_API_KEY", c.Sonarr.APIKey},
		{"TMDB_API_KEY", c.TMDB.APIKey},
	}

	for _, m := range missing {
		if m.value == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidConfig, m.name)
		}
	}

	if c.Radarr.QualityProfile <= 0 || c.Sonarr.QualityProfile <= 0 {
		return fmt.Errorf("%w: quality profile ids must be positive", ErrInvalidConfig)
	}
	if c.Cache.RefreshHours <= 0 {
		return fmt.Errorf("%w: cache refresh hours must be positive", ErrInvalidConfig)
	}

	return nil
}

func applyManager(dst *ManagerConfig, src ManagerConfig) {
	applyString(&dst.URL, src.URL)
	applyString(&dst.APIKey, src.APIKey)
	applyString(&dst.RootFolder, src.RootFolder)
	applyInt(&dst.QualityProfile, src.QualityProfile)
	applyInt(&dst.LanguageProfile, src.LanguageProfile)
}

func applyString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

func applyInt(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}
