// package cache persists the set of already-dispatched watchlist items as a
// flat JSON record on disk.
//
// The cache is advisory: a missing or corrupt file degrades to an empty
// cache and a full re-sync, which is safe because the manager clients check
// for existing entries before adding.
package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/vnnkl/plex-to-arrs/internal/models"
)

// Entry records one successfully dispatched item.
type Entry struct {
	Title    string      `json:"title"`
	Kind     models.Kind `json:"media_type"`
	Year     int         `json:"year,omitempty"`
	Target   string      `json:"target_service,omitempty"`
	SyncedAt time.Time   `json:"synced_at"`
}

// File is the on-disk cache structure. Unknown fields in older or newer
// files are ignored on load so format changes never break a sync.
type File struct {
	SyncedItems map[string]Entry `json:"synced_items"`
	LastRefresh time.Time        `json:"last_refresh"`
}

// NewFile returns an empty cache stamped with the current time.
func NewFile() *File {
	return &File{
		SyncedItems: map[string]Entry{},
		LastRefresh: time.Now(),
	}
}

// ItemKey derives the stable cache key for a watchlist item. The key is
// computable before any metadata lookup so diffing never needs the network.
func ItemKey(title string, kind models.Kind, year int) string {
	y := "unknown"
	if year > 0 {
		y = fmt.Sprintf("%d", year)
	}
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s|%s", title, kind, y)))
	return fmt.Sprintf("%x", sum)
}

// Has reports whether an item key is already recorded.
func (f *File) Has(key string) bool {
	_, ok := f.SyncedItems[key]
	return ok
}

// Record upserts one entry with the current timestamp.
func (f *File) Record(key string, e Entry) {
	if f.SyncedItems == nil {
		f.SyncedItems = map[string]Entry{}
	}
	e.SyncedAt = time.Now()
	f.SyncedItems[key] = e
}

// IsStale reports whether the last full refresh is older than maxAge. A
// stale cache is still loaded, but the engine treats it as advisory and
// re-verifies items against the managers instead of trusting it blindly.
func (f *File) IsStale(maxAge time.Duration) bool {
	return time.Since(f.LastRefresh) > maxAge
}

// Len returns the number of recorded entries.
func (f *File) Len() int {
	return len(f.SyncedItems)
}

// Store reads and writes the cache file at a fixed path.
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore creates a Store for the given path.
func NewStore(path string, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	return &Store{path: path, logger: logger}
}

// Path returns the location of the cache file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the cache from disk. It fails softly: a missing, unreadable,
// or malformed file yields an empty cache with a warning rather than an
// error, so cache corruption can never block synchronization.
func (s *Store) Load() *File {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("sync cache unreadable, starting empty", "path", s.path, "err", err)
		}
		return NewFile()
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		s.logger.Warn("sync cache malformed, starting empty", "path", s.path, "err", err)
		return NewFile()
	}

	if f.SyncedItems == nil {
		f.SyncedItems = map[string]Entry{}
	}

	return &f
}

// Save writes the full cache atomically: marshal to a temp file alongside
// the target, then rename, so a crash mid-write never truncates the cache.
func (s *Store) Save(f *File) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync cache: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write sync cache: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace sync cache: %w", err)
	}

	return nil
}
