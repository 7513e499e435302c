package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vnnkl/plex-to-arrs/internal/models"
	tu "github.com/vnnkl/plex-to-arrs/internal/testing"
)

func TestItemKey(t *testing.T) {
	t.Run("stable for identical input", func(t *testing.T) {
		a := ItemKey("Inception", models.KindMovie, 2010)
		b := ItemKey("Inception", models.KindMovie, 2010)
		if a != b {
			t.Errorf("expected identical keys, got %s and %s", a, b)
		}
	})

	t.Run("known vector", func(t *testing.T) {
		key := ItemKey("Inception", models.KindMovie, 2010)
		if key != "72e3b1be225bc98ce00d24eeb3b8508e" {
			t.Errorf("unexpected key for Inception|movie|2010: %s", key)
		}
	})

	t.Run("distinct per kind", func(t *testing.T) {
		movie := ItemKey("Fargo", models.KindMovie, 1996)
		show := ItemKey("Fargo", models.KindShow, 1996)
		if movie == show {
			t.Error("movie and show with the same title should have distinct keys")
		}
	})

	t.Run("distinct per year", func(t *testing.T) {
		a := ItemKey("Dune", models.KindMovie, 1984)
		b := ItemKey("Dune", models.KindMovie, 2021)
		if a == b {
			t.Error("same title across years should have distinct keys")
		}
	})

	t.Run("missing year folds to unknown", func(t *testing.T) {
		a := ItemKey("Dune", models.KindMovie, 0)
		b := ItemKey("Dune", models.KindMovie, -3)
		if a != b {
			t.Error("non-positive years should produce the same key")
		}
	})
}

func TestFile(t *testing.T) {
	t.Run("Record and Has", func(t *testing.T) {
		f := NewFile()
		key := ItemKey("Severance", models.KindShow, 2022)

		if f.Has(key) {
			t.Error("empty cache should not contain key")
		}

		f.Record(key, Entry{Title: "Severance", Kind: models.KindShow, Year: 2022, Target: "Sonarr"})

		if !f.Has(key) {
			t.Error("recorded key should be present")
		}
		if f.Len() != 1 {
			t.Errorf("expected 1 entry, got %d", f.Len())
		}
		if f.SyncedItems[key].SyncedAt.IsZero() {
			t.Error("Record should stamp SyncedAt")
		}
	})

	t.Run("Record on nil map", func(t *testing.T) {
		f := &File{}
		f.Record("key", Entry{Title: "x"})
		if !f.Has("key") {
			t.Error("Record should initialize the map")
		}
	})

	t.Run("IsStale", func(t *testing.T) {
		f := NewFile()
		if f.IsStale(24 * time.Hour) {
			t.Error("fresh cache should not be stale")
		}

		f.LastRefresh = time.Now().Add(-25 * time.Hour)
		if !f.IsStale(24 * time.Hour) {
			t.Error("cache older than maxAge should be stale")
		}
	})
}

func TestStore(t *testing.T) {
	t.Run("Load missing file yields empty cache", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "nope.json"), nil)

		f := store.Load()
		if f == nil {
			t.Fatal("Load should never return nil")
		}
		if f.Len() != 0 {
			t.Errorf("expected empty cache, got %d entries", f.Len())
		}
	})

	t.Run("Load malformed file yields empty cache", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync_cache.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}

		store := NewStore(path, nil)
		f := store.Load()
		if f == nil || f.Len() != 0 {
			t.Error("malformed cache should load as empty, not fail")
		}
	})

	t.Run("Save then Load roundtrip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync_cache.json")
		store := NewStore(path, nil)

		f := NewFile()
		key := ItemKey("Heat", models.KindMovie, 1995)
		f.Record(key, Entry{Title: "Heat", Kind: models.KindMovie, Year: 1995, Target: "Radarr"})

		if err := store.Save(f); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		loaded := store.Load()
		if !loaded.Has(key) {
			t.Error("loaded cache should contain saved entry")
		}
		entry := loaded.SyncedItems[key]
		if entry.Title != "Heat" || entry.Kind != models.KindMovie || entry.Target != "Radarr" {
			t.Errorf("loaded entry mismatch: %+v", entry)
		}
		if loaded.LastRefresh.IsZero() {
			t.Error("loaded cache should carry last refresh timestamp")
		}
	})

	t.Run("Save leaves no temp file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync_cache.json")
		store := NewStore(path, nil)

		if err := store.Save(NewFile()); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
			t.Error("temp file should be renamed away after Save")
		}
	})

	t.Run("Load tolerates unknown fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sync_cache.json")
		payload := `{"synced_items": {"abc": {"title": "Heat", "media_type": "movie", "future_field": true}}, "last_refresh": "2026-01-02T15:04:05Z", "schema": 2}`
		if err := os.WriteFile(path, []byte(payload), 0644); err != nil {
			t.Fatal(err)
		}

		store := NewStore(path, nil)
		f := store.Load()
		if !f.Has("abc") {
			t.Error("entries should survive unknown sibling fields")
		}
	})
}
