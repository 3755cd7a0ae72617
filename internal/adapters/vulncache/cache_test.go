package vulncache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

func TestSQLiteCache(t *testing.T) {
	cache, err := NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	ctx := context.Background()

	// Test 1: Upsert and retrieve
	t.Run("UpsertRecord", func(t *testing.T) {
		rec := domain.VulnerabilityRecord{
			ID:          "CVE-2021-41773",
			Title:       "Apache HTTP Server path traversal",
			Description: "A flaw was found in a change made to path normalization in Apache HTTP Server 2.4.49.",
			CVSSScore:   7.5,
			Published:   time.Date(2021, 10, 5, 4, 15, 0, 0, time.UTC),
		}

		if err := cache.UpsertRecord(ctx, rec); err != nil {
			t.Errorf("UpsertRecord failed: %v", err)
		}

		got, err := cache.GetByID(ctx, "CVE-2021-41773")
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if got.Title != rec.Title {
			t.Errorf("Title mismatch: got %q, want %q", got.Title, rec.Title)
		}
		if got.CVSSScore != 7.5 {
			t.Errorf("CVSSScore mismatch: got %v, want 7.5", got.CVSSScore)
		}
		if !got.Published.Equal(rec.Published) {
			t.Errorf("Published mismatch: got %v, want %v", got.Published, rec.Published)
		}
	})

	// Test 2: Case-insensitive id lookup
	t.Run("GetByIDCaseInsensitive", func(t *testing.T) {
		got, err := cache.GetByID(ctx, "cve-2021-41773")
		if err != nil {
			t.Fatalf("GetByID with lowercase id failed: %v", err)
		}
		if got.ID != "CVE-2021-41773" {
			t.Errorf("Expected uppercased stored id, got %q", got.ID)
		}
	})

	// Test 3: Miss returns the sentinel
	t.Run("GetByIDMiss", func(t *testing.T) {
		_, err := cache.GetByID(ctx, "CVE-0000-0000")
		if !errors.Is(err, ports.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on miss, got %v", err)
		}
	})

	// Test 4: Upsert overwrites
	t.Run("UpsertOverwrites", func(t *testing.T) {
		rec := domain.VulnerabilityRecord{
			ID:        "CVE-2021-41773",
			Title:     "Updated title",
			CVSSScore: 9.8,
		}
		if err := cache.UpsertRecord(ctx, rec); err != nil {
			t.Errorf("Second upsert failed: %v", err)
		}

		got, err := cache.GetByID(ctx, "CVE-2021-41773")
		if err != nil {
			t.Fatalf("GetByID after overwrite failed: %v", err)
		}
		if got.Title != "Updated title" || got.CVSSScore != 9.8 {
			t.Errorf("Overwrite not applied: %+v", got)
		}

		count, err := cache.GetTotalCount(ctx)
		if err != nil {
			t.Errorf("GetTotalCount failed: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 record after overwrite, got %d", count)
		}
	})

	// Test 5: Empty id rejected
	t.Run("EmptyIDRejected", func(t *testing.T) {
		if err := cache.UpsertRecord(ctx, domain.VulnerabilityRecord{}); err == nil {
			t.Error("Expected error for empty record id")
		}
	})

	// Test 6: Sync status round trip
	t.Run("SyncStatus", func(t *testing.T) {
		// Never-seeded cache reports zero time, not an error
		last, err := cache.GetLastSyncTime(ctx)
		if err != nil {
			t.Fatalf("GetLastSyncTime on fresh cache failed: %v", err)
		}
		if !last.IsZero() {
			t.Errorf("Expected zero sync time before first load, got %v", last)
		}

		status := domain.FeedSyncStatus{
			LastSyncTime: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
			RecordCount:  1,
		}
		if err := cache.UpdateSyncStatus(ctx, status); err != nil {
			t.Errorf("UpdateSyncStatus failed: %v", err)
		}

		last, err = cache.GetLastSyncTime(ctx)
		if err != nil {
			t.Errorf("GetLastSyncTime failed: %v", err)
		}
		if !last.Equal(status.LastSyncTime) {
			t.Errorf("Sync time mismatch: got %v, want %v", last, status.LastSyncTime)
		}
	})
}

func TestSeedLoader(t *testing.T) {
	cache, err := NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	dump := `{
	  "vulnerabilities": [
	    {"cve": {
	      "id": "CVE-2021-41773",
	      "published": "2021-10-05T04:15:00.000",
	      "descriptions": [{"lang": "en", "value": "A flaw was found in Apache HTTP Server 2.4.49. Path traversal."}],
	      "metrics": {"cvssMetricV31": [{"cvssData": {"baseScore": 7.5}}]}
	    }},
	    {"cve": {
	      "id": "CVE-2019-20372",
	      "published": "2020-01-09T00:00:00.000",
	      "descriptions": [{"lang": "en", "value": "NGINX request smuggling."}],
	      "metrics": {"cvssMetricV2": [{"cvssData": {"baseScore": 4.3}}]}
	    }}
	  ]
	}`

	path := filepath.Join(t.TempDir(), "dump.json")
	if err := os.WriteFile(path, []byte(dump), 0644); err != nil {
		t.Fatalf("Failed to write dump file: %v", err)
	}

	ctx := context.Background()
	loader := NewSeedLoader(cache)
	if err := loader.LoadFromFile(ctx, path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	count, err := cache.GetTotalCount(ctx)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 records, got %d", count)
	}

	rec, err := cache.GetByID(ctx, "CVE-2021-41773")
	if err != nil {
		t.Fatalf("GetByID after load failed: %v", err)
	}
	if rec.Title != "A flaw was found in Apache HTTP Server 2.4.49" {
		t.Errorf("Unexpected derived title: %q", rec.Title)
	}
	if rec.CVSSScore != 7.5 {
		t.Errorf("CVSSScore = %v, want 7.5", rec.CVSSScore)
	}

	last, err := cache.GetLastSyncTime(ctx)
	if err != nil {
		t.Fatalf("GetLastSyncTime failed: %v", err)
	}
	if last.IsZero() {
		t.Error("Sync time should be set after a load")
	}

	// Missing files are an error, not a panic
	if err := loader.LoadFromFile(ctx, filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("Expected error for missing seed file")
	}
}

func TestSeedLoaderMultipleFiles(t *testing.T) {
	cache, err := NewSQLiteCache(":memory:")
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer cache.Close()

	dump := `{"vulnerabilities": [{"cve": {
	  "id": "CVE-2019-20372",
	  "published": "2020-01-09T00:00:00.000",
	  "descriptions": [{"lang": "en", "value": "NGINX request smuggling."}],
	  "metrics": {"cvssMetricV2": [{"cvssData": {"baseScore": 4.3}}]}
	}}]}`

	dir := t.TempDir()
	good := filepath.Join(dir, "nvdcve-2.0-2020.json")
	if err := os.WriteFile(good, []byte(dump), 0644); err != nil {
		t.Fatalf("Failed to write dump file: %v", err)
	}
	missing := filepath.Join(dir, "nvdcve-2.0-2021.json")

	ctx := context.Background()
	loader := NewSeedLoader(cache)

	// One bad file out of two is tolerated
	if err := loader.LoadFromMultipleFiles(ctx, []string{good, missing}); err != nil {
		t.Fatalf("LoadFromMultipleFiles failed: %v", err)
	}

	count, err := cache.GetTotalCount(ctx)
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}

	// All files failing is an error
	if err := loader.LoadFromMultipleFiles(ctx, []string{missing}); err == nil {
		t.Error("Expected error when no file loads")
	}
}
