package vulncache

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vulnscan-ai/vulnscan/internal/adapters/nvd"
	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

// SeedLoader bulk-loads NVD 2.0 dump files into the local cache.
type SeedLoader struct {
	cache ports.VulnerabilityCache
}

// NewSeedLoader creates a new seed loader.
func NewSeedLoader(cache ports.VulnerabilityCache) *SeedLoader {
	return &SeedLoader{cache: cache}
}

// LoadFromFile parses one dump file and upserts every record. Individual
// record failures are logged and counted, not fatal.
func (s *SeedLoader) LoadFromFile(ctx context.Context, path string) error {
	log.Printf("[VULN-SEED] Loading records from %s", path)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	candidates, err := nvd.ParseFeed(f)
	if err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	loaded := 0
	failed := 0

	for _, c := range candidates {
		// Cache rows keep the full description; truncation happens at
		// the main store, not here.
		if err := s.cache.UpsertRecord(ctx, c.Record(0)); err != nil {
			log.Printf("[VULN-SEED] Failed to load %s: %v", c.ID, err)
			failed++
		} else {
			loaded++
		}
	}

	log.Printf("[VULN-SEED] Loaded %d records (%d failed)", loaded, failed)

	status := domain.FeedSyncStatus{
		LastSyncTime: time.Now().UTC(),
		RecordCount:  loaded,
	}
	if failed > 0 {
		status.ErrorMessage = fmt.Sprintf("%d records failed to load", failed)
	}
	if err := s.cache.UpdateSyncStatus(ctx, status); err != nil {
		log.Printf("[VULN-SEED] Failed to update sync status: %v", err)
	}

	return nil
}

// LoadFromMultipleFiles loads every dump file in turn, skipping the ones
// that fail. It errors only when not a single file could be loaded.
func (s *SeedLoader) LoadFromMultipleFiles(ctx context.Context, paths []string) error {
	loaded := 0

	for _, path := range paths {
		if err := s.LoadFromFile(ctx, path); err != nil {
			log.Printf("[VULN-SEED] Failed to load %s: %v", path, err)
			continue
		}
		loaded++
	}

	log.Printf("[VULN-SEED] Loaded from %d/%d files", loaded, len(paths))
	if loaded == 0 && len(paths) > 0 {
		return fmt.Errorf("no seed files could be loaded")
	}
	return nil
}
