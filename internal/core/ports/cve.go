package ports

import (
	"context"
	"time"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
)

// VulnerabilityCache is the local store of vulnerability records, used for
// offline exact-id lookups and bulk seeding from feed dumps.
type VulnerabilityCache interface {
	// Get specific record by identifier
	GetByID(ctx context.Context, id string) (*domain.VulnerabilityRecord, error)

	// Sync operations
	UpsertRecord(ctx context.Context, rec domain.VulnerabilityRecord) error
	GetLastSyncTime(ctx context.Context) (time.Time, error)
	UpdateSyncStatus(ctx context.Context, status domain.FeedSyncStatus) error

	// Utility
	GetTotalCount(ctx context.Context) (int, error)
	Close() error
}
