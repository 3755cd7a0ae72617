package ports

import (
	"context"
	"errors"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
)

// ErrNotFound is returned by lookup methods when no record exists for the
// given key.
var ErrNotFound = errors.New("record not found")

// Storage defines the persistence behavior for scans, findings and
// vulnerability records.
type Storage interface {
	// Scans
	CreateScan(ctx context.Context, scan domain.Scan) error
	GetScan(ctx context.Context, scanID string) (*domain.Scan, error)
	// SetEnrichmentComplete marks the scan's enrichment gate. Idempotent.
	SetEnrichmentComplete(ctx context.Context, scanID string) error

	// Findings
	CreateFindings(ctx context.Context, findings []domain.Finding) error
	GetFindings(ctx context.Context, scanID string) ([]domain.Finding, error)
	// LinkVulnerability writes the finding's cve_id and confidence tier.
	LinkVulnerability(ctx context.Context, findingID, cveID string, confidence domain.Confidence) error

	// Vulnerability records
	UpsertVulnerability(ctx context.Context, rec domain.VulnerabilityRecord) error
	GetVulnerability(ctx context.Context, id string) (*domain.VulnerabilityRecord, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close closes the storage connection.
	Close() error
}
