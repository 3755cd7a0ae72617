package ports

import "github.com/vulnscan-ai/vulnscan/internal/core/domain"

// ProgressSink receives enrichment progress events. Implementations must
// not block the enrichment loop; delivery is best-effort.
type ProgressSink interface {
	EnrichmentStarted(scanID string, findingCount int)
	FindingEnriched(finding domain.Finding)
	EnrichmentCompleted(scanID string, enriched, skipped, failed int)
}
