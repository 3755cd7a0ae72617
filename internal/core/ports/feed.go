package ports

import (
	"context"
	"fmt"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
)

// FeedQuery selects candidates from the upstream vulnerability feed.
// Exactly one of the three selectors must be set.
type FeedQuery struct {
	CVEID   string // exact identifier lookup, e.g. "CVE-2021-41773"
	CPEName string // CPE 2.3 name lookup
	Keyword string // free-text search, e.g. "Apache httpd 2.4.49"
}

// Validate enforces the one-of contract.
func (q FeedQuery) Validate() error {
	set := 0
	if q.CVEID != "" {
		set++
	}
	if q.CPEName != "" {
		set++
	}
	if q.Keyword != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("feed query must set exactly one of cveId, cpeName, keyword (got %d)", set)
	}
	return nil
}

// VulnerabilityFeed is the read-only upstream source of candidate records.
type VulnerabilityFeed interface {
	// Search returns the candidates matching the query. Rate-limit
	// responses are retried internally with a fixed delay and bounded
	// attempts; any other upstream failure is returned as-is.
	Search(ctx context.Context, query FeedQuery) ([]domain.Candidate, error)
}

// Pacer throttles calls against the upstream feed's shared rate quota.
// Wait blocks until the next request is allowed or the context is done.
type Pacer interface {
	Wait(ctx context.Context) error
}
