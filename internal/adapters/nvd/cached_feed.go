package nvd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
	"github.com/vulnscan-ai/vulnscan/internal/telemetry"
)

// CachedFeed answers exact-id queries from the local cache before going
// upstream, writing misses through. Keyword and CPE queries always go
// upstream: cached rows are reduced records without configuration data,
// so they cannot serve scoring queries.
type CachedFeed struct {
	cache    ports.VulnerabilityCache
	upstream ports.VulnerabilityFeed
}

// NewCachedFeed decorates upstream with cache. A nil cache passes every
// query through.
func NewCachedFeed(cache ports.VulnerabilityCache, upstream ports.VulnerabilityFeed) *CachedFeed {
	return &CachedFeed{cache: cache, upstream: upstream}
}

// Search implements ports.VulnerabilityFeed.
func (f *CachedFeed) Search(ctx context.Context, query ports.FeedQuery) ([]domain.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if query.CVEID == "" || f.cache == nil {
		return f.upstream.Search(ctx, query)
	}

	rec, err := f.cache.GetByID(ctx, query.CVEID)
	if err == nil {
		telemetry.CacheLookups.WithLabelValues("hit").Inc()
		return []domain.Candidate{recordCandidate(*rec)}, nil
	}
	if !errors.Is(err, ports.ErrNotFound) {
		// A broken cache must not take the feed down with it.
		slog.Warn("Vulnerability cache lookup failed", "cve_id", query.CVEID, "error", err)
	}
	telemetry.CacheLookups.WithLabelValues("miss").Inc()

	candidates, err := f.upstream.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for _, c := range candidates {
		if err := f.cache.UpsertRecord(ctx, c.Record(0)); err != nil {
			slog.Warn("Vulnerability cache write-through failed", "cve_id", c.ID, "error", err)
		}
	}
	return candidates, nil
}

// recordCandidate lifts a cached record back into candidate shape. The
// collapsed score rides in the newest metrics slot so BaseScore
// round-trips.
func recordCandidate(rec domain.VulnerabilityRecord) domain.Candidate {
	c := domain.Candidate{
		ID:          rec.ID,
		Description: rec.Description,
		Published:   rec.Published,
	}
	if rec.CVSSScore > 0 {
		score := rec.CVSSScore
		c.Metrics.V31 = &score
	}
	return c
}
