// Package enrichment runs the per-scan enrichment loop: gate findings,
// query the vulnerability feed, score candidates and persist the best
// match.
package enrichment

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
	"github.com/vulnscan-ai/vulnscan/internal/core/services/match"
	"github.com/vulnscan-ai/vulnscan/internal/telemetry"
)

// DefaultDescriptionMaxLen caps the stored description length, in runes.
const DefaultDescriptionMaxLen = 500

// Service orchestrates enrichment for one scan at a time. Runs are strictly
// sequential over findings; pacing against the upstream feed lives inside
// the feed implementation, never here.
type Service struct {
	store    ports.Storage
	feed     ports.VulnerabilityFeed
	scorer   *match.Scorer
	progress ports.ProgressSink

	descriptionMaxLen int

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService wires the enrichment loop. A nil progress sink is replaced
// with a no-op one; a non-positive descriptionMaxLen falls back to the
// default.
func NewService(store ports.Storage, feed ports.VulnerabilityFeed, scorer *match.Scorer, progress ports.ProgressSink, descriptionMaxLen int) *Service {
	if progress == nil {
		progress = nopSink{}
	}
	if descriptionMaxLen <= 0 {
		descriptionMaxLen = DefaultDescriptionMaxLen
	}
	return &Service{
		store:             store,
		feed:              feed,
		scorer:            scorer,
		progress:          progress,
		descriptionMaxLen: descriptionMaxLen,
		inflight:          make(map[string]struct{}),
	}
}

// Enrich looks up vulnerabilities for every finding of the scan and links
// the best match. At most one run per scan ever does work: a persisted
// enrichment_complete flag gates re-runs, and an in-process set guards
// against concurrent calls racing the flag. Per-finding failures are
// logged and the loop continues.
func (s *Service) Enrich(ctx context.Context, scanID string) error {
	if !s.begin(scanID) {
		slog.Info("Enrichment already running for scan", "scan_id", scanID)
		return nil
	}
	defer s.end(scanID)

	scan, err := s.store.GetScan(ctx, scanID)
	if err != nil {
		return fmt.Errorf("load scan %s: %w", scanID, err)
	}
	if scan.EnrichmentComplete {
		slog.Info("Scan already enriched, skipping", "scan_id", scanID)
		return nil
	}

	findings, err := s.store.GetFindings(ctx, scanID)
	if err != nil {
		return fmt.Errorf("load findings for scan %s: %w", scanID, err)
	}

	s.progress.EnrichmentStarted(scanID, len(findings))

	var enriched, skipped, failed int
	for _, f := range findings {
		if err := ctx.Err(); err != nil {
			// An interrupted run must not stamp the gate: leave the
			// scan eligible for a later attempt.
			return fmt.Errorf("enrichment interrupted for scan %s: %w", scanID, err)
		}

		if !f.HasKnownVersion() {
			skipped++
			telemetry.FindingsProcessed.WithLabelValues("skipped").Inc()
			slog.Info("Skipping finding with unknown version",
				"finding_id", f.ID, "service", f.ServiceName)
			continue
		}

		linked, err := s.enrichFinding(ctx, f)
		if err != nil {
			failed++
			telemetry.FindingsProcessed.WithLabelValues("failed").Inc()
			slog.Error("Failed to enrich finding", "finding_id", f.ID, "error", err)
			continue
		}
		if linked {
			enriched++
			telemetry.FindingsProcessed.WithLabelValues("enriched").Inc()
		} else {
			telemetry.FindingsProcessed.WithLabelValues("no_match").Inc()
		}
	}

	if err := s.store.SetEnrichmentComplete(ctx, scanID); err != nil {
		// Not fatal: the worst outcome is a redundant future run, never
		// wrong data.
		slog.Error("Failed to persist enrichment flag", "scan_id", scanID, "error", err)
	}

	s.progress.EnrichmentCompleted(scanID, enriched, skipped, failed)
	slog.Info("Enrichment run finished",
		"scan_id", scanID, "enriched", enriched, "skipped", skipped, "failed", failed)
	return nil
}

// enrichFinding queries the feed for one finding and links the top-ranked
// match, if any. Returns true when a vulnerability was linked.
func (s *Service) enrichFinding(ctx context.Context, f domain.Finding) (bool, error) {
	phrase := strings.TrimSpace(f.ServiceName + " " + f.ServiceVersion)
	ext := match.Extract(phrase)

	// A recognized product queries under its canonical name so the feed
	// sees "Apache httpd 2.4.49" rather than whatever the banner said.
	query := phrase
	if ext.Known {
		query = ext.Product + " " + ext.Version
	}

	candidates, err := s.feed.Search(ctx, ports.FeedQuery{Keyword: query})
	if err != nil {
		return false, fmt.Errorf("search feed for %q: %w", query, err)
	}

	matches := s.scorer.ScoreAndFilter(candidates, ext.Normalized, ext.Version)
	if len(matches) == 0 {
		slog.Info("No vulnerability match for finding", "finding_id", f.ID, "query", query)
		return false, nil
	}

	best := matches[0]
	record := best.Candidate.Record(s.descriptionMaxLen)
	if err := s.store.UpsertVulnerability(ctx, record); err != nil {
		return false, fmt.Errorf("upsert vulnerability %s: %w", record.ID, err)
	}
	if err := s.store.LinkVulnerability(ctx, f.ID, record.ID, best.Confidence); err != nil {
		return false, fmt.Errorf("link vulnerability %s to finding %s: %w", record.ID, f.ID, err)
	}

	f.CVEID = record.ID
	f.Confidence = best.Confidence
	s.progress.FindingEnriched(f)
	telemetry.MatchesByConfidence.WithLabelValues(string(best.Confidence)).Inc()

	slog.Info("Linked vulnerability to finding",
		"finding_id", f.ID, "cve_id", record.ID, "confidence", string(best.Confidence))
	return true, nil
}

// begin claims the scan for this run. False means another run owns it.
func (s *Service) begin(scanID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.inflight[scanID]; running {
		return false
	}
	s.inflight[scanID] = struct{}{}
	return true
}

func (s *Service) end(scanID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, scanID)
}

// nopSink swallows progress events when no sink is wired.
type nopSink struct{}

func (nopSink) EnrichmentStarted(string, int)             {}
func (nopSink) FindingEnriched(domain.Finding)            {}
func (nopSink) EnrichmentCompleted(string, int, int, int) {}
