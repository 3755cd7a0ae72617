package domain

import (
	"strings"
	"time"
)

// VulnerabilityRecord is the persisted reduction of one upstream candidate.
// Upserted keyed by ID; last write wins on re-enrichment.
type VulnerabilityRecord struct {
	ID          string    `json:"id"` // e.g. "CVE-2021-41773"
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CVSSScore   float64   `json:"cvss_score,omitempty"` // 0 when the feed reported no metrics
	Published   time.Time `json:"published,omitempty"`
}

// Confidence is this engine's own classification of how certain a
// candidate-to-finding match is, not a value from the upstream feed.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Rank orders tiers for sorting: high > medium > low.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// CVSSMetrics carries the base scores a feed may report at different schema
// versions. Nil means that version was absent from the response.
type CVSSMetrics struct {
	V31 *float64 `json:"v31,omitempty"`
	V30 *float64 `json:"v30,omitempty"`
	V2  *float64 `json:"v2,omitempty"`
}

// BaseScore picks the newest available score: v3.1, then v3.0, then v2,
// else 0.
func (m CVSSMetrics) BaseScore() float64 {
	switch {
	case m.V31 != nil:
		return *m.V31
	case m.V30 != nil:
		return *m.V30
	case m.V2 != nil:
		return *m.V2
	}
	return 0
}

// CPEMatch is one match entry inside a configuration node. Criteria is the
// raw CPE 2.3 string; the version bounds are optional and empty when the
// entry is unconstrained.
type CPEMatch struct {
	Criteria              string `json:"criteria"` // e.g. "cpe:2.3:a:apache:http_server:2.4.49:*:..."
	Vulnerable            bool   `json:"vulnerable"`
	VersionStartIncluding string `json:"version_start_including,omitempty"`
	VersionEndIncluding   string `json:"version_end_including,omitempty"`
	VersionStartExcluding string `json:"version_start_excluding,omitempty"`
	VersionEndExcluding   string `json:"version_end_excluding,omitempty"`
}

// HasBounds reports whether any version bound is supplied.
func (m CPEMatch) HasBounds() bool {
	return m.VersionStartIncluding != "" || m.VersionEndIncluding != "" ||
		m.VersionStartExcluding != "" || m.VersionEndExcluding != ""
}

// ConfigurationNode groups the CPE match entries of one configuration.
type ConfigurationNode struct {
	Matches []CPEMatch `json:"cpe_match"`
}

// Candidate is one raw record returned by the upstream feed. Ephemeral:
// reduced to at most one VulnerabilityRecord per finding.
type Candidate struct {
	ID          string              `json:"id"`
	Description string              `json:"description"` // English-language description
	Metrics     CVSSMetrics         `json:"metrics"`
	Published   time.Time           `json:"published"`
	Nodes       []ConfigurationNode `json:"nodes,omitempty"`
}

// ScoredMatch pairs a candidate with the scorer's verdict for one finding.
type ScoredMatch struct {
	Candidate          Candidate  `json:"candidate"`
	Confidence         Confidence `json:"confidence"`
	ActuallyVulnerable bool       `json:"actually_vulnerable"`
}

// titleMaxLen caps derived record titles, in runes.
const titleMaxLen = 120

// Record reduces the candidate to its persisted form. The description is
// truncated to descriptionMaxLen runes; non-positive means unlimited.
func (c Candidate) Record(descriptionMaxLen int) VulnerabilityRecord {
	desc := strings.TrimSpace(c.Description)
	return VulnerabilityRecord{
		ID:          c.ID,
		Title:       deriveTitle(c.ID, desc),
		Description: truncateRunes(desc, descriptionMaxLen),
		CVSSScore:   c.Metrics.BaseScore(),
		Published:   c.Published,
	}
}

// deriveTitle takes the first sentence of the description, capped; an
// empty description falls back to the bare identifier. Sentence splitting
// keys on ". " so version dots don't cut the text short.
func deriveTitle(id, description string) string {
	title := description
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	if i := strings.Index(title, ". "); i > 0 {
		title = title[:i]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return id
	}
	return truncateRunes(title, titleMaxLen)
}

// truncateRunes caps s at max runes, marking the cut with an ellipsis.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max > 3 {
		return string(runes[:max-3]) + "..."
	}
	return string(runes[:max])
}

// FeedSyncStatus tracks the last bulk load into the local vulnerability
// cache.
type FeedSyncStatus struct {
	LastSyncTime time.Time `json:"last_sync_time"`
	RecordCount  int       `json:"record_count"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// IsUnknownVersion reports whether a version string is too uninformative to
// match against: empty, or carrying the literal "unknown" marker the
// scanner emits when it could not read a version.
func IsUnknownVersion(version string) bool {
	v := strings.TrimSpace(version)
	if v == "" {
		return true
	}
	return strings.Contains(strings.ToLower(v), "unknown")
}
