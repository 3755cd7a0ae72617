package match

import (
	"sort"
	"strings"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
)

// DefaultStalenessYearCutoff is the publication-year floor for candidates
// that only matched below high confidence.
const DefaultStalenessYearCutoff = 2010

// Scorer converts a raw upstream candidate set into a small,
// confidence-ranked, range-validated match list for one finding.
type Scorer struct {
	stalenessYearCutoff int
}

// NewScorer creates a scorer. A cutoff <= 0 selects the default.
func NewScorer(stalenessYearCutoff int) *Scorer {
	if stalenessYearCutoff <= 0 {
		stalenessYearCutoff = DefaultStalenessYearCutoff
	}
	return &Scorer{stalenessYearCutoff: stalenessYearCutoff}
}

// ScoreAndFilter scores every candidate against the extracted product and
// version, drops the noise, and ranks the survivors. An unknown version
// discards all candidates outright: version-less keyword matches are too
// noisy to be useful.
func (s *Scorer) ScoreAndFilter(candidates []domain.Candidate, product, version string) []domain.ScoredMatch {
	if domain.IsUnknownVersion(version) {
		return nil
	}

	var kept []domain.ScoredMatch
	for _, cand := range candidates {
		scored := s.score(cand, product, version)
		if s.keep(scored) {
			kept = append(kept, scored)
		}
	}

	// Confidence tier first, then CVSS (v3.1 over v3.0 over v2) descending.
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence.Rank() > kept[j].Confidence.Rank()
		}
		return kept[i].Candidate.Metrics.BaseScore() > kept[j].Candidate.Metrics.BaseScore()
	})
	return kept
}

// score walks the candidate's CPE configuration entries. The first entry
// that validates the version wins and scanning stops there; this is a
// first-satisfying-match rule, not a most-specific one.
func (s *Scorer) score(cand domain.Candidate, product, version string) domain.ScoredMatch {
	synonyms := Synonyms(product)
	versionLower := strings.ToLower(version)

	productMatch := false
	versionMatch := false

scan:
	for _, node := range cand.Nodes {
		for _, entry := range node.Matches {
			criteria := strings.ToLower(entry.Criteria)
			if !criteriaMentions(criteria, synonyms) {
				continue
			}
			productMatch = true

			if VersionInRange(version, BoundsOf(entry)) || criteriaPinsVersion(criteria, synonyms, versionLower) {
				versionMatch = true
				break scan
			}
		}
	}

	confidence := domain.ConfidenceLow
	switch {
	case versionMatch:
		confidence = domain.ConfidenceHigh
	case productMatch:
		confidence = domain.ConfidenceMedium
	}

	return domain.ScoredMatch{
		Candidate:          cand,
		Confidence:         confidence,
		ActuallyVulnerable: versionMatch,
	}
}

// keep applies the noise filters: a high-confidence match must carry a
// validated vulnerable version, and anything weaker must at least be
// recent enough to matter.
func (s *Scorer) keep(m domain.ScoredMatch) bool {
	if m.Confidence == domain.ConfidenceHigh {
		return m.ActuallyVulnerable
	}
	return m.Candidate.Published.Year() >= s.stalenessYearCutoff
}

func criteriaMentions(criteria string, synonyms []string) bool {
	for _, syn := range synonyms {
		if strings.Contains(criteria, syn) {
			return true
		}
	}
	return false
}

// criteriaPinsVersion reports whether the criteria names the product at
// exactly this version, e.g. ":http_server:2.4.49:". The trailing colon
// keeps "2.4.4" from matching "2.4.49".
func criteriaPinsVersion(criteria string, synonyms []string, version string) bool {
	if version == "" {
		return false
	}
	for _, syn := range synonyms {
		if strings.Contains(criteria, ":"+syn+":"+version+":") {
			return true
		}
	}
	return false
}
