package nvd

import (
	"encoding/json"
	"io"
	"time"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
)

// apiResponse mirrors the slice of the NVD CVE API 2.0 payload this engine
// consumes. Bulk dump files share the same shape, so the seed loader
// parses through ParseFeed below.
type apiResponse struct {
	ResultsPerPage  int                `json:"resultsPerPage"`
	TotalResults    int                `json:"totalResults"`
	Vulnerabilities []apiVulnerability `json:"vulnerabilities"`
}

type apiVulnerability struct {
	CVE apiCVE `json:"cve"`
}

type apiCVE struct {
	ID             string             `json:"id"`
	Published      string             `json:"published"` // e.g. "2021-10-05T04:15:00.000"
	Descriptions   []apiDescription   `json:"descriptions"`
	Metrics        apiMetrics         `json:"metrics"`
	Configurations []apiConfiguration `json:"configurations"`
}

type apiDescription struct {
	Lang  string `json:"lang"`
	Value string `json:"value"`
}

type apiMetrics struct {
	CvssMetricV31 []apiCvssMetric `json:"cvssMetricV31,omitempty"`
	CvssMetricV30 []apiCvssMetric `json:"cvssMetricV30,omitempty"`
	CvssMetricV2  []apiCvssMetric `json:"cvssMetricV2,omitempty"`
}

type apiCvssMetric struct {
	CvssData apiCvssData `json:"cvssData"`
}

type apiCvssData struct {
	BaseScore float64 `json:"baseScore"`
}

type apiConfiguration struct {
	Nodes []apiNode `json:"nodes"`
}

type apiNode struct {
	CPEMatch []apiCPEMatch `json:"cpeMatch"`
}

type apiCPEMatch struct {
	Criteria              string `json:"criteria"`
	Vulnerable            bool   `json:"vulnerable"`
	VersionStartIncluding string `json:"versionStartIncluding,omitempty"`
	VersionEndIncluding   string `json:"versionEndIncluding,omitempty"`
	VersionStartExcluding string `json:"versionStartExcluding,omitempty"`
	VersionEndExcluding   string `json:"versionEndExcluding,omitempty"`
}

// publishedLayouts: NVD timestamps arrive with or without fractional
// seconds, and dump tooling sometimes re-emits them as RFC 3339.
var publishedLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parsePublished(s string) time.Time {
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// candidate reduces one API item to the engine's shape, preferring the
// English description.
func (c apiCVE) candidate() domain.Candidate {
	var description string
	for _, d := range c.Descriptions {
		if d.Lang == "en" {
			description = d.Value
			break
		}
	}
	if description == "" && len(c.Descriptions) > 0 {
		description = c.Descriptions[0].Value
	}

	var metrics domain.CVSSMetrics
	if len(c.Metrics.CvssMetricV31) > 0 {
		v := c.Metrics.CvssMetricV31[0].CvssData.BaseScore
		metrics.V31 = &v
	}
	if len(c.Metrics.CvssMetricV30) > 0 {
		v := c.Metrics.CvssMetricV30[0].CvssData.BaseScore
		metrics.V30 = &v
	}
	if len(c.Metrics.CvssMetricV2) > 0 {
		v := c.Metrics.CvssMetricV2[0].CvssData.BaseScore
		metrics.V2 = &v
	}

	var nodes []domain.ConfigurationNode
	for _, cfg := range c.Configurations {
		for _, node := range cfg.Nodes {
			if len(node.CPEMatch) == 0 {
				continue
			}
			matches := make([]domain.CPEMatch, 0, len(node.CPEMatch))
			for _, m := range node.CPEMatch {
				matches = append(matches, domain.CPEMatch{
					Criteria:              m.Criteria,
					Vulnerable:            m.Vulnerable,
					VersionStartIncluding: m.VersionStartIncluding,
					VersionEndIncluding:   m.VersionEndIncluding,
					VersionStartExcluding: m.VersionStartExcluding,
					VersionEndExcluding:   m.VersionEndExcluding,
				})
			}
			nodes = append(nodes, domain.ConfigurationNode{Matches: matches})
		}
	}

	return domain.Candidate{
		ID:          c.ID,
		Description: description,
		Metrics:     metrics,
		Published:   parsePublished(c.Published),
		Nodes:       nodes,
	}
}

func (r apiResponse) candidates() []domain.Candidate {
	out := make([]domain.Candidate, 0, len(r.Vulnerabilities))
	for _, v := range r.Vulnerabilities {
		out = append(out, v.CVE.candidate())
	}
	return out
}

// ParseFeed decodes an NVD 2.0 response or dump file into candidates.
// Used by the seed loader; the client decodes through the same types.
func ParseFeed(r io.Reader) ([]domain.Candidate, error) {
	var payload apiResponse
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return nil, err
	}
	return payload.candidates(), nil
}
