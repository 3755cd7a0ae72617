package domain

import "time"

// Scan represents one scanning session submitted by the external scanner.
// Enrichment is attempted at most once per scan; EnrichmentComplete is the
// persisted gate for that.
type Scan struct {
	ID                 string    `json:"scan_id"`
	Target             string    `json:"target"` // normalized host, IPv4 or CIDR
	CreatedAt          time.Time `json:"created_at"`
	EnrichmentComplete bool      `json:"enrichment_complete"`
}

// Finding is one detected network service inside a scan. CVEID and
// Confidence are written only by the enrichment run; a finding carries at
// most one linked vulnerability identifier.
type Finding struct {
	ID             string     `json:"finding_id"`
	ScanID         string     `json:"scan_id"`
	Host           string     `json:"host"`
	Port           int        `json:"port"`
	ServiceName    string     `json:"service_name"`              // e.g. "Apache httpd", or a raw Server header value
	ServiceVersion string     `json:"service_version,omitempty"` // loosely formatted banner token, may be "unknown"
	CVEID          string     `json:"cve_id,omitempty"`
	Confidence     Confidence `json:"confidence,omitempty"`
}

// HasKnownVersion reports whether the finding carries a usable version
// string. "unknown" (any case) and empty values gate the finding out of
// enrichment entirely.
func (f Finding) HasKnownVersion() bool {
	return !IsUnknownVersion(f.ServiceVersion)
}
