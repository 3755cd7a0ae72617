package domain

import (
	"strings"
	"testing"
	"time"
)

func TestIsUnknownVersion(t *testing.T) {
	tests := []struct {
		version string
		want    bool
	}{
		{"", true},
		{"   ", true},
		{"unknown", true},
		{"Unknown", true},
		{"UNKNOWN", true},
		{"version unknown", true},
		{"2.4.49", false},
		{"8.2p1", false},
		{"1.18.0 (Ubuntu)", false},
	}

	for _, tt := range tests {
		if got := IsUnknownVersion(tt.version); got != tt.want {
			t.Errorf("IsUnknownVersion(%q) = %v, want %v", tt.version, got, tt.want)
		}
	}
}

func TestCVSSMetricsBaseScore(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	tests := []struct {
		name    string
		metrics CVSSMetrics
		want    float64
	}{
		{"v31 preferred", CVSSMetrics{V31: f(9.8), V30: f(7.5), V2: f(10.0)}, 9.8},
		{"v30 fallback", CVSSMetrics{V30: f(7.5), V2: f(10.0)}, 7.5},
		{"v2 fallback", CVSSMetrics{V2: f(4.3)}, 4.3},
		{"nothing reported", CVSSMetrics{}, 0},
	}

	for _, tt := range tests {
		if got := tt.metrics.BaseScore(); got != tt.want {
			t.Errorf("%s: BaseScore() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConfidenceRank(t *testing.T) {
	if ConfidenceHigh.Rank() <= ConfidenceMedium.Rank() {
		t.Error("high must rank above medium")
	}
	if ConfidenceMedium.Rank() <= ConfidenceLow.Rank() {
		t.Error("medium must rank above low")
	}
	if Confidence("bogus").Rank() != 0 {
		t.Error("unrecognized tier must rank at 0")
	}
}

func TestCandidateRecord(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	published := time.Date(2021, 10, 5, 0, 0, 0, 0, time.UTC)

	c := Candidate{
		ID:          "CVE-2021-41773",
		Description: "A flaw was found in Apache HTTP Server 2.4.49. A path traversal attack could map URLs outside the document root.",
		Metrics:     CVSSMetrics{V31: f(7.5)},
		Published:   published,
	}

	rec := c.Record(0)
	if rec.ID != c.ID {
		t.Errorf("ID = %q, want %q", rec.ID, c.ID)
	}
	if rec.Title != "A flaw was found in Apache HTTP Server 2.4.49" {
		t.Errorf("Title = %q", rec.Title)
	}
	if rec.Description != c.Description {
		t.Errorf("unlimited Record must keep the full description, got %q", rec.Description)
	}
	if rec.CVSSScore != 7.5 {
		t.Errorf("CVSSScore = %v, want 7.5", rec.CVSSScore)
	}
	if !rec.Published.Equal(published) {
		t.Errorf("Published = %v, want %v", rec.Published, published)
	}

	// Truncation marks the cut and stays within the rune limit
	long := c
	long.Description = strings.Repeat("x", 900)
	rec = long.Record(40)
	if got := len([]rune(rec.Description)); got != 40 {
		t.Errorf("truncated description length = %d, want 40", got)
	}
	if !strings.HasSuffix(rec.Description, "...") {
		t.Errorf("truncated description missing ellipsis: %q", rec.Description)
	}
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		id          string
		description string
		want        string
	}{
		{"CVE-1", "Short flaw description", "Short flaw description"},
		{"CVE-2", "A flaw in Apache HTTP Server 2.4.49. Further detail here.", "A flaw in Apache HTTP Server 2.4.49"},
		{"CVE-3", "First line\nsecond line", "First line"},
		{"CVE-4", "", "CVE-4"},
		{"CVE-5", strings.Repeat("a", 300), strings.Repeat("a", 117) + "..."},
	}

	for _, tt := range tests {
		if got := deriveTitle(tt.id, tt.description); got != tt.want {
			t.Errorf("deriveTitle(%q, ...) = %q, want %q", tt.id, got, tt.want)
		}
	}
}
