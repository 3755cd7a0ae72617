package nvd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
)

const sampleResponse = `{
  "resultsPerPage": 1,
  "totalResults": 1,
  "vulnerabilities": [
    {
      "cve": {
        "id": "CVE-2021-41773",
        "published": "2021-10-05T04:15:00.000",
        "descriptions": [
          {"lang": "es", "value": "Se encontro un fallo en Apache HTTP Server 2.4.49."},
          {"lang": "en", "value": "A flaw was found in a change made to path normalization in Apache HTTP Server 2.4.49."}
        ],
        "metrics": {
          "cvssMetricV31": [{"cvssData": {"baseScore": 7.5}}],
          "cvssMetricV2": [{"cvssData": {"baseScore": 4.3}}]
        },
        "configurations": [
          {"nodes": [{"cpeMatch": [
            {"criteria": "cpe:2.3:a:apache:http_server:*:*:*:*:*:*:*:*", "vulnerable": true,
             "versionStartIncluding": "2.4.49", "versionEndExcluding": "2.4.51"}
          ]}]}
        ]
      }
    }
  ]
}`

// countingPacer implements ports.Pacer and records Wait calls
type countingPacer struct {
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.waits++
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc, pacer ports.Pacer) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		RetryDelay: time.Millisecond,
	}, pacer)
}

func TestSearchKeyword(t *testing.T) {
	var gotQuery string
	var gotKey string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("apiKey")
		w.Write([]byte(sampleResponse))
	}, nil)

	candidates, err := client.Search(context.Background(), ports.FeedQuery{Keyword: "Apache httpd 2.4.49"})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "keywordSearch=Apache+httpd+2.4.49")
	assert.Contains(t, gotQuery, "resultsPerPage=5")
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, candidates, 1)
	c := candidates[0]
	assert.Equal(t, "CVE-2021-41773", c.ID)
	assert.True(t, strings.HasPrefix(c.Description, "A flaw was found"), "English description must win: %q", c.Description)
	require.NotNil(t, c.Metrics.V31)
	assert.Equal(t, 7.5, *c.Metrics.V31)
	require.NotNil(t, c.Metrics.V2)
	assert.Equal(t, 4.3, *c.Metrics.V2)
	assert.Equal(t, 2021, c.Published.Year())

	require.Len(t, c.Nodes, 1)
	require.Len(t, c.Nodes[0].Matches, 1)
	entry := c.Nodes[0].Matches[0]
	assert.Equal(t, "2.4.49", entry.VersionStartIncluding)
	assert.Equal(t, "2.4.51", entry.VersionEndExcluding)
	assert.True(t, entry.Vulnerable)
}

func TestSearchByID(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(sampleResponse))
	}, nil)

	_, err := client.Search(context.Background(), ports.FeedQuery{CVEID: "cve-2021-41773"})
	require.NoError(t, err)

	// Identifiers are uppercased on the wire, and id lookups are not paged
	assert.Contains(t, gotQuery, "cveId=CVE-2021-41773")
	assert.NotContains(t, gotQuery, "resultsPerPage")
}

func TestSearchRetriesRateLimit(t *testing.T) {
	var requests int
	pacer := &countingPacer{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(sampleResponse))
	}, pacer)

	candidates, err := client.Search(context.Background(), ports.FeedQuery{Keyword: "nginx 1.18.0"})
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
	assert.Equal(t, 3, requests)
	// The pacer gates every attempt, retries included
	assert.Equal(t, 3, pacer.waits)
}

func TestSearchRateLimitExhausted(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}, nil)

	_, err := client.Search(context.Background(), ports.FeedQuery{Keyword: "nginx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Equal(t, DefaultMaxAttempts, requests)
}

func TestSearchServerErrorNotRetried(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}, nil)

	_, err := client.Search(context.Background(), ports.FeedQuery{Keyword: "nginx"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "upstream exploded")
	assert.Equal(t, 1, requests)
}

func TestSearchQueryValidation(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
	}, nil)

	_, err := client.Search(context.Background(), ports.FeedQuery{})
	require.Error(t, err)

	_, err = client.Search(context.Background(), ports.FeedQuery{CVEID: "CVE-1", Keyword: "nginx"})
	require.Error(t, err)

	// Invalid queries never reach the wire
	assert.Equal(t, 0, requests)
}

func TestParseFeed(t *testing.T) {
	candidates, err := ParseFeed(strings.NewReader(sampleResponse))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "CVE-2021-41773", candidates[0].ID)

	_, err = ParseFeed(strings.NewReader("{broken"))
	require.Error(t, err)
}

func TestParsePublished(t *testing.T) {
	tests := []struct {
		in       string
		wantYear int
	}{
		{"2021-10-05T04:15:00.000", 2021},
		{"2019-04-11T21:29:00", 2019},
		{"2020-01-09T00:00:00Z", 2020},
		{"garbage", 1},
	}

	for _, tt := range tests {
		got := parsePublished(tt.in)
		if tt.in == "garbage" {
			assert.True(t, got.IsZero(), "unparseable timestamps must come back zero")
			continue
		}
		assert.Equal(t, tt.wantYear, got.Year(), "parsePublished(%q)", tt.in)
	}
}

func TestRatePacerCancelled(t *testing.T) {
	p := NewRatePacer(1)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, p.Wait(ctx))
}
