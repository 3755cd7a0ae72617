// Package nvd talks to the NVD CVE API 2.0 and implements the upstream
// vulnerability feed port.
package nvd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/vulnscan-ai/vulnscan/internal/core/domain"
	"github.com/vulnscan-ai/vulnscan/internal/core/ports"
	"github.com/vulnscan-ai/vulnscan/internal/telemetry"
)

// DefaultBaseURL is the public NVD CVE API 2.0 endpoint.
const DefaultBaseURL = "https://services.nvd.nist.gov/rest/json/cves/2.0"

const (
	// DefaultMaxAttempts bounds total tries per query, first included.
	DefaultMaxAttempts = 3
	// DefaultRetryDelay is the fixed wait between rate-limited attempts.
	DefaultRetryDelay = 6 * time.Second
	// DefaultResultsPerPage keeps keyword result sets small.
	DefaultResultsPerPage = 5

	defaultTimeout = 15 * time.Second
)

// Config tunes the client. Zero values take the defaults above.
type Config struct {
	BaseURL        string
	APIKey         string
	MaxAttempts    int
	RetryDelay     time.Duration
	ResultsPerPage int
	Timeout        time.Duration
}

// Client queries the NVD CVE API 2.0. Implements ports.VulnerabilityFeed.
// Every attempt, retries included, first waits on the injected pacer, so
// request spacing stays correct even while retrying.
type Client struct {
	cfg        Config
	httpClient *http.Client
	pacer      ports.Pacer
}

// NewClient builds a feed client. A nil pacer disables pacing.
func NewClient(cfg Config, pacer ports.Pacer) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = DefaultResultsPerPage
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if pacer == nil {
		pacer = NopPacer{}
	}
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		pacer: pacer,
	}
}

// Search runs one query against the feed. Rate-limit responses (429) are
// retried after a fixed delay up to MaxAttempts total tries; the upstream
// enforces a flat per-second quota, so exponential backoff buys nothing
// here. Any other non-2xx status and all transport errors return
// immediately without retrying.
func (c *Client) Search(ctx context.Context, query ports.FeedQuery) ([]domain.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	reqURL := c.buildURL(query)
	label := queryLabel(query)

	for attempt := 1; ; attempt++ {
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pace upstream request: %w", err)
		}

		candidates, status, err := c.do(ctx, reqURL)
		telemetry.UpstreamRequests.WithLabelValues(label, statusClass(status)).Inc()
		if err == nil {
			return candidates, nil
		}
		if status != http.StatusTooManyRequests {
			return nil, err
		}
		if attempt >= c.cfg.MaxAttempts {
			return nil, fmt.Errorf("upstream rate limited after %d attempts: %w", attempt, err)
		}

		telemetry.UpstreamRetries.WithLabelValues(label).Inc()
		select {
		case <-time.After(c.cfg.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// do performs a single request. The returned status is 0 when the request
// never produced a response.
func (c *Client) do(ctx context.Context, reqURL string) ([]domain.Candidate, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build upstream request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("apiKey", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("upstream request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, resp.StatusCode, fmt.Errorf("upstream rate limited (status %d)", resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, resp.StatusCode, fmt.Errorf("upstream returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, resp.StatusCode, fmt.Errorf("decode upstream response: %w", err)
	}
	return payload.candidates(), resp.StatusCode, nil
}

func (c *Client) buildURL(q ports.FeedQuery) string {
	params := url.Values{}
	switch {
	case q.CVEID != "":
		params.Set("cveId", strings.ToUpper(q.CVEID))
	case q.CPEName != "":
		params.Set("cpeName", q.CPEName)
	default:
		params.Set("keywordSearch", q.Keyword)
		params.Set("resultsPerPage", strconv.Itoa(c.cfg.ResultsPerPage))
	}
	return c.cfg.BaseURL + "?" + params.Encode()
}

func queryLabel(q ports.FeedQuery) string {
	switch {
	case q.CVEID != "":
		return "cve_id"
	case q.CPEName != "":
		return "cpe"
	default:
		return "keyword"
	}
}

func statusClass(status int) string {
	switch {
	case status == 0:
		return "error"
	case status == http.StatusTooManyRequests:
		return "429"
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 500:
		return "5xx"
	default:
		return "4xx"
	}
}
