package nvd

import (
	"context"

	"golang.org/x/time/rate"
)

// RatePacer spaces upstream requests with a token bucket. Burst is one:
// the public NVD quota is a flat per-second rate, so bursts only trade
// early requests for later 429s.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer allows requestsPerSecond sustained requests. Non-positive
// rates fall back to one per second.
func NewRatePacer(requestsPerSecond float64) *RatePacer {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1
	}
	return &RatePacer{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1)}
}

// Wait blocks until the next request may be sent or the context ends.
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

// NopPacer never waits. Used in tests and for bulk loads against local
// files.
type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }
