package fetcher

import (
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

// LimitedTransport paces requests per host with adaptive limiters. Hosts
// without a limiter pass straight through. A 429 halves the host's rate and
// a successful response nudges it back up.
type LimitedTransport struct {
	Base     http.RoundTripper
	Limiters map[string]*AdaptiveLimiter
}

// RoundTrip implements http.RoundTripper.
func (t *LimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	lim := t.Limiters[req.URL.Host]
	if lim != nil {
		if err := lim.Wait(req.Context()); err != nil {
			return nil, eris.Wrap(err, "fetcher: rate limiter wait")
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil || lim == nil {
		return resp, err
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		lim.OnRateLimit()
	case resp.StatusCode < 400:
		lim.OnSuccess()
	}
	return resp, nil
}

// NewLimitedClient returns an http.Client whose requests share limiters,
// so API clients and the page fetcher draw from the same per-host budget.
func NewLimitedClient(limiters map[string]*AdaptiveLimiter, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &LimitedTransport{Limiters: limiters},
	}
}
