package transport

import (
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"
)

const defaultUserAgent = "pricehub/1.0 (+https://pricehub.example)"

// APITransport is an http.RoundTripper applied to every backend call:
// Identity headers → RateLimiter → Proxy → Send
type APITransport struct {
	Base        http.RoundTripper
	UserAgent   string
	RateLimiter *rate.Limiter
}

// New builds an APITransport. proxyURL may be empty for direct connections.
func New(limiter *rate.Limiter, proxyURL string) (*APITransport, error) {
	base := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		base.Proxy = http.ProxyURL(u)
	}
	return &APITransport{Base: base, RateLimiter: limiter}, nil
}

func (t *APITransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not mutate the caller's request.
	req = req.Clone(req.Context())

	ua := t.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", ua)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if t.RateLimiter != nil {
		if err := t.RateLimiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
