package scraper

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"
	"sync"
)

// ErrInvalidProxy is returned for proxy entries that cannot be used.
var ErrInvalidProxy = errors.New("invalid proxy endpoint")

// Endpoint is one entry of the proxy pool.
//
// http(s) endpoints are URL-prefix gateways: the page URL is appended to
// the endpoint path. socks5/socks5h endpoints are dialed as SOCKS proxies.
type Endpoint struct {
	URL *url.URL
}

// ParseEndpoint parses a proxy pool entry
func ParseEndpoint(raw string) (Endpoint, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w %q: %v", ErrInvalidProxy, raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return Endpoint{}, fmt.Errorf("%w %q: unsupported scheme %q", ErrInvalidProxy, raw, u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, fmt.Errorf("%w %q: missing host", ErrInvalidProxy, raw)
	}
	return Endpoint{URL: u}, nil
}

// ParsePool parses every entry of a configured proxy list
func ParsePool(raw []string) ([]Endpoint, error) {
	pool := make([]Endpoint, 0, len(raw))
	for _, r := range raw {
		ep, err := ParseEndpoint(r)
		if err != nil {
			return nil, err
		}
		pool = append(pool, ep)
	}
	return pool, nil
}

// IsSOCKS reports whether the endpoint is dialed as a SOCKS proxy
func (e Endpoint) IsSOCKS() bool {
	return e.URL != nil && strings.HasPrefix(e.URL.Scheme, "socks5")
}

// Rewrite returns the URL to request for pageURL through a gateway endpoint.
// SOCKS endpoints do not rewrite.
func (e Endpoint) Rewrite(pageURL string) string {
	if e.URL == nil || e.IsSOCKS() {
		return pageURL
	}
	return strings.TrimSuffix(e.URL.String(), "/") + "/" + pageURL
}

func (e Endpoint) String() string {
	if e.URL == nil {
		return ""
	}
	return e.URL.Redacted()
}

// RandomSelector picks uniformly from a fixed pool
type RandomSelector struct {
	pool   []Endpoint
	logger *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand

	warnOnce sync.Once
}

// NewRandomSelector returns a selector over pool. rng may be nil, in which
// case a randomly seeded source is used.
func NewRandomSelector(pool []Endpoint, rng *rand.Rand, logger *slog.Logger) *RandomSelector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RandomSelector{
		pool:   append([]Endpoint(nil), pool...),
		logger: logger,
		rng:    rng,
	}
}

// Select implements ProxySelector. An empty pool falls back to a direct fetch.
func (s *RandomSelector) Select(useProxy bool) (Endpoint, bool) {
	if !useProxy {
		return Endpoint{}, false
	}
	if len(s.pool) == 0 {
		s.warnOnce.Do(func() {
			s.logger.Warn("proxy requested but the proxy pool is empty, fetching directly")
		})
		return Endpoint{}, false
	}

	s.mu.Lock()
	i := s.rng.IntN(len(s.pool))
	s.mu.Unlock()
	return s.pool[i], true
}

// Len returns the pool size
func (s *RandomSelector) Len() int {
	return len(s.pool)
}
