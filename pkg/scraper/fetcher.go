package scraper

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/proxy"
)

// Request headers sent with every fetch. Fixed so that results do not vary
// with the caller.
const (
	UserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"
	AcceptLanguage = "en-US,en;q=0.5"
	acceptHeader   = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
)

// DefaultTimeout bounds a single fetch.
const DefaultTimeout = 30 * time.Second

// HTTPFetcher implements PageFetcher over net/http
type HTTPFetcher struct {
	client      *http.Client
	timeout     time.Duration
	maxBodySize int64

	mu          sync.Mutex
	socksClient map[string]*http.Client
}

// FetcherOptions configures an HTTPFetcher
type FetcherOptions struct {
	Timeout     time.Duration // per-fetch timeout, DefaultTimeout if zero
	MaxBodySize int64         // bytes read from a response body, 0 for no limit
}

// NewHTTPFetcher creates a fetcher with its own connection pool
func NewHTTPFetcher(opts FetcherOptions) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &HTTPFetcher{
		client:      &http.Client{Transport: newTransport(nil), Timeout: opts.Timeout},
		timeout:     opts.Timeout,
		maxBodySize: opts.MaxBodySize,
		socksClient: make(map[string]*http.Client),
	}
}

func newTransport(dial func(ctx context.Context, network, addr string) (net.Conn, error)) *http.Transport {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     30 * time.Second,
	}
	if dial != nil {
		transport.DialContext = dial
	}
	return transport
}

// Fetch implements PageFetcher
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string, ep Endpoint, viaProxy bool) (*FetchResult, error) {
	client := f.client
	target := pageURL
	if viaProxy {
		if ep.IsSOCKS() {
			c, err := f.clientFor(ep)
			if err != nil {
				return nil, &NetworkError{URL: pageURL, Err: err}
			}
			client = c
		} else {
			target = ep.Rewrite(pageURL)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept-Language", AcceptLanguage)
	req.Header.Set("Accept", acceptHeader)

	resp, err := client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return &FetchResult{
			OK:         false,
			Status:     resp.StatusCode,
			Diagnostic: fmt.Sprintf("Failed to fetch %s: %d", pageURL, resp.StatusCode),
		}, nil
	}

	var body io.Reader = resp.Body
	if f.maxBodySize > 0 {
		body = io.LimitReader(resp.Body, f.maxBodySize)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &NetworkError{URL: pageURL, Err: fmt.Errorf("reading body: %w", err)}
	}

	return &FetchResult{OK: true, Status: resp.StatusCode, Body: string(data)}, nil
}

// clientFor returns a cached client dialing through a SOCKS endpoint
func (f *HTTPFetcher) clientFor(ep Endpoint) (*http.Client, error) {
	key := ep.URL.String()

	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.socksClient[key]; ok {
		return c, nil
	}

	dialer, err := proxy.FromURL(ep.URL, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS dialer for %s: %w", ep, err)
	}
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return dialer.Dial(network, addr)
	}

	c := &http.Client{Transport: newTransport(dial), Timeout: f.timeout}
	f.socksClient[key] = c
	return c, nil
}
