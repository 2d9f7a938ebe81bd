package scraper

import (
	"context"

	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// Limiter paces fetches
type Limiter interface {
	// Wait blocks until the next fetch may start, or ctx is done
	Wait(ctx context.Context) error

	// Reset restarts the interval from now. The scraper calls it when a run
	// starts and after every fetch, so the delay separates the end of one
	// fetch from the start of the next.
	Reset()
}

// ProxySelector picks the endpoint a fetch goes through
type ProxySelector interface {
	// Select returns the endpoint to use and true, or false to fetch directly
	Select(useProxy bool) (Endpoint, bool)
}

// PageFetcher retrieves a single page
type PageFetcher interface {
	// Fetch performs one GET. Connection-level failures are returned as
	// *NetworkError; HTTP failures come back as a FetchResult with OK unset.
	Fetch(ctx context.Context, pageURL string, proxy Endpoint, viaProxy bool) (*FetchResult, error)
}

// LinkExtractor turns a page body into candidate links
type LinkExtractor interface {
	Extract(body string) []string
}

// ResultStore durably records accepted links. Implementations must be
// safe for concurrent appends.
type ResultStore interface {
	Append(ctx context.Context, link models.AcceptedLink) error
}

// ProgressFunc is called after each page that produced links
type ProgressFunc func(page, accepted int)

// FetchResult is the outcome of a fetch that reached the server
type FetchResult struct {
	OK         bool
	Status     int
	Body       string
	Diagnostic string
}
