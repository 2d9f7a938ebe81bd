package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amosWeiskopf/linkharvest/internal/models"
)

// recordingStore keeps appended links and can fail on chosen URLs
type recordingStore struct {
	mu     sync.Mutex
	links  []models.AcceptedLink
	failOn map[string]bool
}

func (s *recordingStore) Append(_ context.Context, link models.AcceptedLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn[link.URL] {
		return errors.New("disk full")
	}
	s.links = append(s.links, link)
	return nil
}

// pagedServer serves linksPerPage[n-1] accepted links for ?page=n, plus a
// few links the filter always rejects.
func pagedServer(t *testing.T, linksPerPage []int) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	requested := []string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.RawQuery)
		mu.Unlock()

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		var b strings.Builder
		b.WriteString(`<html><body><a href="mailto:x@example.com">mail</a><a href="#top">top</a>`)
		if page >= 1 && page <= len(linksPerPage) {
			for i := 0; i < linksPerPage[page-1]; i++ {
				fmt.Fprintf(&b, `<a href="https://example.com/p%d/v%d">v</a>`, page, i)
			}
		}
		b.WriteString(`</body></html>`)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(server.Close)
	return server, &requested
}

func newTestScraper(store ResultStore, opts ...Option) *Scraper {
	base := []Option{WithLimiter(NewPacer(0))}
	return New(NewHTTPFetcher(FetcherOptions{Timeout: 5 * time.Second}), store, append(base, opts...)...)
}

func TestRunStopsOnEmptyPage(t *testing.T) {
	server, requested := pagedServer(t, []int{5, 4, 0})
	store := &recordingStore{}
	s := newTestScraper(store)

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 10})
	require.NoError(t, err)

	assert.Equal(t, models.StopNoMoreResults, outcome.StopReason)
	assert.Equal(t, 9, outcome.TotalResults)
	assert.Len(t, outcome.Results, 9)
	assert.Equal(t, 3, outcome.PagesVisited)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, []string{"page=1", "page=2", "page=3"}, *requested)

	// discovery order across pages
	assert.Equal(t, "https://example.com/p1/v0", outcome.Results[0])
	assert.Equal(t, "https://example.com/p2/v3", outcome.Results[8])

	require.Len(t, store.links, 9)
	for i, link := range store.links {
		assert.Equal(t, i+1, link.Sequence)
		assert.Equal(t, outcome.RunID, link.RunID)
		assert.Equal(t, outcome.Results[i], link.URL)
	}
	assert.Equal(t, server.URL+"?page=1", store.links[0].SourcePage)
	assert.Equal(t, server.URL+"?page=2", store.links[5].SourcePage)
}

func TestRunStopsOnHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestScraper(nil)
	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"Failed to fetch " + server.URL + "?page=1: 500"}, outcome.Errors)
	assert.Equal(t, []string{}, outcome.Results)
	assert.Equal(t, 0, outcome.TotalResults)
	assert.Equal(t, models.StopFetchError, outcome.StopReason)
}

func TestRunStopsAtPageLimit(t *testing.T) {
	server, requested := pagedServer(t, []int{5, 5, 5, 5})
	s := newTestScraper(nil)

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 2})
	require.NoError(t, err)

	assert.Equal(t, models.StopPageLimit, outcome.StopReason)
	assert.Equal(t, 10, outcome.TotalResults)
	assert.Equal(t, 2, outcome.PagesVisited)
	assert.Len(t, *requested, 2)
}

func TestRunFilterPattern(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			_, _ = w.Write([]byte(`<html></html>`))
			return
		}
		_, _ = w.Write([]byte(`<a href="https://example.com/a">a</a><a href="https://other.com/b">b</a>`))
	}))
	defer server.Close()

	s := newTestScraper(nil)
	outcome, err := s.Run(context.Background(), models.ScrapeRequest{
		TargetURL:     server.URL,
		MaxPages:      3,
		FilterPattern: `example\.com`,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/a"}, outcome.Results)
	assert.Equal(t, models.StopNoMoreResults, outcome.StopReason)
}

func TestRunEmptyProxyPoolFallsBackToDirect(t *testing.T) {
	server, requested := pagedServer(t, []int{2})
	s := newTestScraper(nil, WithProxySelector(NewRandomSelector(nil, nil, nil)))

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 5, UseProxy: true})
	require.NoError(t, err)

	assert.Equal(t, 2, outcome.TotalResults)
	assert.Empty(t, outcome.Errors)
	assert.Equal(t, []string{"page=1", "page=2"}, *requested)
}

func TestRunThroughGatewayProxy(t *testing.T) {
	origin, _ := pagedServer(t, []int{1})

	var mu sync.Mutex
	var proxied []string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := strings.TrimPrefix(r.URL.Path, "/")
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		mu.Lock()
		proxied = append(proxied, target)
		mu.Unlock()

		resp, err := http.Get(target)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
		_, _ = io.Copy(w, resp.Body)
	}))
	defer gateway.Close()

	ep, err := ParseEndpoint(gateway.URL + "/")
	require.NoError(t, err)
	s := newTestScraper(nil, WithProxySelector(NewRandomSelector([]Endpoint{ep}, nil, nil)))

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: origin.URL, MaxPages: 5, UseProxy: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/p1/v0"}, outcome.Results)
	assert.Equal(t, []string{origin.URL + "?page=1", origin.URL + "?page=2"}, proxied)
}

func TestRunNetworkErrorKeepsPartialResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			// drop the connection without a response
			hj, ok := w.(http.Hijacker)
			if !ok {
				w.WriteHeader(http.StatusTeapot)
				return
			}
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
			}
			return
		}
		_, _ = w.Write([]byte(`<a href="/one">1</a><a href="/two">2</a>`))
	}))
	defer server.Close()

	s := newTestScraper(nil)
	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 5})
	require.NoError(t, err)

	assert.Equal(t, []string{"/one", "/two"}, outcome.Results)
	assert.Equal(t, 2, outcome.TotalResults)
	require.Len(t, outcome.Errors, 1)
	assert.True(t, strings.HasPrefix(outcome.Errors[0], "Failed to fetch "+server.URL+"?page=2: "))
	assert.Equal(t, models.StopFetchError, outcome.StopReason)
}

func TestRunConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	target := server.URL
	server.Close()

	s := newTestScraper(nil)
	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: target, MaxPages: 1})
	require.NoError(t, err)

	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0], "Failed to fetch "+target+"?page=1")
	assert.Equal(t, 0, outcome.TotalResults)
}

func TestRunStoreFailureIsRecorded(t *testing.T) {
	server, _ := pagedServer(t, []int{3})
	store := &recordingStore{failOn: map[string]bool{"https://example.com/p1/v1": true}}
	s := newTestScraper(store)

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 5})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.TotalResults)
	assert.Len(t, store.links, 2)
	assert.Equal(t, []string{"Failed to store https://example.com/p1/v1: disk full"}, outcome.Errors)
	assert.Equal(t, models.StopNoMoreResults, outcome.StopReason)
}

func TestRunCancelledContext(t *testing.T) {
	server, requested := pagedServer(t, []int{3})
	s := newTestScraper(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := s.Run(ctx, models.ScrapeRequest{TargetURL: server.URL, MaxPages: 5})
	require.NoError(t, err)

	assert.Empty(t, *requested)
	assert.Equal(t, models.StopFetchError, outcome.StopReason)
	require.Len(t, outcome.Errors, 1)
	assert.Contains(t, outcome.Errors[0], "context canceled")
}

func TestRunInputErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     models.ScrapeRequest
		wantErr error
	}{
		{name: "missing target", req: models.ScrapeRequest{MaxPages: 1}, wantErr: ErrMissingTarget},
		{name: "blank target", req: models.ScrapeRequest{TargetURL: "   "}, wantErr: ErrMissingTarget},
		{name: "not a url", req: models.ScrapeRequest{TargetURL: "not-a-url"}, wantErr: ErrInvalidTarget},
		{name: "ftp scheme", req: models.ScrapeRequest{TargetURL: "ftp://example.com"}, wantErr: ErrInvalidTarget},
		{name: "negative pages", req: models.ScrapeRequest{TargetURL: "https://example.com", MaxPages: -1}, wantErr: ErrInvalidMaxPages},
		{name: "bad pattern", req: models.ScrapeRequest{TargetURL: "https://example.com", FilterPattern: "(["}, wantErr: ErrInvalidPattern},
	}

	fetcher := &countingFetcher{}
	s := New(fetcher, nil, WithLimiter(NewPacer(0)))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := s.Run(context.Background(), tt.req)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsInputError(err))
		})
	}
	assert.Zero(t, fetcher.calls)
}

func TestRunDefaultMaxPages(t *testing.T) {
	fetcher := &countingFetcher{body: `<a href="/x">x</a>`}
	s := New(fetcher, nil, WithLimiter(NewPacer(0)), WithDefaultMaxPages(4))

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: "https://example.com/list"})
	require.NoError(t, err)

	assert.Equal(t, 4, fetcher.calls)
	assert.Equal(t, models.StopPageLimit, outcome.StopReason)
	assert.Equal(t, "https://example.com/list?page=4", fetcher.last)
}

func TestRunInvariants(t *testing.T) {
	pattern := regexp.MustCompile(`/p[13]/`)
	for maxPages := 1; maxPages <= 5; maxPages++ {
		t.Run(fmt.Sprintf("max_pages=%d", maxPages), func(t *testing.T) {
			server, requested := pagedServer(t, []int{3, 2, 4, 1})
			s := newTestScraper(nil)

			outcome, err := s.Run(context.Background(), models.ScrapeRequest{
				TargetURL:     server.URL,
				MaxPages:      maxPages,
				FilterPattern: pattern.String(),
			})
			require.NoError(t, err)

			assert.Equal(t, len(outcome.Results), outcome.TotalResults)
			assert.LessOrEqual(t, len(*requested), maxPages)
			assert.LessOrEqual(t, outcome.TotalResults, maxPages*4)
			for _, u := range outcome.Results {
				assert.Regexp(t, pattern, u)
			}
		})
	}
}

func TestRunProgress(t *testing.T) {
	server, _ := pagedServer(t, []int{2, 3})
	var calls [][2]int
	s := newTestScraper(nil, WithProgress(func(page, accepted int) {
		calls = append(calls, [2]int{page, accepted})
	}))

	_, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 5})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 2}, {2, 3}}, calls)
}

func TestRunIDsAndClock(t *testing.T) {
	server, _ := pagedServer(t, []int{1})
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := &recordingStore{}
	s := newTestScraper(store,
		WithRunIDs(func() string { return "run-1" }),
		WithClock(func() time.Time { return fixed }),
	)

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: server.URL, MaxPages: 1})
	require.NoError(t, err)

	assert.Equal(t, "run-1", outcome.RunID)
	assert.Equal(t, fixed, outcome.StartedAt)
	require.Len(t, store.links, 1)
	assert.Equal(t, fixed, store.links[0].DiscoveredAt)
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		base string
		page int
		want string
	}{
		{base: "https://example.com", page: 1, want: "https://example.com?page=1"},
		{base: "https://example.com/c/channel", page: 2, want: "https://example.com/c/channel?page=2"},
		{base: "https://example.com/search?q=go", page: 3, want: "https://example.com/search?page=3&q=go"},
		{base: "https://example.com/list?page=9", page: 1, want: "https://example.com/list?page=1"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			p, err := prepare(models.ScrapeRequest{TargetURL: tt.base}, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, PageURL(p.target, tt.page))
		})
	}
}

// countingFetcher answers every fetch with the same body
type countingFetcher struct {
	calls int
	last  string
	body  string
}

func (f *countingFetcher) Fetch(_ context.Context, pageURL string, _ Endpoint, _ bool) (*FetchResult, error) {
	f.calls++
	f.last = pageURL
	return &FetchResult{OK: true, Status: http.StatusOK, Body: f.body}, nil
}

// timedFetcher records when each fetch starts and ends. Page 1 yields one
// link, every later page is empty.
type timedFetcher struct {
	mu     sync.Mutex
	delay  time.Duration
	starts []time.Time
	ends   []time.Time
}

func (f *timedFetcher) Fetch(_ context.Context, pageURL string, _ Endpoint, _ bool) (*FetchResult, error) {
	f.mu.Lock()
	f.starts = append(f.starts, time.Now())
	f.mu.Unlock()

	time.Sleep(f.delay)
	body := ""
	if strings.HasSuffix(pageURL, "page=1") {
		body = `<a href="/first">first</a>`
	}

	f.mu.Lock()
	f.ends = append(f.ends, time.Now())
	f.mu.Unlock()
	return &FetchResult{OK: true, Status: http.StatusOK, Body: body}, nil
}

func TestRunPacesFirstPageOfEveryRun(t *testing.T) {
	interval := 80 * time.Millisecond
	fetcher := &timedFetcher{}
	s := New(fetcher, nil, WithLimiter(NewPacer(interval)))
	req := models.ScrapeRequest{TargetURL: "https://example.com/list", MaxPages: 1}

	for run := 1; run <= 2; run++ {
		start := time.Now()
		_, err := s.Run(context.Background(), req)
		require.NoError(t, err)

		first := fetcher.starts[len(fetcher.starts)-1]
		assert.GreaterOrEqual(t, first.Sub(start), interval-10*time.Millisecond, "run %d", run)

		// idle long enough for the limiter to refill
		time.Sleep(3 * interval)
	}
}

func TestRunSpacesFetchEndToNextStart(t *testing.T) {
	interval := 60 * time.Millisecond
	fetcher := &timedFetcher{delay: 2 * interval}
	s := New(fetcher, nil, WithLimiter(NewPacer(interval)))

	outcome, err := s.Run(context.Background(), models.ScrapeRequest{TargetURL: "https://example.com/list", MaxPages: 5})
	require.NoError(t, err)
	assert.Equal(t, models.StopNoMoreResults, outcome.StopReason)

	require.Len(t, fetcher.starts, 2)
	gap := fetcher.starts[1].Sub(fetcher.ends[0])
	assert.GreaterOrEqual(t, gap, interval-10*time.Millisecond)
}

func TestRunQueuedBehindAnotherRunCanBeCancelled(t *testing.T) {
	fetcher := &countingFetcher{body: `<a href="/x">x</a>`}
	s := New(fetcher, nil, WithLimiter(NewPacer(0)))

	// an earlier run holds the slot
	require.NoError(t, s.acquire(context.Background()))
	defer s.release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan *models.ScrapeOutcome, 1)
	go func() {
		outcome, err := s.Run(ctx, models.ScrapeRequest{TargetURL: "https://example.com/list", MaxPages: 1})
		assert.NoError(t, err)
		done <- outcome
	}()

	select {
	case outcome := <-done:
		require.NotNil(t, outcome)
		assert.Equal(t, models.StopFetchError, outcome.StopReason)
		assert.Equal(t, 0, outcome.PagesVisited)
		assert.Empty(t, outcome.Results)
		require.Len(t, outcome.Errors, 1)
		assert.Contains(t, outcome.Errors[0], "context deadline exceeded")
	case <-time.After(2 * time.Second):
		t.Fatal("queued run ignored cancellation")
	}
	assert.Zero(t, fetcher.calls)
}

func TestRunLogsFilterPattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	s := New(&countingFetcher{}, nil, WithLimiter(NewPacer(0)), WithLogger(logger))

	_, err := s.Run(context.Background(), models.ScrapeRequest{
		TargetURL:     "https://example.com/list",
		FilterPattern: `/watch\?v=`,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"msg":"scrape started"`)
	assert.Contains(t, buf.String(), `"filter":"/watch\\?v="`)
}
