// Package scraper drives the paginated link-harvesting loop.
//
// A run walks target?page=1, page=2, ... and stops on the first page that
// yields no accepted links, on the first failed fetch, or after the page
// limit. Everything gathered before the stop is returned.
package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/amosWeiskopf/linkharvest/internal/models"
	"github.com/amosWeiskopf/linkharvest/pkg/extractor"
	"github.com/amosWeiskopf/linkharvest/pkg/filter"
)

// DefaultMaxPages applies when a request leaves max_pages unset.
const DefaultMaxPages = 10

// Scraper runs scrape requests one at a time
type Scraper struct {
	fetcher   PageFetcher
	store     ResultStore
	limiter   Limiter
	selector  ProxySelector
	extractor LinkExtractor
	logger    *slog.Logger
	progress  ProgressFunc

	defaultMaxPages int
	now             func() time.Time
	newRunID        func() string

	// one-slot semaphore: runs are serialized so that no two fetches are
	// ever in flight, and a queued run can still be cancelled
	runSlot chan struct{}
}

// Option configures a Scraper
type Option func(*Scraper)

// WithLimiter replaces the default one-second Pacer.
func WithLimiter(l Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

// WithProxySelector replaces the default selector, which has an empty pool.
func WithProxySelector(sel ProxySelector) Option {
	return func(s *Scraper) { s.selector = sel }
}

// WithExtractor replaces the default anchor extractor.
func WithExtractor(e LinkExtractor) Option {
	return func(s *Scraper) { s.extractor = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithProgress registers a callback invoked after each page with links.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scraper) { s.progress = fn }
}

// WithDefaultMaxPages sets the page limit used when a request has none.
func WithDefaultMaxPages(n int) Option {
	return func(s *Scraper) { s.defaultMaxPages = n }
}

// WithClock overrides time.Now for link timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Scraper) { s.now = now }
}

// WithRunIDs overrides run id generation.
func WithRunIDs(gen func() string) Option {
	return func(s *Scraper) { s.newRunID = gen }
}

// New creates a Scraper. A nil store discards accepted links after they
// are added to the outcome.
func New(fetcher PageFetcher, store ResultStore, opts ...Option) *Scraper {
	s := &Scraper{
		fetcher:         fetcher,
		store:           store,
		limiter:         NewPacer(DefaultRequestDelay),
		extractor:       extractor.New(),
		logger:          slog.New(slog.DiscardHandler),
		defaultMaxPages: DefaultMaxPages,
		now:             time.Now,
		newRunID:        uuid.NewString,
		runSlot:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = discardStore{}
	}
	if s.selector == nil {
		s.selector = NewRandomSelector(nil, nil, s.logger)
	}
	return s
}

// Run validates req and scrapes until a stop condition. The only error it
// returns is an *InputError, before anything is fetched; failures after
// that are recorded in the outcome's Errors.
func (s *Scraper) Run(ctx context.Context, req models.ScrapeRequest) (*models.ScrapeOutcome, error) {
	p, err := prepare(req, s.defaultMaxPages)
	if err != nil {
		return nil, err
	}

	acc := accumulator{
		runID:     s.newRunID(),
		results:   []string{},
		errors:    []string{},
		startedAt: s.now(),
	}
	logger := s.logger.With("run_id", acc.runID, "target", p.target.String())

	if err := s.acquire(ctx); err != nil {
		logger.Warn("scrape cancelled while queued", "error", err)
		acc = acc.fail(fmt.Sprintf("Scrape cancelled before page 1: %v", err))
		return acc.finish(models.StopFetchError, s.now()), nil
	}
	defer s.release()

	logger.Info("scrape started",
		"max_pages", p.maxPages,
		"filter", patternString(p.filter),
		"use_proxy", p.useProxy,
	)
	s.limiter.Reset()

	st := state{page: 1, running: true}
	for st.running {
		acc, st = s.step(ctx, logger, p, acc, st.page)
	}

	outcome := acc.finish(st.reason, s.now())
	logger.Info("scrape finished",
		"reason", outcome.StopReason,
		"pages", outcome.PagesVisited,
		"results", outcome.TotalResults,
		"errors", len(outcome.Errors),
	)
	return outcome, nil
}

// acquire takes the run slot, waiting for an earlier run to finish unless
// ctx is done first. A free slot is always taken.
func (s *Scraper) acquire(ctx context.Context) error {
	select {
	case s.runSlot <- struct{}{}:
		return nil
	default:
	}
	select {
	case s.runSlot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scraper) release() {
	<-s.runSlot
}

// state is Running(page) while running is set, Stopped(reason) otherwise
type state struct {
	page    int
	running bool
	reason  models.StopReason
}

func stopped(reason models.StopReason) state {
	return state{reason: reason}
}

// accumulator is threaded through the loop by value and finalized once
type accumulator struct {
	runID     string
	results   []string
	errors    []string
	sequence  int
	pages     int
	startedAt time.Time
}

func (a accumulator) fail(diagnostic string) accumulator {
	a.errors = append(a.errors, diagnostic)
	return a
}

func (a accumulator) finish(reason models.StopReason, at time.Time) *models.ScrapeOutcome {
	return &models.ScrapeOutcome{
		RunID:        a.runID,
		Results:      a.results,
		Errors:       a.errors,
		TotalResults: len(a.results),
		PagesVisited: a.pages,
		StopReason:   reason,
		StartedAt:    a.startedAt,
		FinishedAt:   at,
	}
}

// step processes one page and returns the next state
func (s *Scraper) step(ctx context.Context, logger *slog.Logger, p plan, acc accumulator, page int) (accumulator, state) {
	if err := s.limiter.Wait(ctx); err != nil {
		logger.Warn("scrape interrupted while waiting", "page", page, "error", err)
		return acc.fail(fmt.Sprintf("Scrape interrupted before page %d: %v", page, err)), stopped(models.StopFetchError)
	}

	pageURL := PageURL(p.target, page)
	ep, viaProxy := s.selector.Select(p.useProxy)
	if viaProxy {
		logger.Debug("fetching through proxy", "page", page, "proxy", ep.String())
	}

	res, err := s.fetcher.Fetch(ctx, pageURL, ep, viaProxy)
	s.limiter.Reset()
	acc.pages++
	if err != nil {
		logger.Warn("fetch failed", "url", pageURL, "error", err)
		return acc.fail(err.Error()), stopped(models.StopFetchError)
	}
	if !res.OK {
		logger.Warn("fetch returned non-2xx status", "url", pageURL, "status", res.Status)
		return acc.fail(res.Diagnostic), stopped(models.StopFetchError)
	}

	candidates := s.extractor.Extract(res.Body)
	accepted := p.filter.Apply(candidates)
	logger.Debug("page processed", "url", pageURL, "candidates", len(candidates), "accepted", len(accepted))
	if len(accepted) == 0 {
		return acc, stopped(models.StopNoMoreResults)
	}

	for _, link := range accepted {
		acc.sequence++
		record := models.AcceptedLink{
			RunID:        acc.runID,
			URL:          link,
			SourcePage:   pageURL,
			Sequence:     acc.sequence,
			DiscoveredAt: s.now(),
		}
		if err := s.store.Append(ctx, record); err != nil {
			logger.Error("failed to store link", "url", link, "error", err)
			acc = acc.fail(fmt.Sprintf("Failed to store %s: %v", link, err))
		}
		acc.results = append(acc.results, link)
	}

	if s.progress != nil {
		s.progress(page, len(accepted))
	}

	next := page + 1
	if next > p.maxPages {
		return acc, stopped(models.StopPageLimit)
	}
	return acc, state{page: next, running: true}
}

func patternString(f *filter.Filter) string {
	if re := f.Pattern(); re != nil {
		return re.String()
	}
	return ""
}

type discardStore struct{}

func (discardStore) Append(context.Context, models.AcceptedLink) error { return nil }
