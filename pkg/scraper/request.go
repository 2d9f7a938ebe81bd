package scraper

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/amosWeiskopf/linkharvest/internal/models"
	"github.com/amosWeiskopf/linkharvest/pkg/filter"
)

// plan is a validated ScrapeRequest with its pattern compiled
type plan struct {
	target   *url.URL
	maxPages int
	filter   *filter.Filter
	useProxy bool
}

// prepare validates req. maxPages of 0 falls back to defaultMaxPages.
func prepare(req models.ScrapeRequest, defaultMaxPages int) (plan, error) {
	raw := strings.TrimSpace(req.TargetURL)
	if raw == "" {
		return plan{}, &InputError{Field: "target_url", Err: ErrMissingTarget}
	}
	target, err := url.Parse(raw)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		return plan{}, &InputError{Field: "target_url", Err: fmt.Errorf("%w: %q", ErrInvalidTarget, raw)}
	}

	maxPages := req.MaxPages
	if maxPages == 0 {
		maxPages = defaultMaxPages
	}
	if maxPages < 1 {
		return plan{}, &InputError{Field: "max_pages", Err: fmt.Errorf("%w: got %d", ErrInvalidMaxPages, req.MaxPages)}
	}

	f, err := filter.Compile(req.FilterPattern)
	if err != nil {
		return plan{}, &InputError{Field: "filter_pattern", Err: fmt.Errorf("%w: %v", ErrInvalidPattern, err)}
	}

	return plan{
		target:   target,
		maxPages: maxPages,
		filter:   f,
		useProxy: req.UseProxy,
	}, nil
}

// PageURL returns base with its page query parameter set to page. Other
// query parameters are kept.
func PageURL(base *url.URL, page int) string {
	u := *base
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
