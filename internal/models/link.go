package models

import (
	"encoding/json"
	"time"
)

// ScrapeRequest is the caller-facing payload for one scrape run.
type ScrapeRequest struct {
	TargetURL     string `json:"target_url" yaml:"target_url"`
	MaxPages      int    `json:"max_pages" yaml:"max_pages"`
	FilterPattern string `json:"filter_pattern,omitempty" yaml:"filter_pattern"`
	UseProxy      bool   `json:"use_proxy" yaml:"use_proxy"`
}

// UnmarshalJSON accepts both snake_case keys and their camelCase forms
// (targetUrl, maxPages, filterPattern, useProxy). When both spellings are
// present the snake_case value wins. Unknown keys are ignored.
func (r *ScrapeRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		TargetURL     *string `json:"target_url"`
		MaxPages      *int    `json:"max_pages"`
		FilterPattern *string `json:"filter_pattern"`
		UseProxy      *bool   `json:"use_proxy"`

		TargetURLCamel     *string `json:"targetUrl"`
		MaxPagesCamel      *int    `json:"maxPages"`
		FilterPatternCamel *string `json:"filterPattern"`
		UseProxyCamel      *bool   `json:"useProxy"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*r = ScrapeRequest{
		TargetURL:     pick(raw.TargetURL, raw.TargetURLCamel),
		MaxPages:      pick(raw.MaxPages, raw.MaxPagesCamel),
		FilterPattern: pick(raw.FilterPattern, raw.FilterPatternCamel),
		UseProxy:      pick(raw.UseProxy, raw.UseProxyCamel),
	}
	return nil
}

func pick[T any](primary, alt *T) T {
	if primary != nil {
		return *primary
	}
	if alt != nil {
		return *alt
	}
	var zero T
	return zero
}

// AcceptedLink is a candidate that passed the filter, with its provenance
type AcceptedLink struct {
	RunID        string    `json:"run_id" db:"run_id"`
	URL          string    `json:"url" db:"url"`
	SourcePage   string    `json:"source_page" db:"source_page"`
	Sequence     int       `json:"sequence" db:"sequence"`
	DiscoveredAt time.Time `json:"discovered_at" db:"discovered_at"`
}

// StopReason records why a run ended
type StopReason string

const (
	StopPageLimit     StopReason = "page-limit"
	StopNoMoreResults StopReason = "no-more-results"
	StopFetchError    StopReason = "fetch-error"
)

// ScrapeOutcome contains the results of a scrape run
type ScrapeOutcome struct {
	RunID        string     `json:"run_id"`
	Results      []string   `json:"results"`
	Errors       []string   `json:"errors"`
	TotalResults int        `json:"total_results"`
	PagesVisited int        `json:"pages_visited"`
	StopReason   StopReason `json:"stop_reason"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   time.Time  `json:"finished_at"`
}

// RunSummary describes a stored run
type RunSummary struct {
	RunID     string    `json:"run_id" db:"run_id"`
	Links     int       `json:"links" db:"links"`
	StartedAt time.Time `json:"started_at" db:"started_at"`
}
