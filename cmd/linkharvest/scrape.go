package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/linkharvest/internal/models"
	"github.com/amosWeiskopf/linkharvest/pkg/exporter"
	"github.com/amosWeiskopf/linkharvest/pkg/scraper"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [URL]",
		Short: "Scrape a paginated listing for links",
		Long: `Fetch URL?page=1, URL?page=2, ... and collect every <a href> that is an
absolute http(s) or root-relative link and, if --filter is given, matches
the regular expression. Stops at the first page without accepted links,
the first failed fetch, or after --max-pages pages.`,
		Example: `  linkharvest scrape https://example.com/videos --filter '/watch' --max-pages 5
  linkharvest scrape https://example.com/list --format json --output links.json`,
		Args: cobra.ExactArgs(1),
		RunE: runScrape,
	}

	cmd.Flags().IntP("max-pages", "n", 0, "Maximum pages to fetch (0 uses scraper.max_pages)")
	cmd.Flags().StringP("filter", "f", "", "Regular expression links must match")
	cmd.Flags().Bool("proxy", false, "Route fetches through the configured proxy pool")
	cmd.Flags().String("format", "csv", "Output format (csv, json, txt, md)")
	cmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolP("quiet", "q", false, "Disable the progress spinner and summary")

	return cmd
}

func runScrape(cmd *cobra.Command, args []string) error {
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	pattern, _ := cmd.Flags().GetString("filter")
	useProxy, _ := cmd.Flags().GetBool("proxy")
	formatName, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")
	quiet, _ := cmd.Flags().GetBool("quiet")

	format, err := exporter.ParseFormat(formatName)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := loadApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	var opts []scraper.Option
	var spin *spinner.Spinner
	if !quiet {
		spin = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		spin.Suffix = " fetching page 1"
		opts = append(opts, scraper.WithProgress(func(page, accepted int) {
			spin.Lock()
			spin.Suffix = fmt.Sprintf(" page %d: %d links, fetching page %d", page, accepted, page+1)
			spin.Unlock()
		}))
		spin.Start()
	}

	s, err := a.newScraper(opts...)
	if err != nil {
		if spin != nil {
			spin.Stop()
		}
		return err
	}

	outcome, err := s.Run(ctx, models.ScrapeRequest{
		TargetURL:     args[0],
		MaxPages:      maxPages,
		FilterPattern: pattern,
		UseProxy:      useProxy,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		var ie *scraper.InputError
		if errors.As(err, &ie) {
			return err
		}
		return fmt.Errorf("scrape failed: %w", err)
	}

	stderr := cmd.ErrOrStderr()
	for _, diag := range outcome.Errors {
		fmt.Fprintln(stderr, diag)
	}
	if !quiet {
		fmt.Fprintf(stderr, "Run %s: %d links from %d pages (stop: %s)\n",
			outcome.RunID, outcome.TotalResults, outcome.PagesVisited, outcome.StopReason)
	}

	body, err := exporter.New("Links from " + args[0]).Render(outcome.Results, format)
	if err != nil {
		return err
	}
	return writeOutput(cmd, output, body)
}
