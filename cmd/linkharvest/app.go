package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/linkharvest/internal/config"
	applog "github.com/amosWeiskopf/linkharvest/internal/log"
	"github.com/amosWeiskopf/linkharvest/internal/storage"
	"github.com/amosWeiskopf/linkharvest/pkg/scraper"
)

// app bundles what every command needs once flags are parsed
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  storage.Store
}

// loadApp reads configuration, sets up logging and opens the result store.
// The caller must Close the returned app.
func loadApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, err := applog.New(cmd.ErrOrStderr(), level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Type, err)
	}
	logger.Debug("storage opened", "type", cfg.Storage.Type, "path", cfg.Storage.Path, "dsn", cfg.Storage.DSN)

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

// newScraper wires the scrape loop from configuration
func (a *app) newScraper(opts ...scraper.Option) (*scraper.Scraper, error) {
	pool, err := scraper.ParsePool(a.cfg.Scraper.Proxies)
	if err != nil {
		return nil, err
	}

	fetcher := scraper.NewHTTPFetcher(scraper.FetcherOptions{
		Timeout:     a.cfg.Scraper.Timeout,
		MaxBodySize: a.cfg.Scraper.MaxBodySize,
	})

	selector := scraper.NewRandomSelector(pool, nil, a.logger)
	a.logger.Debug("proxy pool loaded", "proxies", selector.Len())

	base := []scraper.Option{
		scraper.WithLogger(a.logger),
		scraper.WithLimiter(scraper.NewPacer(a.cfg.Scraper.RequestDelay)),
		scraper.WithProxySelector(selector),
		scraper.WithDefaultMaxPages(a.cfg.Scraper.MaxPages),
	}
	return scraper.New(fetcher, a.store, append(base, opts...)...), nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// writeOutput writes body to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path, body string) error {
	if path == "" {
		if !strings.HasSuffix(body, "\n") {
			body += "\n"
		}
		_, err := io.WriteString(cmd.OutOrStdout(), body)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Saved to %s\n", path)
	return nil
}
