package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amosWeiskopf/linkharvest/internal/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the HTTP API:

  GET  /health
  POST /api/v1/scrape[?format=csv|json|txt|md]
  GET  /api/v1/runs
  GET  /api/v1/runs/:id/links[?format=...]

The scrape body is {"target_url", "max_pages", "filter_pattern", "use_proxy"};
the camelCase keys targetUrl, maxPages, filterPattern and useProxy are
accepted as well.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host, _ = cmd.Flags().GetString("host")
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}

			s, err := a.newScraper()
			if err != nil {
				return err
			}

			return server.New(a.cfg.Server, s, a.store, a.logger).ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("host", "", "Listen host (overrides server.host)")
	cmd.Flags().IntP("port", "p", 0, "Listen port (overrides server.port)")

	return cmd
}
