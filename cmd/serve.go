package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/csv-customiser/internal/metrics"
	"github.com/ginjaninja78/csv-customiser/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP conversion service",
	Long: `Serve exposes the converter over HTTP:

  POST /api/convert   upload an export (multipart field "file"), receive the
                      converted file; ?format=csv|xlsx selects the output
  POST /api/inspect   upload an export, receive the column discovery report
  GET  /api/health    liveness check
  GET  /metrics       Prometheus metrics

The service stops gracefully on SIGINT or SIGTERM.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.config.Server
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}

		recorder := metrics.New()
		app.converter.WithObserver(recorder)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return server.New(cfg, app.converter, recorder, Version, app.logger).Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
}
