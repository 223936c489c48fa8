package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"highlight-extractor/internal/batch"
	"highlight-extractor/internal/metrics"
	"highlight-extractor/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		metricsAddr string
		settle      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <input-dir> <output-dir>",
		Short: "Extract highlights from PDFs as they are added to a directory",
		Long: `Run extract once, then keep watching input-dir and extract every PDF that is
created or rewritten there. Stops on interrupt.

Examples:
  highlights watch ~/inbox ~/inbox/highlights
  highlights watch --metrics-addr :9100 ./in ./out`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("metrics-addr") {
				a.cfg.Metrics.Addr = metricsAddr
			}
			if !cmd.Flags().Changed("settle") {
				settle = a.cfg.Watch.Settle.Duration()
			}

			ctx := cmd.Context()
			m := metrics.New()
			if a.cfg.Metrics.Addr != "" {
				srv := serveMetrics(ctx, a, m)
				defer srv.Close()
			}

			runner := batch.NewRunner(a.logger, m, a.cfg.Batch.Workers, a.cfg.Batch.Suffix)
			return watch.New(runner, a.logger.Named("watch"), args[0], args[1], settle).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address for the Prometheus /metrics endpoint")
	cmd.Flags().DurationVar(&settle, "settle", 0, "quiet period before a changed file is processed")
	return cmd
}

func serveMetrics(ctx context.Context, a *app, m *metrics.Metrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              a.cfg.Metrics.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info(ctx, "serving metrics", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error(ctx, "metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
