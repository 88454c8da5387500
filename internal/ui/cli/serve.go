package cli

import (
	"context"
	coreapp "edgegraph/internal/core/app"
	"edgegraph/internal/shared/observability"
	"edgegraph/internal/ui/api"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCommand(s *session) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the graph over HTTP",
		Long: `serve loads the dataset (if one is given or configured) and answers
queries on the HTTP API until interrupted. With watching enabled the dataset
is reloaded whenever it changes on disk.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				s.cfg.Server.Address = addr
			}
			if cmd.Flags().Changed("watch") {
				s.cfg.Watch.Enabled = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing := s.startTracing(ctx)
			defer shutdownTracing()

			a, err := s.loadApp(ctx, datasetArg(args), false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			return serve(ctx, a)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the dataset when it changes")
	return cmd
}

// serve runs the API server and, when enabled, the dataset watcher until ctx
// is done or one of them fails.
func serve(ctx context.Context, a *coreapp.App) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return api.NewServer(a).Run(gctx)
	})

	if a.Config.Watch.Enabled && a.DatasetPath() != "" {
		g.Go(func() error {
			if err := a.StartWatcher(gctx); err != nil {
				return err
			}
			<-gctx.Done()
			a.StopWatcher()
			return nil
		})
	}

	return g.Wait()
}

func newUICommand(s *session) *cobra.Command {
	var (
		watch       bool
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "ui [file]",
		Short: "Explore the graph in a terminal UI",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("watch") {
				s.cfg.Watch.Enabled = watch
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			shutdownTracing := s.startTracing(ctx)
			defer shutdownTracing()

			a, err := s.loadApp(ctx, datasetArg(args), false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if a.Config.Watch.Enabled && a.DatasetPath() != "" {
				if err := a.StartWatcher(ctx); err != nil {
					return err
				}
			}

			if metricsAddr != "" {
				obs := NewObservabilityServer(metricsAddr, coreapp.NewHealthService(a))
				if err := obs.Start(); err != nil {
					return err
				}
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = obs.Stop(stopCtx)
				}()
			}

			return runUI(ctx, a)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "Reload the dataset when it changes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve /metrics and /health on this address while the UI runs")
	return cmd
}

// startTracing installs the OTLP exporter when tracing is enabled. The
// returned function flushes it.
func (s *session) startTracing(ctx context.Context) func() {
	obs := s.cfg.Observability
	if !obs.EnableTracing {
		return func() {}
	}
	shutdown, err := observability.InitTracing(ctx, observability.TracingOptions{
		ServiceName: obs.ServiceName,
		Endpoint:    obs.OTLPEndpoint,
		Insecure:    true,
	})
	if err != nil {
		slog.Warn("tracing disabled", "error", err)
		return func() {}
	}
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			slog.Warn("flushing traces", "error", err)
		}
	}
}
