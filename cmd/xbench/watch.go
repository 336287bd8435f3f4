// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/ManuGH/xbench/internal/api"
	"github.com/ManuGH/xbench/internal/config"
	"github.com/ManuGH/xbench/internal/health"
	xglog "github.com/ManuGH/xbench/internal/log"
	"github.com/ManuGH/xbench/internal/system"
	"github.com/ManuGH/xbench/internal/telemetry"
	"github.com/ManuGH/xbench/internal/version"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type watchOptions struct {
	file     string
	listen   string
	debounce time.Duration
	minGap   time.Duration

	otlpEndpoint string
	otlpExporter string
	sampling     float64
}

func newWatchCommand(opts *globalOptions) *cobra.Command {
	wo := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch -f FILE",
		Short: "Serve the effective experiment and reload it when the file changes",
		Long: `Loads the experiment, then serves it over HTTP while watching the file.
A change that fails validation is logged and the previous experiment stays
in effect.

Routes:
  GET /healthz       liveness and detected GPU stack
  GET /readyz        readiness of the experiment file and last reload
  GET /config        effective experiment (JSON, or ?format=yaml)
  GET /metrics       Prometheus metrics
  GET /openapi.yaml  OpenAPI document for these routes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if wo.file == "" {
				return usageErrorf("--file is required")
			}
			return runWatch(cmd.Context(), opts, wo)
		},
	}
	cmd.Flags().StringVarP(&wo.file, "file", "f", "", "path to the experiment YAML file")
	cmd.Flags().StringVar(&wo.listen, "listen", "127.0.0.1:9464", "HTTP listen address")
	cmd.Flags().DurationVar(&wo.debounce, "debounce", config.DefaultDebounce, "quiet period after a file change before reloading")
	cmd.Flags().DurationVar(&wo.minGap, "min-reload-interval", time.Second, "minimum time between reloads; 0 disables the limit")
	cmd.Flags().StringVar(&wo.otlpEndpoint, "otlp-endpoint", "", "OTLP collector endpoint; empty disables tracing")
	cmd.Flags().StringVar(&wo.otlpExporter, "otlp-exporter", telemetry.ExporterGRPC, "OTLP exporter: grpc or http")
	cmd.Flags().Float64Var(&wo.sampling, "trace-sampling", 1.0, "trace sampling rate between 0 and 1")
	return cmd
}

func runWatch(ctx context.Context, opts *globalOptions, wo *watchOptions) error {
	logger := xglog.WithComponent("watch")

	loader := config.NewLoader(wo.file, opts.probe)
	initial, err := loader.Load()
	if err != nil {
		fmt.Fprintf(opts.stderr, "Configuration error in %s:\n  %v\n", wo.file, err)
		return failed(fmt.Errorf("%s is invalid", wo.file))
	}

	tracing := wo.otlpEndpoint != ""
	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        tracing,
		ServiceName:    "xbench",
		ServiceVersion: version.Version,
		ExporterType:   wo.otlpExporter,
		Endpoint:       wo.otlpEndpoint,
		SamplingRate:   wo.sampling,
	})
	if err != nil {
		return usageErrorf("tracing: %v", err)
	}
	defer func() {
		if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	ln, err := net.Listen("tcp", wo.listen)
	if err != nil {
		return failed(fmt.Errorf("listen %s: %w", wo.listen, err))
	}
	fmt.Fprintf(opts.stdout, "serving %s on http://%s\n", wo.file, ln.Addr())

	if _, err := publishHost(opts.probe, system.DefaultPCIRoot); err != nil {
		logger.Debug().Err(err).Msg("pci scan unavailable, gpu device gauges empty")
	}

	holder := config.NewHolder(initial, loader)
	holder.Debounce = wo.debounce
	if wo.minGap > 0 {
		holder.ReloadLimiter = rate.NewLimiter(rate.Every(wo.minGap), 1)
	}
	updates := make(chan config.Experiment, 1)
	holder.RegisterListener(updates)

	serviceName := ""
	if tracing {
		serviceName = "xbench"
	}
	handler := api.NewRouter(api.Deps{
		Source: holder,
		Probe:  opts.probe,
		Health: health.NewManager(version.Version,
			health.NewFileChecker("experiment_file", wo.file),
			health.NewReloadChecker(holder.LastReload),
		),
		TracingService: serviceName,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := holder.StartWatcher(gctx); err != nil {
			return err
		}
		holder.Wait()
		return nil
	})
	g.Go(func() error {
		return api.Serve(gctx, ln, handler)
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case exp := <-updates:
				logger.Info().
					Str(xglog.FieldEvent, "experiment.updated").
					Str("experiment", exp.Name).
					Str("device", exp.Backend.Device).
					Msg("experiment in effect")
			}
		}
	})

	if err := g.Wait(); err != nil {
		return failed(err)
	}
	return nil
}
