package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/crmarques/autosync/engine"
	"github.com/crmarques/autosync/watch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "run",
		GroupID: groupUserFacing,
		Short:   "Watch every managed directory and synchronize continuously",
		Long: `Run is the standalone mode: it watches the managed directories for file
writes, pushing after each save and pulling on the configured interval,
until interrupted. With metrics-listen configured it also serves Prometheus
counters on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(cfg.Directories) == 0 {
				return errors.New("no directories configured; run \"autosync setup\" first")
			}

			logger := newLogger(cmd.ErrOrStderr(), debugFlag || cfg.Debug)

			opts := engine.Options{Logger: logger}
			var registry *prometheus.Registry
			if cfg.MetricsListen != "" {
				registry = prometheus.NewRegistry()
				opts.Metrics = engine.NewMetrics(registry)
			}

			eng, err := buildEngine(cmd, cfg, opts)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			watcher := watch.New(eng, cfg.Directories, 0, logger)
			dispatcher := engine.NewDispatcher(eng.Messages(), newConsoleNotifier(cmd), nil, engine.DispatcherOptions{
				Silent: cfg.Silent,
			})

			group, groupCtx := errgroup.WithContext(ctx)
			group.Go(func() error {
				return watcher.Run(groupCtx)
			})
			group.Go(func() error {
				return dispatcher.Run(groupCtx)
			})
			if registry != nil {
				group.Go(func() error {
					return serveMetrics(groupCtx, cfg.MetricsListen, registry)
				})
			}

			err = group.Wait()
			// In-flight git operations are never cancelled; let them land.
			eng.Wait()
			dispatcher.Tick()

			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func serveMetrics(ctx context.Context, addr string, registry *prometheus.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{Addr: addr, Handler: mux}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-serveErr:
		return err
	}
}
