// Package main provides the entry point for the replica monitor service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devrev/pairdb/replica-monitor/internal/config"
	"github.com/devrev/pairdb/replica-monitor/internal/metrics"
	"github.com/devrev/pairdb/replica-monitor/internal/monitor"
	"github.com/devrev/pairdb/replica-monitor/internal/probe"
	"github.com/devrev/pairdb/replica-monitor/internal/server"
	"github.com/devrev/pairdb/replica-monitor/internal/store"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		verbose     bool
		printConfig bool
	)

	cmd := &cobra.Command{
		Use:   "replica-monitor",
		Short: "Report whether a Redis replica is fit to serve reads",
		Long: `Poll a Redis replica on a fixed interval and publish a liveness verdict.

A replica is not alive while it is unreachable or performing a full resync
from its master. The verdict is served on /health/replica (200 or 503)
and exported as Prometheus metrics.

Example:
  replica-monitor --config /etc/replica-monitor/config.yaml
  REPLICA_MONITOR_REDIS_HOST=10.0.0.7 replica-monitor --verbose`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("verbose") {
				cfg.Monitor.Verbose = verbose
			}
			if cfg.Monitor.Name == "" {
				cfg.Monitor.Name = uuid.New().String()
			}

			if printConfig {
				out, err := cfg.YAML()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}

			logger := initLogger(cfg.Logging)
			defer logger.Sync()

			return run(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log replication properties and full errors on failure")
	cmd.Flags().BoolVar(&printConfig, "print-config", false, "print the effective configuration and exit")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger.Info("starting replica monitor",
		zap.String("monitor", cfg.Monitor.Name),
		zap.String("redis_host", cfg.Redis.Host),
		zap.Int("redis_port", cfg.Redis.Port),
		zap.Duration("check_interval", cfg.Monitor.CheckInterval),
	)

	provider := store.NewRedisProvider(&store.RedisConfig{
		Host:        cfg.Redis.Host,
		Port:        cfg.Redis.Port,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	}, logger)
	defer provider.Close()

	reg := prometheus.NewRegistry()
	opts := []monitor.Option{
		monitor.WithName(cfg.Monitor.Name),
		monitor.WithLogger(logger),
		monitor.WithVerbose(cfg.Monitor.Verbose),
		monitor.WithProbe(probe.New(probe.WithSyncKey(cfg.Monitor.SyncKey))),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, monitor.WithMetrics(metrics.NewMetrics(reg, cfg.Monitor.Name)))
	}

	mon := monitor.New(provider, opts...)
	if err := mon.Configure(cfg.Monitor.CheckInterval); err != nil {
		return fmt.Errorf("failed to configure monitor: %w", err)
	}

	httpServer := server.NewServer(cfg, mon, reg, logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := mon.Start(); err != nil {
		return fmt.Errorf("failed to start monitor: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(httpServer.Start)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown HTTP server", zap.Error(err))
		}
		if err := mon.StopAndWait(shutdownCtx); err != nil {
			logger.Error("monitor did not stop in time", zap.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("replica monitor shutdown complete")
	return nil
}
