package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mycok/entityusage/service"
	"github.com/mycok/entityusage/service/metrics"
	"github.com/mycok/entityusage/service/rebuilder"
)

const serviceShutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions, logger *logrus.Entry) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the background rebuilder and the metrics endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.loadApp(logger)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx, cancelFn := context.WithCancel(cmd.Context())
			defer cancelFn()

			if err := a.seed(ctx); err != nil {
				return err
			}

			svcGroup, err := configureServices(a)
			if err != nil {
				return err
			}

			// Listen for os signals and trigger a graceful shutdown.
			go func() {
				signalChan := make(chan os.Signal, 1)
				signal.Notify(signalChan, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
				defer signal.Stop(signalChan)

				select {
				case s := <-signalChan:
					logger.WithField("signal", s.String()).Info("shutting down due to os signal")
					cancelFn()
				case <-ctx.Done():
				}
			}()

			if err := svcGroup.Execute(ctx); err != nil {
				return err
			}

			logger.Info("shutdown complete")

			return nil
		},
	}
}

func configureServices(a *app) (*service.Group, error) {
	svcGroup := &service.Group{
		ShutdownTimeout: serviceShutdownTimeout,
		Logger:          a.logger,
	}

	if len(a.cfg.Rebuild.Types) != 0 {
		svc, err := rebuilder.New(rebuilder.Config{
			Rebuilder: a.rebuilder,
			Sandboxes: a.sandboxes,
			Types:     a.cfg.Rebuild.Types,
			Observer:  a.collector,
			Interval:  a.cfg.Rebuild.Interval,
			Logger:    a.logger.WithField("service", "rebuilder"),
		})
		if err != nil {
			return nil, err
		}
		svcGroup.Services = append(svcGroup.Services, svc)
	}

	if a.cfg.Metrics.ListenAddr != "" {
		svc, err := metrics.New(metrics.Config{
			Gatherer:   a.metrics,
			ListenAddr: a.cfg.Metrics.ListenAddr,
			Logger:     a.logger.WithField("service", "metrics"),
		})
		if err != nil {
			return nil, err
		}
		svcGroup.Services = append(svcGroup.Services, svc)
	}

	if len(svcGroup.Services) == 0 {
		return nil, fmt.Errorf("no services enabled: set rebuild.types or metrics.listen_addr")
	}

	return svcGroup, nil
}
