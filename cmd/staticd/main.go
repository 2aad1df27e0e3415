package main

import (
	"context"
	"fmt"
	"github.com/brickingsoft/staticd"
	"github.com/brickingsoft/staticd/config"
	"github.com/brickingsoft/staticd/pkg/log"
	"github.com/brickingsoft/staticd/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
	"syscall"
)

var version = "dev"

func main() {
	command := &cobra.Command{
		Use:           "staticd",
		Short:         "Serve the files of a directory over io_uring",
		Long:          "Serve the files of a directory over io_uring.\nSettings are read from STATICD_* environment variables.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}
	command.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "staticd", version)
		},
	})
	if err := command.ExecuteContext(context.Background()); err != nil {
		logrus.Fatal(err)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err = log.Setup(cfg.LogLevel, os.Stderr); err != nil {
		return err
	}
	logger := log.NewLogger("staticd")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var options []staticd.Option
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		options = append(options, staticd.WithMetrics(metrics.New(reg)))
		go serveMetrics(ctx, cfg.MetricsAddr, reg, logger)
	}

	srv, listenErr := staticd.Listen(*cfg, options...)
	if listenErr != nil {
		return listenErr
	}
	defer func() {
		if closeErr := srv.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("close failed")
		}
	}()
	if err = srv.Serve(ctx); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, logger *logrus.Entry) {
	logger.Infof("metrics on http://%s/metrics", addr)
	if err := metrics.Serve(ctx, addr, reg); err != nil {
		logger.WithError(err).Error("metrics endpoint stopped")
	}
}
