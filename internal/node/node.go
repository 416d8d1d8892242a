// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/gindexer"
	"github.com/blinklabs-io/gindexer/internal/config"
	"github.com/blinklabs-io/gindexer/solana"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options translates the loaded configuration into service options
func Options(
	cfg *config.Config,
	logger *slog.Logger,
) ([]gindexer.ConfigOptionFunc, error) {
	if cfg.ProgramID == "" {
		return nil, errors.New("no program ID configured (programId)")
	}
	programID, err := solana.ParsePublicKey(cfg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}
	pollInterval, err := cfg.GetPollInterval()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := cfg.GetShutdownTimeout()
	if err != nil {
		return nil, err
	}
	opts := []gindexer.ConfigOptionFunc{
		gindexer.WithLogger(logger),
		gindexer.WithProgramID(programID),
		gindexer.WithRPCURL(cfg.RpcUrl),
		gindexer.WithCommitment(cfg.Commitment),
		gindexer.WithDatabasePath(cfg.DatabasePath),
		gindexer.WithBlobPlugin(cfg.BlobPlugin),
		gindexer.WithMetadataPlugin(cfg.MetadataPlugin),
		gindexer.WithArchive(cfg.Archive),
		gindexer.WithPollInterval(pollInterval),
		gindexer.WithPollLimit(cfg.PollLimit),
		gindexer.WithShutdownTimeout(shutdownTimeout),
		gindexer.WithTracing(cfg.Tracing),
		gindexer.WithTracingStdout(cfg.TracingStdout),
	}
	if cfg.Payer != "" {
		payer, err := solana.ParsePublicKey(cfg.Payer)
		if err != nil {
			return nil, fmt.Errorf("invalid payer: %w", err)
		}
		opts = append(opts, gindexer.WithPayer(payer))
	}
	return opts, nil
}

// Open builds and opens a service for one-shot commands. The caller must
// Stop it.
func Open(
	cfg *config.Config,
	logger *slog.Logger,
) (*gindexer.Service, error) {
	opts, err := Options(cfg, logger)
	if err != nil {
		return nil, err
	}
	svc, err := gindexer.New(gindexer.NewConfig(opts...))
	if err != nil {
		return nil, err
	}
	if err := svc.Open(); err != nil {
		_ = svc.Stop()
		return nil, err
	}
	return svc, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := Options(cfg, logger)
	if err != nil {
		return err
	}
	shutdownTimeout, err := cfg.GetShutdownTimeout()
	if err != nil {
		return err
	}
	svc, err := gindexer.New(
		gindexer.NewConfig(
			append(
				opts,
				// Enable metrics with default prometheus registry
				gindexer.WithPrometheusRegistry(prometheus.DefaultRegisterer),
			)...,
		),
	)
	if err != nil {
		return err
	}
	// Metrics and debug listener
	metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+metricsAddr,
		"component", "node",
	)
	metricsServer := &http.Server{
		Addr:              metricsAddr,
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()
	shutdownMetrics := func() {
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(
				"metrics server shutdown error",
				"component", "node",
				"error", err,
			)
		}
	}
	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run the service until a signal arrives or the poller fails
	runErr := svc.Run(signalCtx)
	if signalCtx.Err() != nil {
		logger.Info(
			"signal received, initiating graceful shutdown",
			"component", "node",
		)
	} else if runErr != nil {
		logger.Error("indexer error", "component", "node", "error", runErr)
	}
	shutdownMetrics()
	if stopErr := svc.Stop(); stopErr != nil {
		logger.Error(
			"shutdown errors occurred",
			"component", "node",
			"error", stopErr,
		)
		return errors.Join(runErr, stopErr)
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}
