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

package gindexer

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/gindexer/indexer"
	"github.com/blinklabs-io/gindexer/solana"
	"github.com/prometheus/client_golang/prometheus"
)

const DefaultShutdownTimeout = 30 * time.Second

type Config struct {
	promRegistry    prometheus.Registerer
	logger          *slog.Logger
	source          indexer.TransactionSource
	dataDir         string
	blobPlugin      string
	metadataPlugin  string
	rpcURL          string
	commitment      string
	programID       solana.PublicKey
	payer           solana.PublicKey
	pollInterval    time.Duration
	pollLimit       int
	shutdownTimeout time.Duration
	inMemory        bool
	archive         bool
	tracing         bool
	tracingStdout   bool
}

func (c *Config) validate() error {
	if c.programID.IsZero() {
		return errors.New("no program ID configured")
	}
	if c.rpcURL == "" && c.source == nil {
		return errors.New("no RPC URL configured")
	}
	if c.pollInterval < 0 {
		return errors.New("poll interval must not be negative")
	}
	if c.pollLimit < 0 {
		return errors.New("poll limit must not be negative")
	}
	return nil
}

// ConfigOptionFunc sets one field of a Config
type ConfigOptionFunc func(*Config)

// NewConfig applies opts over the defaults. Logging is discarded unless
// WithLogger is given.
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		logger:          slog.New(slog.NewJSONHandler(io.Discard, nil)),
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithProgramID specifies the program whose events are indexed
func WithProgramID(programID solana.PublicKey) ConfigOptionFunc {
	return func(c *Config) {
		c.programID = programID
	}
}

// WithRPCURL specifies the JSON-RPC endpoint of the chain node
func WithRPCURL(url string) ConfigOptionFunc {
	return func(c *Config) {
		c.rpcURL = url
	}
}

// WithCommitment specifies the commitment level used for RPC calls
func WithCommitment(commitment string) ConfigOptionFunc {
	return func(c *Config) {
		c.commitment = commitment
	}
}

// WithPayer specifies the fee payer named in simulated calls
func WithPayer(payer solana.PublicKey) ConfigOptionFunc {
	return func(c *Config) {
		c.payer = payer
	}
}

// WithTransactionSource replaces the RPC client as the poller's source of
// transactions
func WithTransactionSource(source indexer.TransactionSource) ConfigOptionFunc {
	return func(c *Config) {
		c.source = source
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithInMemory keeps the local storage plugins in memory
func WithInMemory(inMemory bool) ConfigOptionFunc {
	return func(c *Config) {
		c.inMemory = inMemory
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithArchive stores the raw JSON of every applied transaction in the blob
// store so the state can be rebuilt
func WithArchive(archive bool) ConfigOptionFunc {
	return func(c *Config) {
		c.archive = archive
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithPollInterval specifies how long the poller waits between rounds
func WithPollInterval(interval time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.pollInterval = interval
	}
}

// WithPollLimit specifies the page size of signature listings
func WithPollLimit(limit int) ConfigOptionFunc {
	return func(c *Config) {
		c.pollLimit = limit
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
