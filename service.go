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
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/gindexer/database"
	"github.com/blinklabs-io/gindexer/event"
	"github.com/blinklabs-io/gindexer/indexer"
	"github.com/blinklabs-io/gindexer/rpc"
)

// ErrNoPayer is returned by Resolver when no fee payer is configured
var ErrNoPayer = errors.New("no fee payer configured")

// Service wires the storage, RPC client, indexer and poller of a single
// program together
type Service struct {
	eventBus      *event.EventBus
	db            *database.Database
	rpcClient     *rpc.Client
	indexer       *indexer.Indexer
	runCancel     context.CancelFunc
	runDone       chan struct{}
	shutdownFuncs []func(context.Context) error
	config        Config
	mu            sync.Mutex
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s := &Service{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
	}
	return s, nil
}

// Open loads the storage and builds the indexer. It is called by Run and
// may be used directly for one-shot operations. Calling it again is a no-op.
func (s *Service) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexer != nil {
		return nil
	}
	// Configure tracing
	if s.config.tracing {
		if err := s.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	db, err := database.New(&database.Config{
		PromRegistry:   s.config.promRegistry,
		Logger:         s.config.logger,
		BlobPlugin:     s.config.blobPlugin,
		MetadataPlugin: s.config.metadataPlugin,
		DataDir:        s.config.dataDir,
		InMemory:       s.config.inMemory,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db
	// Configure RPC client
	if s.config.rpcURL != "" {
		opts := []rpc.ClientOptionFunc{
			rpc.WithLogger(s.config.logger),
		}
		if s.config.commitment != "" {
			opts = append(opts, rpc.WithCommitment(s.config.commitment))
		}
		s.rpcClient = rpc.NewClient(s.config.rpcURL, opts...)
	}
	// Load indexer
	idx, err := indexer.NewIndexer(indexer.IndexerConfig{
		Logger:       s.config.logger,
		Database:     s.db,
		EventBus:     s.eventBus,
		PromRegistry: s.config.promRegistry,
		ProgramID:    s.config.programID,
		Archive:      s.config.archive,
	})
	if err != nil {
		return fmt.Errorf("failed to load indexer: %w", err)
	}
	s.indexer = idx
	s.config.logger.Info(
		"opened indexer",
		"component", "service",
		"program_id", s.config.programID.String(),
		"rpc_url", s.config.rpcURL,
	)
	return nil
}

// Run polls the program's transactions until ctx is done, Stop is called or
// a store error occurs
func (s *Service) Run(ctx context.Context) error {
	if err := s.Open(); err != nil {
		return err
	}
	var source indexer.TransactionSource = s.rpcClient
	if s.config.source != nil {
		source = s.config.source
	}
	poller, err := indexer.NewPoller(
		s.indexer,
		indexer.PollerConfig{
			Source:   source,
			Interval: s.config.pollInterval,
			Limit:    s.config.pollLimit,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create poller: %w", err)
	}
	s.mu.Lock()
	if s.runDone != nil {
		s.mu.Unlock()
		return errors.New("service is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	s.runCancel = cancel
	s.runDone = make(chan struct{})
	runDone := s.runDone
	s.mu.Unlock()
	defer close(runDone)
	defer cancel()
	s.config.logger.Info(
		"starting poller",
		"component", "service",
		"interval", s.config.pollInterval.String(),
	)
	return poller.Run(ctx)
}

// Indexer returns the indexer, or nil before Open
func (s *Service) Indexer() *indexer.Indexer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexer
}

func (s *Service) EventBus() *event.EventBus {
	return s.eventBus
}

// RPC returns the RPC client, or nil when no RPC URL is configured
func (s *Service) RPC() *rpc.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rpcClient
}

// Resolver returns a resolver that derives asset data by simulating calls
// against the configured node
func (s *Service) Resolver() (indexer.AssetDataResolver, error) {
	client := s.RPC()
	if client == nil {
		return nil, errors.New("no RPC URL configured")
	}
	if s.config.payer.IsZero() {
		return nil, ErrNoPayer
	}
	return rpc.NewSimulationResolver(client, s.config.payer), nil
}

func (s *Service) Stop() error {
	var err error
	s.shutdownOnce.Do(func() {
		err = s.shutdown()
	})
	return err
}

func (s *Service) shutdown() error {
	ctx, cancel := context.WithTimeout(
		context.Background(),
		s.config.shutdownTimeout,
	)
	defer cancel()

	var err error

	s.config.logger.Debug("starting graceful shutdown", "component", "service")

	// Phase 1: Stop accepting new work
	s.config.logger.Debug(
		"shutdown phase 1: stopping poller",
		"component", "service",
	)
	s.mu.Lock()
	runCancel, runDone := s.runCancel, s.runDone
	s.mu.Unlock()
	if runCancel != nil {
		runCancel()
		select {
		case <-runDone:
		case <-ctx.Done():
			err = errors.Join(err, fmt.Errorf("poller shutdown: %w", ctx.Err()))
		}
	}

	// Phase 2: Close database
	s.config.logger.Debug(
		"shutdown phase 2: closing database",
		"component", "service",
	)
	if s.db != nil {
		if closeErr := s.db.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("database close: %w", closeErr))
		}
	}

	// Phase 3: Cleanup resources
	s.config.logger.Debug(
		"shutdown phase 3: cleanup resources",
		"component", "service",
	)
	for _, fn := range s.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	s.shutdownFuncs = nil
	if s.rpcClient != nil {
		if closeErr := s.rpcClient.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("rpc client close: %w", closeErr))
		}
	}

	s.eventBus.Stop()

	s.config.logger.Debug("graceful shutdown complete", "component", "service")
	return err
}
