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

package badger

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin/blob"
	"github.com/blinklabs-io/gindexer/database/types"
	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsBackend = "badger"

	DefaultBlockCacheSize = 256 << 20
	DefaultIndexCacheSize = 64 << 20
	DefaultGCInterval     = 5 * time.Minute
	// Archived transactions are small, keep them in the LSM tree
	DefaultValueThreshold = 4096

	valueLogFileSize = 256 << 20
	memTableSize     = 64 << 20
	gcDiscardRatio   = 0.5
)

// Config controls where the archive lives and how badger is tuned. An empty
// DataDir keeps everything in memory. A negative GCInterval disables value
// log GC and zero selects DefaultGCInterval.
type Config struct {
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	DataDir        string
	BlockCacheSize int64
	IndexCacheSize int64
	ValueThreshold int64
	GCInterval     time.Duration
}

func (c Config) badgerOptions() (badger.Options, error) {
	if c.DataDir == "" {
		return badger.DefaultOptions("").WithInMemory(true), nil
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return badger.Options{}, fmt.Errorf("create data dir: %w", err)
	}
	opts := badger.DefaultOptions(filepath.Join(c.DataDir, "blob")).
		WithValueLogFileSize(valueLogFileSize).
		WithMemTableSize(memTableSize).
		WithCompression(options.Snappy)
	if c.BlockCacheSize > 0 {
		opts = opts.WithBlockCacheSize(c.BlockCacheSize)
	}
	if c.IndexCacheSize > 0 {
		opts = opts.WithIndexCacheSize(c.IndexCacheSize)
	}
	return opts, nil
}

// BlobStoreBadger keeps the transaction archive in badger
type BlobStoreBadger struct {
	metrics    *blob.Metrics
	db         *badger.DB
	logger     *slog.Logger
	gcStop     chan struct{}
	gcWg       sync.WaitGroup
	closeMutex sync.Mutex
	closed     bool
}

// New opens the badger database described by cfg
func New(cfg Config) (*BlobStoreBadger, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.ValueThreshold <= 0 {
		cfg.ValueThreshold = DefaultValueThreshold
	}
	opts, err := cfg.badgerOptions()
	if err != nil {
		return nil, err
	}
	opts = opts.
		WithLogger(slogAdapter{logger: cfg.Logger}).
		WithLoggingLevel(badger.WARNING).
		WithValueThreshold(cfg.ValueThreshold)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	d := &BlobStoreBadger{
		db:      db,
		logger:  cfg.Logger,
		metrics: blob.NewMetrics(cfg.PromRegistry, metricsBackend),
	}
	// Nothing to reclaim in memory
	if cfg.DataDir != "" && cfg.GCInterval >= 0 {
		interval := cfg.GCInterval
		if interval == 0 {
			interval = DefaultGCInterval
		}
		d.gcStop = make(chan struct{})
		d.gcWg.Add(1)
		go d.gcLoop(interval)
	}
	return d, nil
}

func (d *BlobStoreBadger) gcLoop(interval time.Duration) {
	defer d.gcWg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			d.runValueLogGC()
		case <-d.gcStop:
			return
		}
	}
}

// runValueLogGC rewrites value log files until badger reports nothing left
// to reclaim
func (d *BlobStoreBadger) runValueLogGC() {
	for {
		err := d.db.RunValueLogGC(gcDiscardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			d.logger.Warn(
				"blob value log GC failed",
				"component", "database",
				"error", err,
			)
		}
		return
	}
}

// Start implements the plugin.Plugin interface
func (d *BlobStoreBadger) Start() error {
	// Opened by New
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *BlobStoreBadger) Stop() error {
	return d.Close()
}

// Close stops background GC and closes the database
func (d *BlobStoreBadger) Close() error {
	d.closeMutex.Lock()
	defer d.closeMutex.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	if d.gcStop != nil {
		close(d.gcStop)
		d.gcWg.Wait()
	}
	return d.db.Close()
}

// DB returns the database handle
func (d *BlobStoreBadger) DB() *badger.DB {
	return d.db
}

// Get returns the value stored under key
func (d *BlobStoreBadger) Get(ctx context.Context, key []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var ret []byte
	err := d.DB().View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return types.ErrBlobKeyNotFound
			}
			return err
		}
		ret, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	d.metrics.Observe(metricsBackend, "get", len(ret))
	return ret, nil
}

// Set stores val under key
func (d *BlobStoreBadger) Set(ctx context.Context, key, val []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.DB().Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return err
	}
	d.metrics.Observe(metricsBackend, "set", len(val))
	return nil
}

// Delete removes key
func (d *BlobStoreBadger) Delete(ctx context.Context, key []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.DB().Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return types.ErrBlobKeyNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	d.metrics.Observe(metricsBackend, "delete", 0)
	return nil
}

// Keys returns every key with the given prefix in ascending order
func (d *BlobStoreBadger) Keys(ctx context.Context, prefix []byte) ([][]byte, error) {
	var ret [][]byte
	err := d.DB().View(func(txn *badger.Txn) error {
		iterOpts := badger.DefaultIteratorOptions
		iterOpts.PrefetchValues = false
		iterOpts.Prefix = prefix
		it := txn.NewIterator(iterOpts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ret = append(ret, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	d.metrics.Observe(metricsBackend, "keys", 0)
	return ret, nil
}
