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

package sqlite

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin/metadata/internal/assetdb"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const (
	DefaultVacuumInterval = 24 * time.Hour

	metadataFileName = "metadata.sqlite"
	// WAL journal, no fsync per write, 50MB page cache
	fileConnOpts = "_pragma=journal_mode(WAL)&_pragma=sync(OFF)&_pragma=cache_size(-50000)"
	// Every pooled connection sees the same in-memory database
	memoryDSN = "file::memory:?cache=shared"
)

type Config struct {
	Logger *slog.Logger
	// DataDir holds the database file. The store is kept in memory when it
	// is empty.
	DataDir string
	// VacuumInterval is the period of VACUUM runs on a file-backed store.
	// Zero selects DefaultVacuumInterval and a negative value disables them.
	VacuumInterval time.Duration
}

// dsn returns the connection string for the configured location, creating
// the data dir when needed
func (c Config) dsn() (string, error) {
	if c.DataDir == "" {
		return memoryDSN, nil
	}
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(c.DataDir, metadataFileName)
	return "file:" + path + "?" + fileConnOpts, nil
}

// MetadataStoreSqlite keeps assets and sync state in a SQLite file, or in
// memory for tests and one-shot runs
type MetadataStoreSqlite struct {
	db         *gorm.DB
	logger     *slog.Logger
	config     Config
	vacuumStop chan struct{}
	vacuumWG   sync.WaitGroup
	closeOnce  sync.Once
	closeErr   error
}

// New opens a SQLite metadata store and migrates its tables
func New(cfg Config) (*MetadataStoreSqlite, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.VacuumInterval == 0 {
		cfg.VacuumInterval = DefaultVacuumInterval
	}
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}
	gdb, err := gorm.Open(sqlite.Open(dsn), assetdb.GormConfig(false))
	if err != nil {
		return nil, err
	}
	d := &MetadataStoreSqlite{
		db:     gdb,
		logger: cfg.Logger,
		config: cfg,
	}
	if err := assetdb.Prepare(gdb, cfg.Logger); err != nil {
		_ = d.Close()
		return nil, err
	}
	if cfg.DataDir != "" && cfg.VacuumInterval > 0 {
		d.vacuumStop = make(chan struct{})
		d.vacuumWG.Add(1)
		go d.vacuumLoop(cfg.VacuumInterval)
	}
	return d, nil
}

func (d *MetadataStoreSqlite) vacuumLoop(interval time.Duration) {
	defer d.vacuumWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
		case <-d.vacuumStop:
			return
		}
		d.logger.Debug(
			"vacuuming sqlite metadata store",
			"component", "database",
		)
		if err := d.runVacuum(); err != nil {
			d.logger.Error(
				"failed to vacuum sqlite metadata store",
				"component", "database",
				"error", err,
			)
		}
	}
}

func (d *MetadataStoreSqlite) runVacuum() error {
	return d.db.Exec("VACUUM").Error
}

func (d *MetadataStoreSqlite) AutoMigrate(dst ...any) error {
	return d.db.AutoMigrate(dst...)
}

// Start implements the plugin.Plugin interface. The database is opened by New.
func (d *MetadataStoreSqlite) Start() error {
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreSqlite) Stop() error {
	return d.Close()
}

// Close stops the vacuum loop and closes the connection pool. Calls after
// the first return its result.
func (d *MetadataStoreSqlite) Close() error {
	d.closeOnce.Do(func() {
		if d.vacuumStop != nil {
			close(d.vacuumStop)
			d.vacuumWG.Wait()
		}
		sqlDB, err := d.db.DB()
		if err != nil {
			d.closeErr = fmt.Errorf("get database handle: %w", err)
			return
		}
		d.closeErr = sqlDB.Close()
	})
	return d.closeErr
}

func (d *MetadataStoreSqlite) DB() *gorm.DB {
	return d.db
}

func (d *MetadataStoreSqlite) Transaction() *gorm.DB {
	return d.db.Begin()
}
