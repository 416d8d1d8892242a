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

package database

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/gindexer/database/plugin"
	"github.com/blinklabs-io/gindexer/database/plugin/blob"
	"github.com/blinklabs-io/gindexer/database/plugin/metadata"
	"github.com/prometheus/client_golang/prometheus"

	// Register the built-in storage plugins
	_ "github.com/blinklabs-io/gindexer/database/plugin/blob/aws"
	_ "github.com/blinklabs-io/gindexer/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/gindexer/database/plugin/blob/gcs"
	_ "github.com/blinklabs-io/gindexer/database/plugin/metadata/mysql"
	_ "github.com/blinklabs-io/gindexer/database/plugin/metadata/postgres"
	_ "github.com/blinklabs-io/gindexer/database/plugin/metadata/sqlite"
)

const (
	DefaultBlobPlugin     = "badger"
	DefaultMetadataPlugin = "sqlite"
)

// Config selects and configures the storage plugins
type Config struct {
	PromRegistry   prometheus.Registerer
	Logger         *slog.Logger
	BlobPlugin     string
	MetadataPlugin string
	// DataDir overrides the data-dir option of the selected plugins when set
	DataDir string
	// InMemory clears the data-dir option of the selected plugins, which
	// keeps the local plugins in memory
	InMemory bool
}

// Database combines the materialized asset store (metadata plugin) with the
// raw transaction archive (blob plugin)
type Database struct {
	config   *Config
	logger   *slog.Logger
	blob     blob.BlobStore
	metadata metadata.MetadataStore
}

// Blob returns the underling blob store instance
func (d *Database) Blob() blob.BlobStore {
	return d.blob
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Metadata returns the underlying metadata store instance
func (d *Database) Metadata() metadata.MetadataStore {
	return d.metadata
}

// Transaction starts a new metadata transaction and returns a handle to it
func (d *Database) Transaction() *Txn {
	return newTxn(d)
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.metadata != nil {
		err = errors.Join(err, d.metadata.Close())
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}

// New creates a new database instance from the configured plugins
func New(config *Config) (*Database, error) {
	if config == nil {
		config = &Config{}
	}
	if config.BlobPlugin == "" {
		config.BlobPlugin = DefaultBlobPlugin
	}
	if config.MetadataPlugin == "" {
		config.MetadataPlugin = DefaultMetadataPlugin
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if config.DataDir != "" || config.InMemory {
		dataDir := config.DataDir
		if config.InMemory {
			dataDir = ""
		}
		if err := plugin.SetPluginOption(
			plugin.PluginTypeMetadata,
			config.MetadataPlugin,
			"data-dir",
			dataDir,
		); err != nil {
			return nil, err
		}
		if err := plugin.SetPluginOption(
			plugin.PluginTypeBlob,
			config.BlobPlugin,
			"data-dir",
			dataDir,
		); err != nil {
			return nil, err
		}
	}
	plugin.SetLogger(logger)
	plugin.SetPromRegistry(config.PromRegistry)
	metadataDb, err := metadata.New(config.MetadataPlugin)
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}
	blobDb, err := blob.New(config.BlobPlugin)
	if err != nil {
		_ = metadataDb.Close()
		return nil, fmt.Errorf("open blob store: %w", err)
	}
	db := &Database{
		config:   config,
		logger:   logger,
		blob:     blobDb,
		metadata: metadataDb,
	}
	logger.Debug(
		"opened database",
		"component", "database",
		"metadata_plugin", config.MetadataPlugin,
		"blob_plugin", config.BlobPlugin,
	)
	return db, nil
}

// Teardown drops the metadata tables. The archive is left untouched so the
// state can be rebuilt by reindexing.
func (d *Database) Teardown() error {
	if err := d.metadata.DropTables(); err != nil {
		return fmt.Errorf("drop tables: %w", err)
	}
	d.logger.Info(
		"dropped metadata tables",
		"component", "database",
	)
	return nil
}
