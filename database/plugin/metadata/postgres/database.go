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

package postgres

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gindexer/database/plugin/metadata/internal/assetdb"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var errNotStarted = errors.New("postgres metadata store not started")

const (
	defaultPort           = 5432
	defaultMaxConnections = 100
)

// Config describes how to reach the Postgres server. A non-empty DSN
// replaces the individual connection fields.
type Config struct {
	Logger         *slog.Logger
	Host           string
	User           string
	Password       string
	Database       string
	SSLMode        string
	TimeZone       string
	DSN            string
	Port           uint64
	MaxConnections int
}

func (c *Config) applyDefaults() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.Port > 65535 {
		return fmt.Errorf("invalid postgres port: %d", c.Port)
	}
	if c.User == "" {
		c.User = "postgres"
	}
	if c.Database == "" {
		c.Database = "gindexer"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = defaultMaxConnections
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return nil
}

// connString returns the keyword/value form used by pgx
func (c Config) connString() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	parts := []string{
		"host=" + c.Host,
		"user=" + c.User,
		"password=" + c.Password,
		"dbname=" + c.Database,
		"port=" + strconv.FormatUint(c.Port, 10),
		"sslmode=" + c.SSLMode,
	}
	if c.TimeZone != "" {
		parts = append(parts, "TimeZone="+c.TimeZone)
	}
	return strings.Join(parts, " ")
}

// MetadataStorePostgres stores materialized assets in Postgres.
type MetadataStorePostgres struct {
	db     *gorm.DB
	logger *slog.Logger
	config Config
}

// New validates cfg and returns an unconnected store. The connection is
// opened by Start.
func New(cfg Config) (*MetadataStorePostgres, error) {
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &MetadataStorePostgres{
		config: cfg,
		logger: cfg.Logger,
	}, nil
}

// AutoMigrate wraps the gorm AutoMigrate
func (d *MetadataStorePostgres) AutoMigrate(dst ...any) error {
	return d.DB().AutoMigrate(dst...)
}

// Start implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Start() error {
	if d.db != nil {
		return nil
	}
	metadataDb, err := gorm.Open(
		postgres.Open(d.config.connString()),
		assetdb.GormConfig(true),
	)
	if err != nil {
		return err
	}
	d.logger.Info(
		"connected to postgres metadata store",
		"component", "database",
		"host", d.config.Host,
		"port", d.config.Port,
		"database", d.config.Database,
	)
	d.db = metadataDb
	if err := assetdb.LimitPool(d.db, d.config.MaxConnections); err != nil {
		return err
	}
	return assetdb.Prepare(d.db, d.logger)
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStorePostgres) Stop() error {
	return d.Close()
}

// Close gets the database handle from our MetadataStore and closes it
func (d *MetadataStorePostgres) Close() error {
	// Guard against nil DB handle (e.g., if Start() failed or was never called)
	if d.db == nil {
		return nil
	}
	db, err := d.DB().DB()
	if err != nil {
		return err
	}
	d.db = nil
	return db.Close()
}

// DB returns the database handle
func (d *MetadataStorePostgres) DB() *gorm.DB {
	return d.db
}

// Transaction creates a gorm transaction
func (d *MetadataStorePostgres) Transaction() *gorm.DB {
	if d.db == nil {
		return &gorm.DB{Config: &gorm.Config{}, Error: errNotStarted}
	}
	txn := d.DB().Begin()
	if txn.Error != nil {
		d.logger.Error(
			"failed to begin transaction",
			"component", "database",
			"error", txn.Error,
		)
	}
	return txn
}
