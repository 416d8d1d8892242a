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

package mysql

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin/metadata/internal/assetdb"
	"github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQL server error for an unknown database
const errUnknownDatabase = 1049

var errNotStarted = errors.New("mysql metadata store not started")

const (
	defaultPort           = 3306
	defaultMaxConnections = 100
)

// Config describes how to reach the MySQL server. A non-empty DSN in the
// go-sql-driver format replaces the individual connection fields.
type Config struct {
	Logger         *slog.Logger
	Host           string
	User           string
	Password       string
	Database       string
	TLS            string
	TimeZone       string
	DSN            string
	Port           uint64
	MaxConnections int
}

// driverConfig resolves cfg into the driver form. ParseTime is always
// enabled so timestamps scan into time.Time.
func (c Config) driverConfig() (*mysql.Config, error) {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		dc, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		dc.ParseTime = true
		return dc, nil
	}
	if c.Port > 65535 {
		return nil, fmt.Errorf("invalid mysql port: %d", c.Port)
	}
	dc := mysql.NewConfig()
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, strconv.FormatUint(c.Port, 10))
	dc.User = c.User
	dc.Passwd = c.Password
	dc.DBName = c.Database
	dc.TLSConfig = c.TLS
	dc.ParseTime = true
	if c.TimeZone != "" {
		loc, err := time.LoadLocation(c.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load mysql time zone: %w", err)
		}
		dc.Loc = loc
	}
	return dc, nil
}

// MetadataStoreMysql stores materialized assets in MySQL.
type MetadataStoreMysql struct {
	db             *gorm.DB
	logger         *slog.Logger
	driver         *mysql.Config
	maxConnections int
}

// New validates cfg and returns an unconnected store. The connection is
// opened by Start.
func New(cfg Config) (*MetadataStoreMysql, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Database == "" {
		cfg.Database = "gindexer"
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = "UTC"
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultMaxConnections
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	driver, err := cfg.driverConfig()
	if err != nil {
		return nil, err
	}
	return &MetadataStoreMysql{
		logger:         cfg.Logger,
		driver:         driver,
		maxConnections: cfg.MaxConnections,
	}, nil
}

func openGorm(dsn string) (*gorm.DB, error) {
	return gorm.Open(
		gormmysql.Open(dsn),
		assetdb.GormConfig(true),
	)
}

// AutoMigrate wraps the gorm AutoMigrate
func (d *MetadataStoreMysql) AutoMigrate(dst ...any) error {
	return d.DB().AutoMigrate(dst...)
}

// Start implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Start() error {
	if d.db != nil {
		return nil
	}
	cfg := d.driver
	metadataDb, err := openGorm(cfg.FormatDSN())
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if !errors.As(err, &mysqlErr) || mysqlErr.Number != errUnknownDatabase {
			return err
		}
		if err := d.ensureDatabaseExists(cfg); err != nil {
			return err
		}
		metadataDb, err = openGorm(cfg.FormatDSN())
		if err != nil {
			return err
		}
	}
	d.logger.Info(
		"connected to mysql metadata store",
		"component", "database",
		"address", cfg.Addr,
		"database", cfg.DBName,
	)
	d.db = metadataDb
	if err := assetdb.LimitPool(d.db, d.maxConnections); err != nil {
		return err
	}
	return assetdb.Prepare(d.db, d.logger)
}

// ensureDatabaseExists connects without a schema and creates the configured
// database
func (d *MetadataStoreMysql) ensureDatabaseExists(cfg *mysql.Config) error {
	if cfg.DBName == "" {
		return errors.New("mysql dsn has no database name")
	}
	adminCfg := cfg.Clone()
	adminCfg.DBName = ""
	adminDb, err := openGorm(adminCfg.FormatDSN())
	if err != nil {
		return err
	}
	sqlAdminDb, err := adminDb.DB()
	if err != nil {
		return err
	}
	defer sqlAdminDb.Close()
	d.logger.Info(
		"creating mysql database",
		"component", "database",
		"database", cfg.DBName,
	)
	name := strings.ReplaceAll(cfg.DBName, "`", "``")
	if result := adminDb.Exec("CREATE DATABASE IF NOT EXISTS `" + name + "`"); result.Error != nil {
		return result.Error
	}
	return nil
}

// Stop implements the plugin.Plugin interface
func (d *MetadataStoreMysql) Stop() error {
	return d.Close()
}

// Close gets the database handle from our MetadataStore and closes it
func (d *MetadataStoreMysql) Close() error {
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
func (d *MetadataStoreMysql) DB() *gorm.DB {
	return d.db
}

// Transaction creates a gorm transaction
func (d *MetadataStoreMysql) Transaction() *gorm.DB {
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
