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
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/blinklabs-io/gindexer/database/plugin/metadata"
	"github.com/blinklabs-io/gindexer/database/plugin/metadata/internal/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := New(Config{
		Logger:         logger,
		Host:           "db.local",
		Port:           3307,
		User:           "indexer",
		Password:       "secret",
		Database:       "assets",
		TLS:            "skip-verify",
		MaxConnections: 4,
	})
	require.NoError(t, err)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, 4, m.maxConnections)
	assert.Equal(t, "indexer", m.driver.User)
	assert.Equal(t, "secret", m.driver.Passwd)
	assert.Equal(t, "db.local:3307", m.driver.Addr)
	assert.Equal(t, "assets", m.driver.DBName)
	assert.Equal(t, "skip-verify", m.driver.TLSConfig)
	assert.True(t, m.driver.ParseTime)
}

func TestConfigDefaults(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "root", m.driver.User)
	assert.Equal(t, "localhost:3306", m.driver.Addr)
	assert.Equal(t, "gindexer", m.driver.DBName)
	assert.Equal(t, defaultMaxConnections, m.maxConnections)
	require.NoError(t, m.Close())
}

func TestDSN(t *testing.T) {
	m, err := New(Config{
		Host: "ignored",
		DSN:  "u:p@tcp(h:1234)/db?charset=utf8mb4",
	})
	require.NoError(t, err)
	assert.Equal(t, "h:1234", m.driver.Addr)
	assert.Equal(t, "db", m.driver.DBName)
	assert.True(t, m.driver.ParseTime)
}

func TestInvalidConfig(t *testing.T) {
	testCases := []struct {
		name string
		cfg  Config
	}{
		{name: "bad dsn", cfg: Config{DSN: "not a dsn"}},
		{name: "bad time zone", cfg: Config{TimeZone: "Nowhere/Invalid"}},
		{name: "bad port", cfg: Config{Port: 70000}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg)
			require.Error(t, err)
		})
	}
}

func TestTransactionBeforeStart(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	require.ErrorIs(t, m.Transaction().Error, errNotStarted)
}

func TestConfigFromCmdlineOptions(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	cmdlineMutex.Lock()
	cmdlineConfig.TLS = "preferred"
	cmdlineMaxConnections = 0
	cmdlineMutex.Unlock()
	cfg := configFromCmdlineOptions()
	assert.Equal(t, "preferred", cfg.TLS)
	assert.Equal(t, uint64(3306), cfg.Port)
	// Zero falls back to the default in New
	m, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, defaultMaxConnections, m.maxConnections)
}

func TestMysqlStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) metadata.MetadataStore {
		dsn := os.Getenv("MYSQL_DSN")
		if dsn == "" {
			t.Skip("Skipping mysql integration test: set MYSQL_DSN to run")
		}
		store, err := New(Config{DSN: dsn})
		require.NoError(t, err)
		require.NoError(t, store.Start())
		t.Cleanup(func() {
			_ = store.Close()
		})
		return store
	})
}
