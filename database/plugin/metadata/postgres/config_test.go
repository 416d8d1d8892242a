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
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m, err := New(Config{
		Logger:         logger,
		Host:           "db.local",
		Port:           6543,
		User:           "indexer",
		Password:       "secret",
		Database:       "assets",
		SSLMode:        "require",
		TimeZone:       "Europe/Berlin",
		MaxConnections: 8,
	})
	require.NoError(t, err)
	assert.Same(t, logger, m.logger)
	assert.Equal(t, 8, m.config.MaxConnections)
	assert.Equal(
		t,
		"host=db.local user=indexer password=secret dbname=assets port=6543 sslmode=require TimeZone=Europe/Berlin",
		m.config.connString(),
	)
}

func TestConfigDefaults(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	assert.Equal(t, "localhost", m.config.Host)
	assert.Equal(t, uint64(5432), m.config.Port)
	assert.Equal(t, "postgres", m.config.User)
	assert.Equal(t, "gindexer", m.config.Database)
	assert.Equal(t, "disable", m.config.SSLMode)
	assert.Equal(t, "UTC", m.config.TimeZone)
	assert.Equal(t, defaultMaxConnections, m.config.MaxConnections)
	assert.NotNil(t, m.logger)
	require.NoError(t, m.Close())
}

func TestDSNOverridesFields(t *testing.T) {
	m, err := New(Config{
		Host: "ignored",
		DSN:  "  postgres://u:p@h:1/db  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@h:1/db", m.config.connString())
}

func TestInvalidPort(t *testing.T) {
	_, err := New(Config{Port: 70000})
	require.Error(t, err)
}

func TestTransactionBeforeStart(t *testing.T) {
	m, err := New(Config{})
	require.NoError(t, err)
	require.ErrorIs(t, m.Transaction().Error, errNotStarted)
}

func TestConfigFromCmdlineOptions(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	cmdlineMutex.Lock()
	cmdlineConfig.Host = "pg.internal"
	cmdlineMaxConnections = 1 << 20
	cmdlineMutex.Unlock()
	cfg := configFromCmdlineOptions()
	assert.Equal(t, "pg.internal", cfg.Host)
	assert.Equal(t, uint64(5432), cfg.Port)
	assert.Equal(t, 1<<16, cfg.MaxConnections)
}
