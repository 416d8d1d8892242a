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
	"io"
	"log/slog"
	"testing"

	"github.com/blinklabs-io/gindexer/internal/config"
	"github.com/blinklabs-io/gindexer/internal/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ProgramID = testutil.TestKey(0x10).String()
	opts, err := Options(cfg, testLogger())
	require.NoError(t, err)
	assert.NotEmpty(t, opts)

	cfg.Payer = testutil.TestKey(0x11).String()
	withPayer, err := Options(cfg, testLogger())
	require.NoError(t, err)
	assert.Len(t, withPayer, len(opts)+1)
}

func TestOptionsErrors(t *testing.T) {
	testDefs := []struct {
		name   string
		modify func(*config.Config)
	}{
		{
			name:   "missing program",
			modify: func(c *config.Config) { c.ProgramID = "" },
		},
		{
			name:   "invalid program",
			modify: func(c *config.Config) { c.ProgramID = "not-base58-0OIl" },
		},
		{
			name:   "invalid payer",
			modify: func(c *config.Config) { c.Payer = "abc" },
		},
		{
			name:   "invalid poll interval",
			modify: func(c *config.Config) { c.PollInterval = "soon" },
		},
		{
			name:   "invalid shutdown timeout",
			modify: func(c *config.Config) { c.ShutdownTimeout = "-1s" },
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			cfg.ProgramID = testutil.TestKey(0x10).String()
			testDef.modify(cfg)
			_, err := Options(cfg, testLogger())
			assert.Error(t, err)
		})
	}
}

func TestOpen(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.ProgramID = testutil.TestKey(0x10).String()
	cfg.DatabasePath = t.TempDir()
	svc, err := Open(cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, svc.Stop())
	})
	require.NotNil(t, svc.Indexer())
	cursor, err := svc.Indexer().Cursor()
	require.NoError(t, err)
	assert.Empty(t, cursor)
}
