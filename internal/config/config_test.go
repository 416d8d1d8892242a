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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "gindexer.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

// isolate keeps the user's home config out of the test
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestLoadWithoutConfigFileUsesDefaults(t *testing.T) {
	isolate(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	tmpFile := writeConfig(t, `
programId: "11111111111111111111111111111111"
databasePath: "/var/lib/gindexer"
rpcUrl: "https://rpc.example.com"
commitment: "finalized"
payer: "payer111"
pollInterval: "2s"
pollLimit: 50
archive: false
bindAddr: "127.0.0.1"
metricsPort: 9000
tracing: true
shutdownTimeout: "10s"
`)
	expected := DefaultConfig()
	expected.ProgramID = "11111111111111111111111111111111"
	expected.DatabasePath = "/var/lib/gindexer"
	expected.RpcUrl = "https://rpc.example.com"
	expected.Commitment = "finalized"
	expected.Payer = "payer111"
	expected.PollInterval = "2s"
	expected.PollLimit = 50
	expected.Archive = false
	expected.BindAddr = "127.0.0.1"
	expected.MetricsPort = 9000
	expected.Tracing = true
	expected.ShutdownTimeout = "10s"
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, expected, cfg)
	interval, err := cfg.GetPollInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)
	timeout, err := cfg.GetShutdownTimeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, timeout)
}

func TestLoadConfigSection(t *testing.T) {
	isolate(t)
	tmpFile := writeConfig(t, `
config:
  rpcUrl: "http://node:8899"
  pollLimit: 10
database:
  metadata:
    plugin: postgres
    postgres:
      host: db.example.com
      port: 6543
  blob:
    plugin: badger
`)
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "http://node:8899", cfg.RpcUrl)
	assert.Equal(t, 10, cfg.PollLimit)
	assert.Equal(t, "postgres", cfg.MetadataPlugin)
	assert.Equal(t, "badger", cfg.BlobPlugin)
	// Unchanged defaults
	assert.Equal(t, DefaultCommitment, cfg.Commitment)
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	tmpFile := writeConfig(t, `
rpcUrl: "http://file:8899"
pollLimit: 20
`)
	t.Setenv("GINDEXER_RPC_URL", "http://env:8899")
	t.Setenv("GINDEXER_PROGRAM_ID", "prog")
	t.Setenv("GINDEXER_DATABASE_METADATA_PLUGIN", "mysql")
	t.Setenv("GINDEXER_TRACING_STDOUT", "true")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, "http://env:8899", cfg.RpcUrl)
	assert.Equal(t, "prog", cfg.ProgramID)
	assert.Equal(t, "mysql", cfg.MetadataPlugin)
	assert.True(t, cfg.TracingStdout)
	assert.Equal(t, 20, cfg.PollLimit)
}

func TestLoadInvalid(t *testing.T) {
	isolate(t)
	testDefs := []struct {
		name    string
		content string
	}{
		{name: "yaml", content: "pollLimit: [1"},
		{name: "poll interval", content: `pollInterval: "soon"`},
		{name: "negative shutdown", content: `shutdownTimeout: "-1s"`},
		{name: "poll limit", content: "pollLimit: 5000"},
		{name: "metrics port", content: "metricsPort: 70000"},
		{name: "plugin name", content: "database:\n  blob:\n    plugin: [a]\n"},
		{name: "plugin section", content: "database:\n  blob:\n    badger: 1\n"},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, testDef.content))
			require.Error(t, err)
		})
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadHomeConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".gindexer"), 0o700))
	require.NoError(t, os.WriteFile(
		filepath.Join(home, ".gindexer", "gindexer.yaml"),
		[]byte(`commitment: "processed"`),
		0o600,
	))
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "processed", cfg.Commitment)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := DefaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}

func TestPluginSection(t *testing.T) {
	name, section, err := pluginSection("metadata", map[string]any{
		"plugin": "sqlite",
		"sqlite": map[string]any{"data-dir": "/tmp/x"},
		"mysql":  map[any]any{"host": "h", 1: "dropped"},
	})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", name)
	assert.Equal(t, "/tmp/x", section["sqlite"]["data-dir"])
	assert.Equal(t, map[string]any{"host": "h"}, section["mysql"])
}
