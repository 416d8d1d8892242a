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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/blinklabs-io/gindexer/cpievent"
	"github.com/blinklabs-io/gindexer/indexer"
	"github.com/blinklabs-io/gindexer/internal/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProgram = testutil.TestKey(0x50)
	testAsset   = testutil.TestKey(0x51)
	testOwner   = testutil.TestKey(0x52)
	testGroup   = testutil.TestKey(0x53)
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "gindexer.yaml")
	cfg := "programId: " + testProgram.String() + "\n" +
		"databasePath: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestListPlugins(t *testing.T) {
	shouldExit, output := listPlugins("badger", "sqlite")
	assert.False(t, shouldExit)
	assert.Empty(t, output)

	shouldExit, output = listPlugins("list", "list")
	assert.True(t, shouldExit)
	assert.Contains(t, output, "Available blob plugins:")
	assert.Contains(t, output, "Available metadata plugins:")
	assert.Contains(t, output, "badger")
	assert.Contains(t, output, "sqlite")
}

func TestListPluginsFlag(t *testing.T) {
	out, err := runCommand(t, "--metadata", "list", "version")
	require.ErrorIs(t, err, errPluginsListed)
	assert.Contains(t, out, "Available metadata plugins:")
	assert.NotContains(t, out, "Available blob plugins:")
	assert.Contains(t, out, "postgres")
}

func TestParseSubkind(t *testing.T) {
	disc, err := parseSubkind("collection")
	require.NoError(t, err)
	assert.Equal(t, indexer.CollectionSubkind, disc)
	disc, err = parseSubkind(indexer.MetadataSubkind.String())
	require.NoError(t, err)
	assert.Equal(t, indexer.MetadataSubkind, disc)
	_, err = parseSubkind("0102")
	assert.Error(t, err)
	_, err = parseSubkind("zz")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, programName)
}

func TestApplyAndQuery(t *testing.T) {
	configPath := writeTestConfig(t)
	data := append(indexer.CollectionSubkind.Bytes(), 1, 2, 3)
	tx := testutil.NewTxBuilder(testProgram).
		WithSignature(testutil.Signature(1)).
		WithSlot(7).
		Entry().
		Event(cpievent.Create{
			AssetFields: testutil.AssetEvent(testAsset, testOwner, testGroup, data),
		}).
		Build()
	txJSON, err := json.Marshal(tx)
	require.NoError(t, err)
	txPath := filepath.Join(t.TempDir(), "tx.json")
	require.NoError(t, os.WriteFile(txPath, txJSON, 0o600))

	out, err := runCommand(t, "--config", configPath, "apply", txPath)
	require.NoError(t, err)
	var results []applyResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, testutil.Signature(1), results[0].Signature)
	assert.Empty(t, results[0].Error)

	out, err = runCommand(t, "--config", configPath, "asset", "get", testAsset.String())
	require.NoError(t, err)
	var asset assetView
	require.NoError(t, json.Unmarshal([]byte(out), &asset))
	assert.Equal(t, testAsset.String(), asset.AssetID)
	assert.Equal(t, testOwner.String(), asset.Authority)
	assert.Equal(t, data, asset.Data)
	assert.Equal(t, indexer.CollectionSubkind.String(), asset.Discriminator)

	out, err = runCommand(t, "--config", configPath, "asset", "collections")
	require.NoError(t, err)
	var assets []assetView
	require.NoError(t, json.Unmarshal([]byte(out), &assets))
	require.Len(t, assets, 1)

	out, err = runCommand(t, "--config", configPath, "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 assets")

	_, err = runCommand(t, "--config", configPath, "asset", "get", testAsset.String())
	require.ErrorIs(t, err, indexer.ErrNotFound)

	out, err = runCommand(t, "--config", configPath, "reindex")
	require.NoError(t, err)
	assert.Contains(t, out, "replayed 1 transactions")

	_, err = runCommand(t, "--config", configPath, "asset", "get", testAsset.String())
	require.NoError(t, err)
}

func TestApplyInvalidFile(t *testing.T) {
	configPath := writeTestConfig(t)
	badPath := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{"), 0o600))
	_, err := runCommand(t, "--config", configPath, "apply", badPath)
	require.Error(t, err)
}
