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
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin/blob/internal/blobtest"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromCmdlineOptions(t *testing.T) {
	t.Cleanup(initCmdlineOptions)
	cmdlineOptionsMutex.Lock()
	cmdlineOptions.dataDir = "/tmp/archive"
	cmdlineOptions.blockCacheSize = 1000000
	cmdlineOptions.gcMinutes = 2
	cmdlineOptionsMutex.Unlock()
	cfg := configFromCmdlineOptions()
	assert.Equal(t, "/tmp/archive", cfg.DataDir)
	assert.Equal(t, int64(1000000), cfg.BlockCacheSize)
	assert.Equal(t, int64(DefaultIndexCacheSize), cfg.IndexCacheSize)
	assert.Equal(t, 2*time.Minute, cfg.GCInterval)

	cmdlineOptionsMutex.Lock()
	cmdlineOptions.gc = false
	cmdlineOptionsMutex.Unlock()
	assert.Negative(t, configFromCmdlineOptions().GCInterval)
}

func TestGCLoop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := New(Config{
		Logger:     logger,
		DataDir:    t.TempDir(),
		GCInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotNil(t, store.gcStop)
	require.NoError(t, store.Set(context.Background(), []byte("k"), []byte("v")))
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, store.Close())

	disabled, err := New(Config{DataDir: t.TempDir(), GCInterval: -1})
	require.NoError(t, err)
	assert.Nil(t, disabled.gcStop)
	require.NoError(t, disabled.Close())
}

func TestInMemoryStore(t *testing.T) {
	store, err := New(Config{})
	require.NoError(t, err)
	blobtest.Run(t, store)
	require.NoError(t, store.Close())
	// Close is idempotent
	require.NoError(t, store.Close())
}

func TestDiskStorePersists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	store, err := New(Config{DataDir: dir})
	require.NoError(t, err)
	blobtest.Run(t, store)
	require.NoError(t, store.Set(ctx, []byte("tx/1"), []byte("raw")))
	require.NoError(t, store.Close())

	store, err = New(Config{DataDir: dir, GCInterval: -1})
	require.NoError(t, err)
	defer store.Close()
	val, err := store.Get(ctx, []byte("tx/1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("raw"), val)
}

func TestMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	ctx := context.Background()
	store, err := New(Config{PromRegistry: registry})
	require.NoError(t, err)
	defer store.Close()
	// A second store on the same registry shares the counters
	store2, err := New(Config{PromRegistry: registry})
	require.NoError(t, err)
	defer store2.Close()

	require.NoError(t, store.Set(ctx, []byte("k"), []byte("12345")))
	_, err = store2.Get(ctx, []byte("k"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)

	count, err := testutil.GatherAndCount(registry, "database_blob_ops_total")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestCanceledContext(t *testing.T) {
	store, err := New(Config{})
	require.NoError(t, err)
	defer store.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, store.Set(ctx, []byte("k"), []byte("v")), context.Canceled)
	_, err = store.Get(ctx, []byte("k"))
	require.ErrorIs(t, err, context.Canceled)
}
