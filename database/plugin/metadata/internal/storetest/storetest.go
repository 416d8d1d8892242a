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

// Package storetest holds behavior tests shared by every metadata store
// backend.
package storetest

import (
	"testing"
	"time"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/database/plugin/metadata"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewStoreFunc returns a started store. The store must be closed by the
// callee via t.Cleanup.
type NewStoreFunc func(t *testing.T) metadata.MetadataStore

// Run executes the shared behavior tests against the store returned by
// newStore. Each test uses its own program identifier, so backends may share
// one database between tests.
func Run(t *testing.T, newStore NewStoreFunc) {
	tests := []struct {
		name string
		fn   func(*testing.T, metadata.MetadataStore, string)
	}{
		{"CreateGetAsset", testCreateGetAsset},
		{"CreateAssetExists", testCreateAssetExists},
		{"DeleteAsset", testDeleteAsset},
		{"GetAssetsFilters", testGetAssetsFilters},
		{"TransactionRollback", testTransactionRollback},
		{"ClearAssets", testClearAssets},
		{"SyncState", testSyncState},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			program := "prog-" + t.Name()
			// Long test names would overflow the column size
			if len(program) > 44 {
				program = program[len(program)-44:]
			}
			_, err := store.ClearAssets(program, nil)
			require.NoError(t, err)
			tc.fn(t, store, program)
		})
	}
}

// Asset builds an asset row with fixed data and last-updated time
func Asset(programID, assetID, authority string, pubkeys ...string) *models.Asset {
	return models.NewAsset(
		programID,
		assetID,
		authority,
		pubkeys,
		[]byte{1, 2, 3, 4, 5, 6, 7, 8, 9},
		time.Unix(1700000000, 0).UTC(),
	)
}

func testCreateGetAsset(t *testing.T, store metadata.MetadataStore, program string) {
	require.NoError(
		t,
		store.CreateAsset(Asset(program, "a1", "auth", "g1", "auth", "a1"), nil),
	)
	asset, err := store.GetAsset(program, "a1", nil)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "auth", asset.Authority)
	assert.Equal(t, []string{"g1", "auth", "a1"}, asset.PubkeyList())
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, asset.Discriminator)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9}, asset.Data)

	missing, err := store.GetAsset(program, "nope", nil)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testCreateAssetExists(t *testing.T, store metadata.MetadataStore, program string) {
	require.NoError(t, store.CreateAsset(Asset(program, "a1", "auth"), nil))
	err := store.CreateAsset(Asset(program, "a1", "other"), nil)
	require.ErrorIs(t, err, types.ErrAssetExists)
	asset, err := store.GetAsset(program, "a1", nil)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "auth", asset.Authority)
}

func testDeleteAsset(t *testing.T, store metadata.MetadataStore, program string) {
	require.NoError(t, store.CreateAsset(Asset(program, "a1", "auth", "x"), nil))
	require.NoError(t, store.DeleteAsset(program, "a1", nil))
	asset, err := store.GetAsset(program, "a1", nil)
	require.NoError(t, err)
	assert.Nil(t, asset)
	err = store.DeleteAsset(program, "a1", nil)
	require.ErrorIs(t, err, types.ErrAssetNotFound)
	assets, err := store.GetAssets(
		program,
		types.AssetFilter{PubkeyContains: "x"},
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func testGetAssetsFilters(t *testing.T, store metadata.MetadataStore, program string) {
	require.NoError(t, store.CreateAsset(Asset(program, "g1", "auth", "g1"), nil))
	require.NoError(t, store.CreateAsset(Asset(program, "m2", "auth", "g1", "m2"), nil))
	require.NoError(t, store.CreateAsset(Asset(program, "m1", "other", "g1", "m1"), nil))
	other := program + "x"
	if len(other) > 44 {
		other = other[1:]
	}
	require.NoError(t, store.CreateAsset(Asset(other, "m3", "auth", "g1"), nil))
	t.Cleanup(func() {
		_, _ = store.ClearAssets(other, nil)
	})

	assets, err := store.GetAssets(
		program,
		types.AssetFilter{PubkeyContains: "g1", ExcludeAssetID: "g1"},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, assets, 2)
	assert.Equal(t, "m1", assets[0].AssetID)
	assert.Equal(t, "m2", assets[1].AssetID)

	assets, err = store.GetAssets(program, types.AssetFilter{Authority: "auth"}, nil)
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assets, err = store.GetAssets(program, types.AssetFilter{AssetID: "m2"}, nil)
	require.NoError(t, err)
	require.Len(t, assets, 1)
	assert.Equal(t, []string{"g1", "m2"}, assets[0].PubkeyList())

	assets, err = store.GetAssets(
		program,
		types.AssetFilter{Discriminator: []byte{1, 2, 3, 4, 5, 6, 7, 8}},
		nil,
	)
	require.NoError(t, err)
	assert.Len(t, assets, 3)

	assets, err = store.GetAssets(
		program,
		types.AssetFilter{Discriminator: []byte{9, 9, 9, 9, 9, 9, 9, 9}},
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func testTransactionRollback(t *testing.T, store metadata.MetadataStore, program string) {
	txn := store.Transaction()
	require.NoError(t, txn.Error)
	require.NoError(t, store.CreateAsset(Asset(program, "a1", "auth"), txn))
	require.NoError(t, txn.Rollback().Error)
	asset, err := store.GetAsset(program, "a1", nil)
	require.NoError(t, err)
	assert.Nil(t, asset)
}

func testClearAssets(t *testing.T, store metadata.MetadataStore, program string) {
	require.NoError(t, store.CreateAsset(Asset(program, "a1", "auth", "k"), nil))
	require.NoError(t, store.CreateAsset(Asset(program, "a2", "auth", "k"), nil))
	count, err := store.ClearAssets(program, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assets, err := store.GetAssets(program, types.AssetFilter{}, nil)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func testSyncState(t *testing.T, store metadata.MetadataStore, program string) {
	key := "cursor-" + program
	val, err := store.GetSyncState(key, nil)
	require.NoError(t, err)
	assert.Empty(t, val)
	require.NoError(t, store.SetSyncState(key, "one", nil))
	require.NoError(t, store.SetSyncState(key, "two", nil))
	val, err = store.GetSyncState(key, nil)
	require.NoError(t, err)
	assert.Equal(t, "two", val)
	require.NoError(t, store.DeleteSyncState(key, nil))
	val, err = store.GetSyncState(key, nil)
	require.NoError(t, err)
	assert.Empty(t, val)
}
