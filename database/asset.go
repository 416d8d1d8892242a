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
	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/database/types"
)

// CreateAsset inserts an asset. It fails with types.ErrAssetExists when the
// asset is already present.
func (d *Database) CreateAsset(asset *models.Asset, txn *Txn) error {
	return d.metadata.CreateAsset(asset, txn.Metadata())
}

// DeleteAsset removes an asset. It fails with types.ErrAssetNotFound when
// the asset is not present.
func (d *Database) DeleteAsset(programID, assetID string, txn *Txn) error {
	return d.metadata.DeleteAsset(programID, assetID, txn.Metadata())
}

// GetAsset returns an asset, or nil when it is not present
func (d *Database) GetAsset(
	programID, assetID string,
	txn *Txn,
) (*models.Asset, error) {
	return d.metadata.GetAsset(programID, assetID, txn.Metadata())
}

// GetAssets returns the assets of a program matching filter, ordered by
// asset identifier
func (d *Database) GetAssets(
	programID string,
	filter types.AssetFilter,
	txn *Txn,
) ([]models.Asset, error) {
	return d.metadata.GetAssets(programID, filter, txn.Metadata())
}

// ClearAssets removes every asset of a program and returns how many were
// removed
func (d *Database) ClearAssets(programID string, txn *Txn) (int64, error) {
	return d.metadata.ClearAssets(programID, txn.Metadata())
}

// GetSyncState returns a stored sync value, or "" when unset
func (d *Database) GetSyncState(key string, txn *Txn) (string, error) {
	return d.metadata.GetSyncState(key, txn.Metadata())
}

// SetSyncState stores a sync value
func (d *Database) SetSyncState(key, value string, txn *Txn) error {
	return d.metadata.SetSyncState(key, value, txn.Metadata())
}

// DeleteSyncState removes a sync value
func (d *Database) DeleteSyncState(key string, txn *Txn) error {
	return d.metadata.DeleteSyncState(key, txn.Metadata())
}
