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
	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/database/plugin/metadata/internal/assetdb"
	"github.com/blinklabs-io/gindexer/database/types"
	"gorm.io/gorm"
)

func (d *MetadataStorePostgres) txnOrDB(txn *gorm.DB) *gorm.DB {
	if txn != nil {
		return txn
	}
	return d.DB()
}

// CreateAsset inserts a new asset
func (d *MetadataStorePostgres) CreateAsset(
	asset *models.Asset,
	txn *gorm.DB,
) error {
	return assetdb.CreateAsset(d.txnOrDB(txn), asset)
}

// DeleteAsset removes an existing asset
func (d *MetadataStorePostgres) DeleteAsset(
	programID, assetID string,
	txn *gorm.DB,
) error {
	return assetdb.DeleteAsset(d.txnOrDB(txn), programID, assetID)
}

// GetAsset returns an asset, or nil if it does not exist
func (d *MetadataStorePostgres) GetAsset(
	programID, assetID string,
	txn *gorm.DB,
) (*models.Asset, error) {
	return assetdb.GetAsset(d.txnOrDB(txn), programID, assetID)
}

// GetAssets returns the assets matching a filter
func (d *MetadataStorePostgres) GetAssets(
	programID string,
	filter types.AssetFilter,
	txn *gorm.DB,
) ([]models.Asset, error) {
	return assetdb.GetAssets(d.txnOrDB(txn), programID, filter)
}

// ClearAssets removes every asset of a program
func (d *MetadataStorePostgres) ClearAssets(
	programID string,
	txn *gorm.DB,
) (int64, error) {
	return assetdb.ClearAssets(d.txnOrDB(txn), programID)
}

// DropTables drops the metadata tables
func (d *MetadataStorePostgres) DropTables() error {
	return assetdb.DropTables(d.DB())
}

func (d *MetadataStorePostgres) GetSyncState(
	key string,
	txn *gorm.DB,
) (string, error) {
	return assetdb.GetSyncState(d.txnOrDB(txn), key)
}

func (d *MetadataStorePostgres) SetSyncState(
	key, value string,
	txn *gorm.DB,
) error {
	return assetdb.SetSyncState(d.txnOrDB(txn), key, value)
}

func (d *MetadataStorePostgres) DeleteSyncState(
	key string,
	txn *gorm.DB,
) error {
	return assetdb.DeleteSyncState(d.txnOrDB(txn), key)
}
