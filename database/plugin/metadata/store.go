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

package metadata

import (
	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/database/plugin"
	"github.com/blinklabs-io/gindexer/database/types"
	"gorm.io/gorm"
)

// MetadataStore holds materialized assets and the indexer's sync state.
// Every method taking a *gorm.DB runs inside that transaction when it is
// non-nil.
type MetadataStore interface {
	Close() error
	DB() *gorm.DB
	Transaction() *gorm.DB
	AutoMigrate(dst ...any) error
	DropTables() error

	CreateAsset(asset *models.Asset, txn *gorm.DB) error
	DeleteAsset(programID, assetID string, txn *gorm.DB) error
	GetAsset(programID, assetID string, txn *gorm.DB) (*models.Asset, error)
	GetAssets(programID string, filter types.AssetFilter, txn *gorm.DB) ([]models.Asset, error)
	// ClearAssets removes every asset of the program and returns the count
	ClearAssets(programID string, txn *gorm.DB) (int64, error)

	GetSyncState(key string, txn *gorm.DB) (string, error)
	SetSyncState(key, value string, txn *gorm.DB) error
	DeleteSyncState(key string, txn *gorm.DB) error
}

// New returns the started metadata plugin selected by name
func New(pluginName string) (MetadataStore, error) {
	return plugin.StartAs[MetadataStore](plugin.PluginTypeMetadata, pluginName)
}
