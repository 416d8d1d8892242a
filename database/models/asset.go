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

package models

import (
	"time"
)

// MigrateModels lists every table, parents before children
var MigrateModels = []any{
	&Asset{},
	&AssetPubkey{},
	&SyncState{},
}

// Asset is the materialized state of one asset of a program. Rows are unique
// on (ProgramID, AssetID). Discriminator holds the first 8 bytes of Data and
// identifies the asset's sub-kind.
type Asset struct {
	LastUpdated   time.Time
	ProgramID     string        `gorm:"uniqueIndex:idx_program_asset_key,priority:1;size:44;not null"`
	AssetID       string        `gorm:"uniqueIndex:idx_program_asset_key,priority:2;size:44;not null"`
	Authority     string        `gorm:"index;size:44;not null"`
	Discriminator []byte        `gorm:"index;size:8"`
	Data          []byte
	Pubkeys       []AssetPubkey `gorm:"foreignKey:AssetRowID;constraint:OnDelete:CASCADE"`
	ID            uint          `gorm:"primarykey"`
}

func (Asset) TableName() string {
	return "program_asset"
}

// AssetPubkey is one entry of an asset's ordered account list
type AssetPubkey struct {
	Pubkey     string `gorm:"index;size:44;not null"`
	ID         uint   `gorm:"primarykey"`
	AssetRowID uint   `gorm:"index;not null"`
	Position   int    `gorm:"not null"`
}

func (AssetPubkey) TableName() string {
	return "program_asset_pubkey"
}

// NewAsset builds an Asset row with its ordered pubkeys
func NewAsset(
	programID, assetID, authority string,
	pubkeys []string,
	data []byte,
	lastUpdated time.Time,
) *Asset {
	ret := &Asset{
		ProgramID:   programID,
		AssetID:     assetID,
		Authority:   authority,
		Data:        data,
		LastUpdated: lastUpdated,
		Pubkeys:     make([]AssetPubkey, 0, len(pubkeys)),
	}
	if len(data) >= 8 {
		ret.Discriminator = append([]byte(nil), data[:8]...)
	}
	for idx, pk := range pubkeys {
		ret.Pubkeys = append(
			ret.Pubkeys,
			AssetPubkey{Position: idx, Pubkey: pk},
		)
	}
	return ret
}

// PubkeyList returns the asset's pubkeys in position order
func (a *Asset) PubkeyList() []string {
	ret := make([]string, len(a.Pubkeys))
	for idx, pk := range a.Pubkeys {
		ret[idx] = pk.Pubkey
	}
	return ret
}

// SyncState is a small key/value row. The indexer keeps its per-program
// cursor here.
type SyncState struct {
	Key   string `gorm:"column:sync_key;primaryKey;size:255"`
	Value string `gorm:"type:text;not null"`
}

func (SyncState) TableName() string {
	return "indexer_state"
}
