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
	"encoding/hex"
	"encoding/json"
	"io"
	"time"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/indexer"
)

type assetView struct {
	AssetID       string          `json:"assetId"`
	Authority     string          `json:"authority"`
	Pubkeys       []string        `json:"pubkeys"`
	Discriminator string          `json:"discriminator,omitempty"`
	Data          []byte          `json:"data"`
	Derived       json.RawMessage `json:"derived,omitempty"`
	LastUpdated   time.Time       `json:"lastUpdated"`
}

func newAssetView(asset *models.Asset) assetView {
	return assetView{
		AssetID:       asset.AssetID,
		Authority:     asset.Authority,
		Pubkeys:       asset.PubkeyList(),
		Discriminator: hex.EncodeToString(asset.Discriminator),
		Data:          asset.Data,
		LastUpdated:   asset.LastUpdated,
	}
}

func newAssetWithDataView(asset *indexer.AssetWithData) assetView {
	ret := newAssetView(asset.Asset)
	ret.Derived = asset.Derived
	return ret
}

func newAssetViews(assets []models.Asset) []assetView {
	ret := make([]assetView, 0, len(assets))
	for idx := range assets {
		ret = append(ret, newAssetView(&assets[idx]))
	}
	return ret
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
