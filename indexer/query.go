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

package indexer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/blinklabs-io/gindexer/solana"
)

// Sub-kind discriminators stored in the first 8 bytes of asset data
var (
	CollectionSubkind = solana.NewDiscriminator("srfc19", "collection")
	MetadataSubkind   = solana.NewDiscriminator("srfc19", "metadata")
)

// AssetDataResolver recovers the derived fields of an asset that are not
// stored verbatim, usually by a read-only call to the owning program
type AssetDataResolver interface {
	ResolveAssetData(
		ctx context.Context,
		programID solana.PublicKey,
		asset *models.Asset,
	) (json.RawMessage, error)
}

type AssetWithData struct {
	Asset   *models.Asset
	Derived json.RawMessage
}

// FetchByID returns the asset, or nil when it is not in the store
func (i *Indexer) FetchByID(assetID string) (*models.Asset, error) {
	ret, err := i.db.GetAsset(i.programID, assetID, nil)
	if err != nil {
		return nil, &StoreError{Op: "get", AssetID: assetID, Err: err}
	}
	return ret, nil
}

func (i *Indexer) fetch(op string, filter types.AssetFilter) ([]models.Asset, error) {
	ret, err := i.db.GetAssets(i.programID, filter, nil)
	if err != nil {
		return nil, &StoreError{Op: op, Err: err}
	}
	return ret, nil
}

// FetchForOwner returns the assets whose authority is authority and whose
// pubkeys also contain it. An empty authority owns nothing.
func (i *Indexer) FetchForOwner(authority string) ([]models.Asset, error) {
	if authority == "" {
		return []models.Asset{}, nil
	}
	return i.fetch("fetch for owner", types.AssetFilter{
		Authority:      authority,
		PubkeyContains: authority,
	})
}

// FetchGroupMembers returns the assets whose pubkeys contain group, except
// the group's own asset. An empty group has no members.
func (i *Indexer) FetchGroupMembers(group string) ([]models.Asset, error) {
	if group == "" {
		return []models.Asset{}, nil
	}
	return i.fetch("fetch group members", types.AssetFilter{
		PubkeyContains: group,
		ExcludeAssetID: group,
	})
}

// FetchBySubkind returns the assets whose data starts with disc
func (i *Indexer) FetchBySubkind(disc solana.Discriminator) ([]models.Asset, error) {
	return i.fetch("fetch by subkind", types.AssetFilter{
		Discriminator: disc.Bytes(),
	})
}

// FetchCollections returns the collection assets of authority, or every
// collection when authority is empty
func (i *Indexer) FetchCollections(authority string) ([]models.Asset, error) {
	return i.fetch("fetch collections", types.AssetFilter{
		Authority:      authority,
		PubkeyContains: authority,
		Discriminator:  CollectionSubkind.Bytes(),
	})
}

// FetchCollectionItems returns the item assets that belong to collection
func (i *Indexer) FetchCollectionItems(collection string) ([]models.Asset, error) {
	if collection == "" {
		return []models.Asset{}, nil
	}
	return i.fetch("fetch collection items", types.AssetFilter{
		PubkeyContains: collection,
		ExcludeAssetID: collection,
		Discriminator:  MetadataSubkind.Bytes(),
	})
}

// FetchAssetWithData returns the asset with its derived fields. It fails
// with ErrNotFound when the asset is not in the store.
func (i *Indexer) FetchAssetWithData(
	ctx context.Context,
	assetID string,
	resolver AssetDataResolver,
) (*AssetWithData, error) {
	asset, err := i.FetchByID(assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, assetID)
	}
	derived, err := resolver.ResolveAssetData(ctx, i.config.ProgramID, asset)
	if err != nil {
		return nil, fmt.Errorf("resolve asset data %s: %w", assetID, err)
	}
	return &AssetWithData{
		Asset:   asset,
		Derived: derived,
	}, nil
}
