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

package types

import (
	"errors"
)

var (
	// ErrAssetNotFound is returned when an update or delete targets an
	// asset that is not in the store
	ErrAssetNotFound = errors.New("asset not found")

	// ErrAssetExists is returned when a create targets an asset that is
	// already in the store
	ErrAssetExists = errors.New("asset already exists")
)

// ErrBlobKeyNotFound is returned by blob operations when a key is missing
var ErrBlobKeyNotFound = errors.New("blob key not found")

// ErrNoStoreAvailable is returned when no blob or metadata store is available
var ErrNoStoreAvailable = errors.New("no store available")

// ErrBlobStoreUnavailable is returned when blob store cannot be accessed
var ErrBlobStoreUnavailable = errors.New("blob store unavailable")

// AssetFilter is a conjunction of asset predicates. Empty fields are not
// applied.
type AssetFilter struct {
	// AssetID matches the asset identifier exactly
	AssetID string
	// ExcludeAssetID excludes the asset with this identifier
	ExcludeAssetID string
	// Authority matches the authority exactly
	Authority string
	// PubkeyContains matches assets whose account list includes the key
	PubkeyContains string
	// Discriminator matches the first 8 bytes of the asset data
	Discriminator []byte
}
