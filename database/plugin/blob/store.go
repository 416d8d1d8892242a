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

package blob

import (
	"context"

	"github.com/blinklabs-io/gindexer/database/plugin"
)

// BlobStore is a flat key/value store for raw archived data. Get and
// Delete return types.ErrBlobKeyNotFound for a missing key. Keys returns
// the keys under prefix in ascending byte order.
type BlobStore interface {
	Close() error
	Get(ctx context.Context, key []byte) ([]byte, error)
	Set(ctx context.Context, key []byte, val []byte) error
	Delete(ctx context.Context, key []byte) error
	Keys(ctx context.Context, prefix []byte) ([][]byte, error)
}

// New returns the started blob plugin selected by name
func New(pluginName string) (BlobStore, error) {
	return plugin.StartAs[BlobStore](plugin.PluginTypeBlob, pluginName)
}
