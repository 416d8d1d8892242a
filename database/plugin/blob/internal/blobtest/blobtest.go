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

// Package blobtest holds behavior tests shared by every blob store backend.
package blobtest

import (
	"context"
	"testing"

	"github.com/blinklabs-io/gindexer/database/plugin/blob"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store. Keys are written under a prefix unique to the test,
// so backends may share a bucket between tests.
func Run(t *testing.T, store blob.BlobStore) {
	ctx := context.Background()
	prefix := "test/" + t.Name() + "/"
	key := func(s string) []byte {
		return []byte(prefix + s)
	}

	_, err := store.Get(ctx, key("missing"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	require.ErrorIs(t, store.Delete(ctx, key("missing")), types.ErrBlobKeyNotFound)

	require.NoError(t, store.Set(ctx, key("b"), []byte("two")))
	require.NoError(t, store.Set(ctx, key("a"), []byte("one")))
	require.NoError(t, store.Set(ctx, key("c"), []byte{}))
	require.NoError(t, store.Set(ctx, []byte("other/"+t.Name()), []byte("x")))

	val, err := store.Get(ctx, key("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), val)

	// Overwrite
	require.NoError(t, store.Set(ctx, key("a"), []byte("uno")))
	val, err = store.Get(ctx, key("a"))
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), val)

	keys, err := store.Keys(ctx, []byte(prefix))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{key("a"), key("b"), key("c")}, keys)

	require.NoError(t, store.Delete(ctx, key("b")))
	_, err = store.Get(ctx, key("b"))
	require.ErrorIs(t, err, types.ErrBlobKeyNotFound)
	keys, err = store.Keys(ctx, []byte(prefix))
	require.NoError(t, err)
	assert.Equal(t, [][]byte{key("a"), key("c")}, keys)

	for _, k := range [][]byte{key("a"), key("c"), []byte("other/" + t.Name())} {
		require.NoError(t, store.Delete(ctx, k))
	}
}
