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

package solana_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/blinklabs-io/gindexer/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicKeyRoundTrip(t *testing.T) {
	key := testKey(7)
	parsed, err := solana.ParsePublicKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)

	_, err = solana.ParsePublicKey("abc")
	assert.ErrorIs(t, err, solana.ErrInvalidPublicKey)
	_, err = solana.ParsePublicKey("0OIl")
	assert.ErrorIs(t, err, solana.ErrInvalidPublicKey)

	var zero solana.PublicKey
	assert.True(t, zero.IsZero())
	assert.Equal(t, "11111111111111111111111111111111", zero.String())
	assert.Equal(
		t,
		[]string{testKey(1).String(), zero.String()},
		solana.PublicKeyStrings([]solana.PublicKey{testKey(1), zero}),
	)
}

func TestEventInstructionTag(t *testing.T) {
	assert.Equal(
		t,
		"e445a52e51cb9a1d",
		hex.EncodeToString(solana.EventInstructionTag.Bytes()),
	)
	// Stored as a u64, so the wire bytes are the hash prefix reversed
	sum := sha256.Sum256([]byte("anchor:event"))
	for i := range solana.DiscriminatorSize {
		assert.Equal(
			t,
			sum[solana.DiscriminatorSize-1-i],
			solana.EventInstructionTag[i],
		)
	}
}

func TestDiscriminators(t *testing.T) {
	sum := sha256.Sum256([]byte("event:CudCreate"))
	assert.Equal(t, sum[:8], solana.EventDiscriminator("CudCreate").Bytes())
	sum = sha256.Sum256([]byte("global:get_asset_data"))
	assert.Equal(
		t,
		sum[:8],
		solana.InstructionDiscriminator("get_asset_data").Bytes(),
	)
	sum = sha256.Sum256([]byte("srfc19:collection"))
	assert.Equal(
		t,
		hex.EncodeToString(sum[:8]),
		solana.NewDiscriminator("srfc19", "collection").String(),
	)
}

func TestDiscriminatorMatches(t *testing.T) {
	d := solana.EventDiscriminator("CudCreate")
	assert.True(t, d.Matches(append(d.Bytes(), 1, 2, 3)))
	assert.False(t, d.Matches(d.Bytes()[:7]))
	assert.NotEqual(t, d, solana.EventDiscriminator("CudUpdate"))
	_, ok := solana.DiscriminatorFromBytes([]byte{1, 2})
	assert.False(t, ok)
	got, ok := solana.DiscriminatorFromBytes(append(d.Bytes(), 9))
	assert.True(t, ok)
	assert.Equal(t, d, got)
}
