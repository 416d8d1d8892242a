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

package solana

import (
	"bytes"
	"encoding/hex"

	bin "github.com/gagliardetto/binary"
)

const DiscriminatorSize = 8

const eventNamespace = "event"

// Discriminator is the 8-byte prefix that identifies the shape of a payload
type Discriminator [DiscriminatorSize]byte

// NewDiscriminator returns the first 8 bytes of sha256("namespace:name")
func NewDiscriminator(namespace string, name string) Discriminator {
	var ret Discriminator
	copy(ret[:], bin.Sighash(namespace, name))
	return ret
}

// EventDiscriminator identifies a named event payload
func EventDiscriminator(name string) Discriminator {
	return NewDiscriminator(eventNamespace, name)
}

// InstructionDiscriminator identifies a global instruction handler by its
// snake_case name
func InstructionDiscriminator(name string) Discriminator {
	return NewDiscriminator(bin.SIGHASH_GLOBAL_NAMESPACE, name)
}

// EventInstructionTag prefixes every self-invoked event-log instruction. It
// is the u64 0x1d9acb512ea545e4 in little-endian order.
var EventInstructionTag = Discriminator{0xe4, 0x45, 0xa5, 0x2e, 0x51, 0xcb, 0x9a, 0x1d}

// DiscriminatorFromBytes returns the leading discriminator of data, and false
// when data is too short
func DiscriminatorFromBytes(data []byte) (Discriminator, bool) {
	var ret Discriminator
	if len(data) < DiscriminatorSize {
		return ret, false
	}
	copy(ret[:], data[:DiscriminatorSize])
	return ret, true
}

// Matches reports whether data begins with the discriminator
func (d Discriminator) Matches(data []byte) bool {
	return len(data) >= DiscriminatorSize &&
		bytes.Equal(d[:], data[:DiscriminatorSize])
}

func (d Discriminator) Bytes() []byte {
	return d[:]
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}
