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

// Package cpievent decodes the change events a program emits by invoking
// itself with an event-log instruction.
package cpievent

import (
	"github.com/blinklabs-io/gindexer/solana"
)

type Kind string

const (
	KindCreate Kind = "create"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Event is one of Create, Update or Delete
type Event interface {
	Kind() Kind
	Asset() solana.PublicKey
	isEvent()
}

// AssetFields carries the full state of an asset
type AssetFields struct {
	AssetID   solana.PublicKey
	Authority solana.PublicKey
	// Pubkeys is ordered. Position 0 is the owning group and the last entry
	// is usually the asset itself.
	Pubkeys []solana.PublicKey
	Data    []byte
}

func (f AssetFields) Asset() solana.PublicKey {
	return f.AssetID
}

type Create struct {
	AssetFields
}

func (Create) Kind() Kind { return KindCreate }
func (Create) isEvent()   {}

// Update replaces every field of an existing asset
type Update struct {
	AssetFields
}

func (Update) Kind() Kind { return KindUpdate }
func (Update) isEvent()   {}

type Delete struct {
	AssetID solana.PublicKey
}

func (Delete) Kind() Kind { return KindDelete }
func (Delete) isEvent()   {}

func (d Delete) Asset() solana.PublicKey {
	return d.AssetID
}
