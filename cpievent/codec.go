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

package cpievent

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gindexer/solana"
	bin "github.com/gagliardetto/binary"
)

const (
	EventNameCreate = "CudCreate"
	EventNameUpdate = "CudUpdate"
	EventNameDelete = "CudDelete"
)

var (
	ErrUnknownEvent = errors.New("unknown event discriminator")
	ErrShortPayload = errors.New("event payload shorter than its discriminator")
)

// deleteFields is the Borsh layout of a Delete event
type deleteFields struct {
	AssetID solana.PublicKey
}

type decodeFunc func(*bin.Decoder) (Event, error)

var (
	discCreate = solana.EventDiscriminator(EventNameCreate)
	discUpdate = solana.EventDiscriminator(EventNameUpdate)
	discDelete = solana.EventDiscriminator(EventNameDelete)

	decoders = map[solana.Discriminator]decodeFunc{
		discCreate: func(d *bin.Decoder) (Event, error) {
			f, err := decodeAssetFields(d)
			if err != nil {
				return nil, err
			}
			return Create{AssetFields: f}, nil
		},
		discUpdate: func(d *bin.Decoder) (Event, error) {
			f, err := decodeAssetFields(d)
			if err != nil {
				return nil, err
			}
			return Update{AssetFields: f}, nil
		},
		discDelete: func(d *bin.Decoder) (Event, error) {
			var f deleteFields
			if err := d.Decode(&f); err != nil {
				return nil, fmt.Errorf("asset_id: %w", err)
			}
			return Delete(f), nil
		},
	}
)

// DecodeEvent decodes an event payload: an 8-byte event discriminator
// followed by the Borsh-encoded fields. Trailing bytes are ignored.
func DecodeEvent(payload []byte) (Event, error) {
	disc, ok := solana.DiscriminatorFromBytes(payload)
	if !ok {
		return nil, &solana.DecodeError{
			Op:  "event",
			Err: fmt.Errorf("%w: %d bytes", ErrShortPayload, len(payload)),
		}
	}
	decode, ok := decoders[disc]
	if !ok {
		return nil, &solana.DecodeError{
			Op:  "event",
			Err: fmt.Errorf("%w: %s", ErrUnknownEvent, disc),
		}
	}
	ev, err := decode(bin.NewBorshDecoder(payload[solana.DiscriminatorSize:]))
	if err != nil {
		return nil, &solana.DecodeError{Op: "event", Err: err}
	}
	return ev, nil
}

func decodeAssetFields(d *bin.Decoder) (AssetFields, error) {
	var ret AssetFields
	if err := d.Decode(&ret); err != nil {
		return ret, fmt.Errorf("asset fields: %w", err)
	}
	// Empty vectors decode as nil and Data aliases the payload
	if ret.Pubkeys == nil {
		ret.Pubkeys = []solana.PublicKey{}
	}
	ret.Data = append([]byte{}, ret.Data...)
	return ret, nil
}

// EncodeEvent is the inverse of DecodeEvent
func EncodeEvent(ev Event) ([]byte, error) {
	var disc solana.Discriminator
	var fields any
	switch e := ev.(type) {
	case Create:
		disc, fields = discCreate, e.AssetFields
	case Update:
		disc, fields = discUpdate, e.AssetFields
	case Delete:
		disc, fields = discDelete, deleteFields(e)
	default:
		return nil, fmt.Errorf("unexpected event type %T", ev)
	}
	var buf bytes.Buffer
	buf.Write(disc.Bytes())
	if err := bin.NewBorshEncoder(&buf).Encode(fields); err != nil {
		return nil, fmt.Errorf("encode %s event: %w", ev.Kind(), err)
	}
	return buf.Bytes(), nil
}

// EncodeEventInstruction returns the data of the self-invoked instruction
// that logs ev
func EncodeEventInstruction(ev Event) ([]byte, error) {
	payload, err := EncodeEvent(ev)
	if err != nil {
		return nil, err
	}
	ret := make([]byte, 0, solana.DiscriminatorSize+len(payload))
	ret = append(ret, solana.EventInstructionTag.Bytes()...)
	return append(ret, payload...), nil
}
