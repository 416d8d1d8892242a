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

package testutil

import (
	"encoding/binary"

	"github.com/blinklabs-io/gindexer/cpievent"
	"github.com/blinklabs-io/gindexer/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TestKey returns a public key with every byte set to b
func TestKey(b byte) solana.PublicKey {
	var ret solana.PublicKey
	for i := range ret {
		ret[i] = b
	}
	return ret
}

// TxBuilder assembles transaction records for a single program. Events are
// logged as inner instructions of the most recent top-level instruction.
type TxBuilder struct {
	programID      solana.PublicKey
	eventAuthority solana.PublicKey
	slot           uint64
	signature      solanago.Signature
	keys           solanago.PublicKeySlice
	keyIndex       map[solana.PublicKey]uint16
	outer          []solanago.CompiledInstruction
	inner          []rpc.InnerInstruction
	failed         bool
}

func NewTxBuilder(programID solana.PublicKey) *TxBuilder {
	authority, err := cpievent.EventAuthority(programID)
	if err != nil {
		panic(err)
	}
	b := &TxBuilder{
		programID:      programID,
		eventAuthority: authority,
		keyIndex:       make(map[solana.PublicKey]uint16),
		signature:      solanago.MustSignatureFromBase58(Signature(0)),
	}
	// Fee payer
	b.key(TestKey(0xfe))
	return b
}

func (b *TxBuilder) WithSlot(slot uint64) *TxBuilder {
	b.slot = slot
	return b
}

// WithSignature sets the transaction signature from its base58 form
func (b *TxBuilder) WithSignature(sig string) *TxBuilder {
	b.signature = solanago.MustSignatureFromBase58(sig)
	return b
}

// Failed marks the transaction as failed on chain
func (b *TxBuilder) Failed() *TxBuilder {
	b.failed = true
	return b
}

func (b *TxBuilder) key(k solana.PublicKey) uint16 {
	if idx, ok := b.keyIndex[k]; ok {
		return idx
	}
	b.keys = append(b.keys, k)
	idx := uint16(len(b.keys) - 1) // #nosec G115
	b.keyIndex[k] = idx
	return idx
}

func (b *TxBuilder) compile(ix solana.Instruction) solanago.CompiledInstruction {
	accounts := make([]uint16, 0, len(ix.Accounts))
	for _, acct := range ix.Accounts {
		accounts = append(accounts, b.key(acct))
	}
	return solanago.CompiledInstruction{
		ProgramIDIndex: b.key(ix.ProgramID),
		Accounts:       accounts,
		Data:           ix.Data,
	}
}

// Entry adds a top-level instruction to the program
func (b *TxBuilder) Entry(data ...byte) *TxBuilder {
	return b.Outer(solana.Instruction{
		ProgramID: b.programID,
		Accounts:  []solana.PublicKey{TestKey(0xfe)},
		Data:      append([]byte{0x01}, data...),
	})
}

// Outer adds an arbitrary top-level instruction
func (b *TxBuilder) Outer(ix solana.Instruction) *TxBuilder {
	b.outer = append(b.outer, b.compile(ix))
	return b
}

// Inner adds an arbitrary inner instruction under the last top-level
// instruction
func (b *TxBuilder) Inner(ix solana.Instruction) *TxBuilder {
	if len(b.outer) == 0 {
		panic("inner instruction without a top-level instruction")
	}
	outerIdx := uint16(len(b.outer) - 1) // #nosec G115
	c := b.compile(ix)
	compiledIx := rpc.CompiledInstruction{
		ProgramIDIndex: c.ProgramIDIndex,
		Accounts:       c.Accounts,
		Data:           c.Data,
		StackHeight:    2,
	}
	if n := len(b.inner); n > 0 && b.inner[n-1].Index == outerIdx {
		b.inner[n-1].Instructions = append(b.inner[n-1].Instructions, compiledIx)
		return b
	}
	b.inner = append(b.inner, rpc.InnerInstruction{
		Index:        outerIdx,
		Instructions: []rpc.CompiledInstruction{compiledIx},
	})
	return b
}

func mustEventInstruction(ev cpievent.Event) []byte {
	data, err := cpievent.EncodeEventInstruction(ev)
	if err != nil {
		panic(err)
	}
	return data
}

// Event logs ev through the program's event authority
func (b *TxBuilder) Event(ev cpievent.Event) *TxBuilder {
	return b.Inner(solana.Instruction{
		ProgramID: b.programID,
		Accounts:  []solana.PublicKey{b.eventAuthority},
		Data:      mustEventInstruction(ev),
	})
}

// ForgedEvent logs ev with the wrong account, as an unrelated program could
func (b *TxBuilder) ForgedEvent(ev cpievent.Event) *TxBuilder {
	return b.Inner(solana.Instruction{
		ProgramID: b.programID,
		Accounts:  []solana.PublicKey{TestKey(0xee)},
		Data:      mustEventInstruction(ev),
	})
}

func (b *TxBuilder) Build() *solana.TransactionRecord {
	inner := make([]rpc.InnerInstruction, len(b.inner))
	copy(inner, b.inner)
	ret := &solana.TransactionRecord{
		Slot: b.slot,
		Transaction: &solanago.Transaction{
			Signatures: []solanago.Signature{b.signature},
			Message: solanago.Message{
				AccountKeys: append(solanago.PublicKeySlice(nil), b.keys...),
				Header: solanago.MessageHeader{
					NumRequiredSignatures: 1,
				},
				RecentBlockhash: solanago.Hash(TestKey(0)),
				Instructions: append(
					[]solanago.CompiledInstruction(nil),
					b.outer...,
				),
			},
		},
		Meta: &rpc.TransactionMeta{
			InnerInstructions: inner,
		},
	}
	if b.failed {
		ret.Meta.Err = map[string]any{
			"InstructionError": []any{0, map[string]any{"Custom": 1}},
		}
	}
	return ret
}

// AssetEvent returns the fields of a Create or Update for an asset owned by
// authority in group
func AssetEvent(
	asset, authority, group solana.PublicKey,
	data []byte,
) cpievent.AssetFields {
	return cpievent.AssetFields{
		AssetID:   asset,
		Authority: authority,
		Pubkeys:   []solana.PublicKey{group, authority, asset},
		Data:      data,
	}
}

// Signature returns a distinct base58 transaction signature for n
func Signature(n int) string {
	var sig solanago.Signature
	sig[0] = 0x5a
	binary.BigEndian.PutUint64(sig[56:], uint64(n)) // #nosec G115
	return sig.String()
}
