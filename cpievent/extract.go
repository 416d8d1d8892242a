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
	"fmt"

	"github.com/blinklabs-io/gindexer/solana"
	solanago "github.com/gagliardetto/solana-go"
)

// EventAuthoritySeed is the seed of the address a program passes as the only
// account of its event-log instruction
const EventAuthoritySeed = "__event_authority"

// EventAuthority derives the event authority address of a program
func EventAuthority(programID solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solanago.FindProgramAddress(
		[][]byte{[]byte(EventAuthoritySeed)},
		programID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf(
			"derive event authority for %s: %w",
			programID,
			err,
		)
	}
	return addr, nil
}

// Extractor finds authentic change events in an ordered instruction list
type Extractor struct {
	programID      solana.PublicKey
	eventAuthority solana.PublicKey
}

func NewExtractor(programID solana.PublicKey) (*Extractor, error) {
	authority, err := EventAuthority(programID)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		programID:      programID,
		eventAuthority: authority,
	}, nil
}

func (e *Extractor) ProgramID() solana.PublicKey {
	return e.programID
}

func (e *Extractor) EventAuthority() solana.PublicKey {
	return e.eventAuthority
}

// IsEventInstruction reports whether ix carries the event-log tag and was
// invoked with the event authority as its only account
func (e *Extractor) IsEventInstruction(ix solana.Instruction) bool {
	if !solana.EventInstructionTag.Matches(ix.Data) {
		return false
	}
	return len(ix.Accounts) == 1 && ix.Accounts[0] == e.eventAuthority
}

// Extract decodes the events in ixs, in order. The first instruction is the
// transaction entry point and is never an event. Tagged instructions that fail
// the authority check are skipped.
func (e *Extractor) Extract(ixs []solana.Instruction) ([]Event, error) {
	var ret []Event
	for idx := 1; idx < len(ixs); idx++ {
		ix := ixs[idx]
		if !e.IsEventInstruction(ix) {
			continue
		}
		ev, err := DecodeEvent(ix.Data[solana.DiscriminatorSize:])
		if err != nil {
			return nil, fmt.Errorf("instruction %d: %w", idx, err)
		}
		ret = append(ret, ev)
	}
	return ret, nil
}

// ExtractTransaction orders the instructions of tx and extracts its events
func (e *Extractor) ExtractTransaction(
	tx *solana.TransactionRecord,
) ([]Event, error) {
	ixs, err := solana.OrderInstructions(tx)
	if err != nil {
		return nil, err
	}
	return e.Extract(ixs)
}
