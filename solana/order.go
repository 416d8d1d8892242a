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
	"github.com/gagliardetto/solana-go/rpc"
)

// Instruction is a resolved instruction in execution order
type Instruction struct {
	ProgramID PublicKey
	Accounts  []PublicKey
	Data      []byte
}

// OrderInstructions flattens the transaction's top-level and inner
// instructions into execution order. Each top-level instruction is followed
// by the inner instructions it invoked. An inner bucket whose index matches
// no top-level instruction is a DecodeError.
func OrderInstructions(tx *TransactionRecord) ([]Instruction, error) {
	table, err := tx.AccountTable()
	if err != nil {
		return nil, err
	}
	var inner []rpc.InnerInstruction
	if tx.Meta != nil {
		inner = tx.Meta.InnerInstructions
	}
	outer := tx.Transaction.Message.Instructions
	ret := make([]Instruction, 0, len(outer))
	innerIdx := 0
	for outerIdx, compiled := range outer {
		ix, err := resolveInstruction(
			table,
			compiled.ProgramIDIndex,
			compiled.Accounts,
			compiled.Data,
		)
		if err != nil {
			return nil, &DecodeError{
				Op:  "instruction",
				Err: wrapIndex(outerIdx, -1, err),
			}
		}
		ret = append(ret, ix)
		if innerIdx < len(inner) && int(inner[innerIdx].Index) == outerIdx {
			for i, compiledInner := range inner[innerIdx].Instructions {
				ix, err := resolveInstruction(
					table,
					compiledInner.ProgramIDIndex,
					compiledInner.Accounts,
					compiledInner.Data,
				)
				if err != nil {
					return nil, &DecodeError{
						Op:  "inner instruction",
						Err: wrapIndex(outerIdx, i, err),
					}
				}
				ret = append(ret, ix)
			}
			innerIdx++
		}
	}
	if innerIdx < len(inner) {
		return nil, newDecodeError(
			"inner instruction",
			"bucket for top-level index %d does not match any instruction",
			inner[innerIdx].Index,
		)
	}
	return ret, nil
}

func resolveInstruction(
	table []PublicKey,
	programIDIndex uint16,
	accountIndexes []uint16,
	data []byte,
) (Instruction, error) {
	programID, err := lookupAccount(table, programIDIndex)
	if err != nil {
		return Instruction{}, err
	}
	accounts := make([]PublicKey, 0, len(accountIndexes))
	for _, idx := range accountIndexes {
		acct, err := lookupAccount(table, idx)
		if err != nil {
			return Instruction{}, err
		}
		accounts = append(accounts, acct)
	}
	return Instruction{
		ProgramID: programID,
		Accounts:  accounts,
		Data:      data,
	}, nil
}

func lookupAccount(table []PublicKey, idx uint16) (PublicKey, error) {
	if int(idx) >= len(table) {
		return PublicKey{}, &indexError{idx: int(idx), size: len(table)}
	}
	return table[idx], nil
}
