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
	"encoding/json"
	"errors"
	"fmt"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// TransactionRecord is a confirmed transaction as returned by getTransaction
// with the "json" encoding. It marshals back to the same shape.
type TransactionRecord struct {
	Slot        uint64                    `json:"slot"`
	BlockTime   *solanago.UnixTimeSeconds `json:"blockTime,omitempty"`
	Transaction *solanago.Transaction     `json:"transaction"`
	Meta        *rpc.TransactionMeta      `json:"meta"`
}

// NewTransactionRecord unwraps a getTransaction result. The transaction may
// be in the "json" encoding or in one of the binary encodings.
func NewTransactionRecord(
	res *rpc.GetTransactionResult,
) (*TransactionRecord, error) {
	if res == nil || res.Transaction == nil {
		return nil, newDecodeError("transaction", "missing transaction")
	}
	tx, err := res.Transaction.GetTransaction()
	if err != nil {
		return nil, &DecodeError{Op: "transaction", Err: err}
	}
	if tx == nil || len(tx.Message.AccountKeys) == 0 {
		return nil, newDecodeError("transaction", "no account keys")
	}
	if len(tx.Signatures) == 0 {
		return nil, newDecodeError("transaction", "no signatures")
	}
	return &TransactionRecord{
		Slot:        res.Slot,
		BlockTime:   res.BlockTime,
		Transaction: tx,
		Meta:        res.Meta,
	}, nil
}

// ParseTransactionRecord decodes a getTransaction result
func ParseTransactionRecord(data []byte) (*TransactionRecord, error) {
	var res rpc.GetTransactionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, &DecodeError{Op: "transaction", Err: err}
	}
	return NewTransactionRecord(&res)
}

// Signature returns the first signature, which identifies the transaction
func (t *TransactionRecord) Signature() string {
	if t.Transaction == nil || len(t.Transaction.Signatures) == 0 {
		return ""
	}
	return t.Transaction.Signatures[0].String()
}

// Failed reports whether the transaction executed with an error
func (t *TransactionRecord) Failed() bool {
	return t.Meta != nil && t.Meta.Err != nil
}

// AccountTable returns the combined account list that instruction indexes
// resolve against: static keys, then loaded writable, then loaded readonly
func (t *TransactionRecord) AccountTable() ([]PublicKey, error) {
	if t.Transaction == nil {
		return nil, &DecodeError{
			Op:  "account table",
			Err: errors.New("missing transaction"),
		}
	}
	static := t.Transaction.Message.AccountKeys
	ret := make([]PublicKey, 0, len(static))
	ret = append(ret, static...)
	if t.Meta != nil {
		ret = append(ret, t.Meta.LoadedAddresses.Writable...)
		ret = append(ret, t.Meta.LoadedAddresses.ReadOnly...)
	}
	if len(ret) == 0 {
		return nil, &DecodeError{
			Op:  "account table",
			Err: fmt.Errorf("transaction %s has no account keys", t.Signature()),
		}
	}
	return ret, nil
}
