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

package rpc

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gindexer/solana"
	solanago "github.com/gagliardetto/solana-go"
	solrpc "github.com/gagliardetto/solana-go/rpc"
)

// SignatureInfo is one entry of a getSignaturesForAddress result
type SignatureInfo struct {
	BlockTime *int64 `json:"blockTime,omitempty"`
	Err       any    `json:"err,omitempty"`
	Signature string `json:"signature"`
	Slot      uint64 `json:"slot"`
}

// Failed reports whether the transaction executed with an error
func (s SignatureInfo) Failed() bool {
	return s.Err != nil
}

// SignaturesOptions bounds a getSignaturesForAddress page. Results are
// newest first, starting before Before and stopping at Until.
type SignaturesOptions struct {
	Before string
	Until  string
	Limit  int
}

// GetTransaction fetches a confirmed transaction in the JSON encoding. It
// returns nil when the node does not know the signature.
func (c *Client) GetTransaction(
	ctx context.Context,
	signature string,
) (*solana.TransactionRecord, error) {
	sig, err := solanago.SignatureFromBase58(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid signature %q: %w", signature, err)
	}
	res, err := c.rpc.GetTransaction(
		ctx,
		sig,
		&solrpc.GetTransactionOpts{
			Commitment:                     solrpc.CommitmentType(c.commitment),
			MaxSupportedTransactionVersion: solrpc.NewTransactionVersion(0),
		},
	)
	if err != nil {
		if errors.Is(err, solrpc.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("getTransaction: %w", err)
	}
	return solana.NewTransactionRecord(res)
}

func (c *Client) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts SignaturesOptions,
) ([]SignatureInfo, error) {
	reqOpts := &solrpc.GetSignaturesForAddressOpts{
		Commitment: solrpc.CommitmentType(c.commitment),
	}
	var err error
	if opts.Before != "" {
		if reqOpts.Before, err = solanago.SignatureFromBase58(opts.Before); err != nil {
			return nil, fmt.Errorf("invalid before signature %q: %w", opts.Before, err)
		}
	}
	if opts.Until != "" {
		if reqOpts.Until, err = solanago.SignatureFromBase58(opts.Until); err != nil {
			return nil, fmt.Errorf("invalid until signature %q: %w", opts.Until, err)
		}
	}
	if opts.Limit > 0 {
		limit := opts.Limit
		reqOpts.Limit = &limit
	}
	res, err := c.rpc.GetSignaturesForAddressWithOpts(ctx, address, reqOpts)
	if err != nil {
		return nil, fmt.Errorf("getSignaturesForAddress: %w", err)
	}
	ret := make([]SignatureInfo, 0, len(res))
	for _, item := range res {
		if item == nil {
			continue
		}
		info := SignatureInfo{
			Signature: item.Signature.String(),
			Slot:      item.Slot,
			Err:       item.Err,
		}
		if item.BlockTime != nil {
			blockTime := int64(*item.BlockTime)
			info.BlockTime = &blockTime
		}
		ret = append(ret, info)
	}
	return ret, nil
}

// SimulationResult adds the return data the node reports to the SDK's
// simulation result
type SimulationResult struct {
	solrpc.SimulateTransactionResult
	ReturnData *solrpc.ReturnData `json:"returnData,omitempty"`
}

// Failed reports whether the simulated transaction executed with an error
func (s *SimulationResult) Failed() bool {
	return s.Err != nil
}

// SimulateTransaction runs tx without signature verification, replacing its
// blockhash with a recent one
func (c *Client) SimulateTransaction(
	ctx context.Context,
	tx *solanago.Transaction,
) (*SimulationResult, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("encode transaction: %w", err)
	}
	var resp struct {
		Value *SimulationResult `json:"value"`
	}
	err = c.rpc.RPCCallForInto(
		ctx,
		&resp,
		"simulateTransaction",
		[]any{
			base64.StdEncoding.EncodeToString(raw),
			solrpc.M{
				"encoding":               solanago.EncodingBase64,
				"commitment":             c.commitment,
				"sigVerify":              false,
				"replaceRecentBlockhash": true,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("simulateTransaction: %w", err)
	}
	if resp.Value == nil {
		return nil, errors.New("simulateTransaction: empty result")
	}
	return resp.Value, nil
}
