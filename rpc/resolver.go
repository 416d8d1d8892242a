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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/solana"
	bin "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

// GetAssetDataInstruction is the read-only program method that renders an
// asset's derived fields as JSON return data
const GetAssetDataInstruction = "get_asset_data"

var ErrSimulationFailed = errors.New("simulation failed")

// SimulationResolver recovers derived asset fields by simulating the owning
// program's get_asset_data method
type SimulationResolver struct {
	client *Client
	payer  solana.PublicKey
}

// NewSimulationResolver returns a resolver that simulates with payer as the
// fee payer. The payer never signs.
func NewSimulationResolver(
	client *Client,
	payer solana.PublicKey,
) *SimulationResolver {
	return &SimulationResolver{
		client: client,
		payer:  payer,
	}
}

// AssetDataInstruction builds the get_asset_data call for asset. The asset
// and its authority come first, followed by its pubkeys as remaining
// accounts, all read-only.
func AssetDataInstruction(
	programID solana.PublicKey,
	asset *models.Asset,
) (*solanago.GenericInstruction, error) {
	keys := make([]string, 0, len(asset.Pubkeys)+2)
	keys = append(keys, asset.AssetID, asset.Authority)
	keys = append(keys, asset.PubkeyList()...)
	accounts := make(solanago.AccountMetaSlice, 0, len(keys))
	for _, key := range keys {
		pk, err := solana.ParsePublicKey(key)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", asset.AssetID, err)
		}
		accounts = append(accounts, solanago.Meta(pk))
	}
	var buf bytes.Buffer
	buf.Write(solana.InstructionDiscriminator(GetAssetDataInstruction).Bytes())
	if err := bin.NewBorshEncoder(&buf).Encode(asset.Data); err != nil {
		return nil, fmt.Errorf("asset %s: encode data: %w", asset.AssetID, err)
	}
	return solanago.NewInstruction(programID, accounts, buf.Bytes()), nil
}

// ResolveAssetData returns the JSON document the program renders for asset.
// A call that sets no return data yields an empty object.
func (r *SimulationResolver) ResolveAssetData(
	ctx context.Context,
	programID solana.PublicKey,
	asset *models.Asset,
) (json.RawMessage, error) {
	ix, err := AssetDataInstruction(programID, asset)
	if err != nil {
		return nil, err
	}
	// The node replaces the zero blockhash
	tx, err := solanago.NewTransaction(
		[]solanago.Instruction{ix},
		solanago.Hash{},
		solanago.TransactionPayer(r.payer),
	)
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	result, err := r.client.SimulateTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if result.Failed() {
		return nil, fmt.Errorf(
			"%w: %v: %v",
			ErrSimulationFailed,
			result.Err,
			result.Logs,
		)
	}
	if result.ReturnData == nil {
		return json.RawMessage("{}"), nil
	}
	payload, err := solana.ParseReturnDataLog(result.Logs, programID)
	if err != nil {
		return nil, err
	}
	if !json.Valid(payload) {
		return nil, &solana.DecodeError{
			Op:  "asset data",
			Err: fmt.Errorf("return data is not JSON: %q", payload),
		}
	}
	return json.RawMessage(payload), nil
}
