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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/internal/test/testutil"
	"github.com/blinklabs-io/gindexer/solana"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcHandlerFunc func(params []json.RawMessage) (any, *jsonrpc.RPCError)

// fakeNode answers JSON-RPC calls from a method table
func fakeNode(
	t *testing.T,
	methods map[string]rpcHandlerFunc,
) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Method string            `json:"method"`
				Params []json.RawMessage `json:"params"`
				ID     any               `json:"id"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
			handler, ok := methods[req.Method]
			if !ok {
				resp["error"] = &jsonrpc.RPCError{Code: -32601, Message: "Method not found"}
			} else {
				result, rpcErr := handler(req.Params)
				if rpcErr != nil {
					resp["error"] = rpcErr
				} else {
					resp["result"] = result
				}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(resp)
		}),
	)
	t.Cleanup(srv.Close)
	return srv
}

var testPayer = testutil.TestKey(0xfe)

func testClient(url string) *Client {
	return NewClient(
		url,
		WithRetryMax(1),
		WithRetryWait(time.Millisecond, 5*time.Millisecond),
	)
}

func TestGetTransaction(t *testing.T) {
	programID := testutil.TestKey(0x10)
	record := testutil.NewTxBuilder(programID).
		WithSlot(42).
		WithSignature(testutil.Signature(1)).
		Entry().
		Build()
	var gotParams []json.RawMessage
	srv := fakeNode(t, map[string]rpcHandlerFunc{
		"getTransaction": func(params []json.RawMessage) (any, *jsonrpc.RPCError) {
			gotParams = params
			var sig string
			_ = json.Unmarshal(params[0], &sig)
			if sig != testutil.Signature(1) {
				return nil, nil
			}
			return record, nil
		},
	})
	client := testClient(srv.URL)
	tx, err := client.GetTransaction(context.Background(), testutil.Signature(1))
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, uint64(42), tx.Slot)
	assert.Equal(t, testutil.Signature(1), tx.Signature())
	require.Len(t, gotParams, 2)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(gotParams[1], &cfg))
	assert.NotContains(t, cfg, "encoding")
	assert.Equal(t, DefaultCommitment, cfg["commitment"])
	assert.InDelta(t, 0, cfg["maxSupportedTransactionVersion"], 0)
	// Unknown signature
	tx, err = client.GetTransaction(context.Background(), testutil.Signature(2))
	require.NoError(t, err)
	assert.Nil(t, tx)
	_, err = client.GetTransaction(context.Background(), "not-a-signature")
	require.Error(t, err)
}

func TestGetSignaturesForAddress(t *testing.T) {
	programID := testutil.TestKey(0x10)
	var gotCfg map[string]any
	srv := fakeNode(t, map[string]rpcHandlerFunc{
		"getSignaturesForAddress": func(params []json.RawMessage) (any, *jsonrpc.RPCError) {
			var addr string
			_ = json.Unmarshal(params[0], &addr)
			assert.Equal(t, programID.String(), addr)
			_ = json.Unmarshal(params[1], &gotCfg)
			return []map[string]any{
				{"signature": testutil.Signature(2), "slot": 11, "err": nil, "blockTime": 1700000000},
				{"signature": testutil.Signature(1), "slot": 10, "err": map[string]any{"InstructionError": []any{0, "Custom"}}},
			}, nil
		},
	})
	client := testClient(srv.URL)
	sigs, err := client.GetSignaturesForAddress(
		context.Background(),
		programID,
		SignaturesOptions{Until: testutil.Signature(0), Limit: 10},
	)
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, testutil.Signature(2), sigs[0].Signature)
	assert.Equal(t, uint64(11), sigs[0].Slot)
	require.NotNil(t, sigs[0].BlockTime)
	assert.Equal(t, int64(1700000000), *sigs[0].BlockTime)
	assert.False(t, sigs[0].Failed())
	assert.True(t, sigs[1].Failed())
	assert.Nil(t, sigs[1].BlockTime)
	assert.Equal(t, testutil.Signature(0), gotCfg["until"])
	assert.Equal(t, DefaultCommitment, gotCfg["commitment"])
	assert.InDelta(t, 10, gotCfg["limit"], 0)
	assert.NotContains(t, gotCfg, "before")
}

func TestCallError(t *testing.T) {
	srv := fakeNode(t, map[string]rpcHandlerFunc{
		"getTransaction": func([]json.RawMessage) (any, *jsonrpc.RPCError) {
			return nil, &jsonrpc.RPCError{Code: -32602, Message: "Invalid param"}
		},
	})
	client := testClient(srv.URL)
	_, err := client.GetTransaction(context.Background(), testutil.Signature(1))
	require.Error(t, err)
	var rpcErr *jsonrpc.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32602, rpcErr.Code)
}

func TestCallRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":[]}`))
		}),
	)
	defer srv.Close()
	client := testClient(srv.URL)
	sigs, err := client.GetSignaturesForAddress(
		context.Background(),
		testutil.TestKey(1),
		SignaturesOptions{},
	)
	require.NoError(t, err)
	assert.Empty(t, sigs)
	assert.Equal(t, int32(2), calls.Load())
}

func testAsset(programID solana.PublicKey) *models.Asset {
	asset := testutil.TestKey(0x21)
	authority := testutil.TestKey(0x22)
	group := testutil.TestKey(0x23)
	return models.NewAsset(
		programID.String(),
		asset.String(),
		authority.String(),
		[]string{group.String(), authority.String(), asset.String()},
		[]byte{1, 2, 3},
		time.Unix(1700000000, 0),
	)
}

func TestAssetDataInstruction(t *testing.T) {
	programID := testutil.TestKey(0x10)
	asset := testAsset(programID)
	ix, err := AssetDataInstruction(programID, asset)
	require.NoError(t, err)
	assert.Equal(t, programID, ix.ProgramID())
	require.Len(t, ix.AccountValues, 5)
	assert.Equal(t, asset.AssetID, ix.AccountValues[0].PublicKey.String())
	assert.Equal(t, asset.Authority, ix.AccountValues[1].PublicKey.String())
	for _, acct := range ix.AccountValues {
		assert.False(t, acct.IsSigner)
		assert.False(t, acct.IsWritable)
	}
	disc := solana.InstructionDiscriminator(GetAssetDataInstruction)
	assert.Equal(
		t,
		append(disc.Bytes(), 3, 0, 0, 0, 1, 2, 3),
		ix.DataBytes,
	)
	asset.Authority = "not-a-key"
	_, err = AssetDataInstruction(programID, asset)
	require.Error(t, err)
}

func simulationNode(
	t *testing.T,
	programID solana.PublicKey,
	logs []string,
	returnData any,
	simErr any,
) *httptest.Server {
	return fakeNode(t, map[string]rpcHandlerFunc{
		"simulateTransaction": func(params []json.RawMessage) (any, *jsonrpc.RPCError) {
			var cfg map[string]any
			_ = json.Unmarshal(params[1], &cfg)
			assert.Equal(t, false, cfg["sigVerify"])
			assert.Equal(t, true, cfg["replaceRecentBlockhash"])
			assert.Equal(t, "base64", cfg["encoding"])
			var raw string
			_ = json.Unmarshal(params[0], &raw)
			tx, err := solanago.TransactionFromBase64(raw)
			if assert.NoError(t, err) {
				assert.Len(t, tx.Signatures, 1)
				assert.Equal(t, testPayer, tx.Message.AccountKeys[0])
				assert.Len(t, tx.Message.Instructions, 1)
			}
			return map[string]any{
				"context": map[string]any{"slot": 1},
				"value": map[string]any{
					"err":           simErr,
					"logs":          logs,
					"returnData":    returnData,
					"unitsConsumed": 1000,
				},
			}, nil
		},
	})
}

func TestSimulationResolver(t *testing.T) {
	programID := testutil.TestKey(0x10)
	payload := `{"name":"Asset One","uri":"https://example.com/1.json"}`
	b64 := base64.StdEncoding.EncodeToString([]byte(payload))
	logs := []string{
		"Program " + programID.String() + " invoke [1]",
		"Program return: " + programID.String() + " " + b64,
		"Program " + programID.String() + " success",
	}
	srv := simulationNode(
		t,
		programID,
		logs,
		map[string]any{
			"programId": programID.String(),
			"data":      []string{b64, "base64"},
		},
		nil,
	)
	resolver := NewSimulationResolver(testClient(srv.URL), testPayer)
	data, err := resolver.ResolveAssetData(
		context.Background(),
		programID,
		testAsset(programID),
	)
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(data))
}

func TestSimulationResolverProgramMismatch(t *testing.T) {
	programID := testutil.TestKey(0x10)
	other := testutil.TestKey(0x11)
	b64 := base64.StdEncoding.EncodeToString([]byte(`{}`))
	logs := []string{
		"Program return: " + other.String() + " " + b64,
		"Program " + programID.String() + " success",
	}
	srv := simulationNode(
		t,
		programID,
		logs,
		map[string]any{
			"programId": other.String(),
			"data":      []string{b64, "base64"},
		},
		nil,
	)
	resolver := NewSimulationResolver(testClient(srv.URL), testPayer)
	_, err := resolver.ResolveAssetData(
		context.Background(),
		programID,
		testAsset(programID),
	)
	require.ErrorIs(t, err, solana.ErrProgramMismatch)
}

func TestSimulationResolverNoReturnData(t *testing.T) {
	programID := testutil.TestKey(0x10)
	srv := simulationNode(t, programID, []string{"a", "b"}, nil, nil)
	resolver := NewSimulationResolver(testClient(srv.URL), testPayer)
	data, err := resolver.ResolveAssetData(
		context.Background(),
		programID,
		testAsset(programID),
	)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestSimulationResolverFailed(t *testing.T) {
	programID := testutil.TestKey(0x10)
	srv := simulationNode(
		t,
		programID,
		[]string{"Program failed"},
		nil,
		map[string]any{"InstructionError": []any{0, "InvalidAccountData"}},
	)
	resolver := NewSimulationResolver(testClient(srv.URL), testPayer)
	_, err := resolver.ResolveAssetData(
		context.Background(),
		programID,
		testAsset(programID),
	)
	require.ErrorIs(t, err, ErrSimulationFailed)
}
