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

package gindexer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/gindexer/cpievent"
	"github.com/blinklabs-io/gindexer/event"
	"github.com/blinklabs-io/gindexer/internal/test/testutil"
	"github.com/blinklabs-io/gindexer/rpc"
	"github.com/blinklabs-io/gindexer/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProgram = testutil.TestKey(0x40)
	testAsset   = testutil.TestKey(0x41)
	testOwner   = testutil.TestKey(0x42)
	testGroup   = testutil.TestKey(0x43)
)

// fakeSource serves a fixed history of transactions, oldest first
type fakeSource struct {
	txs []*solana.TransactionRecord
	mu  sync.Mutex
}

func (f *fakeSource) GetSignaturesForAddress(
	_ context.Context,
	_ solana.PublicKey,
	opts rpc.SignaturesOptions,
) ([]rpc.SignatureInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ret []rpc.SignatureInfo
	for i := len(f.txs) - 1; i >= 0; i-- {
		sig := f.txs[i].Signature()
		if sig == opts.Until || sig == opts.Before {
			break
		}
		ret = append(ret, rpc.SignatureInfo{
			Signature: sig,
			Slot:      f.txs[i].Slot,
		})
	}
	return ret, nil
}

func (f *fakeSource) GetTransaction(
	_ context.Context,
	signature string,
) (*solana.TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.txs {
		if tx.Signature() == signature {
			return tx, nil
		}
	}
	return nil, nil
}

func newTestService(t *testing.T, opts ...ConfigOptionFunc) *Service {
	t.Helper()
	opts = append(
		[]ConfigOptionFunc{
			WithProgramID(testProgram),
			WithInMemory(true),
			WithPollInterval(10 * time.Millisecond),
		},
		opts...,
	)
	svc, err := New(NewConfig(opts...))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.Stop()
	})
	return svc
}

func TestNewInvalidConfig(t *testing.T) {
	_, err := New(NewConfig())
	require.ErrorContains(t, err, "invalid configuration")
}

func TestServiceOpen(t *testing.T) {
	svc := newTestService(t, WithRPCURL("http://127.0.0.1:1"))
	assert.Nil(t, svc.Indexer())
	require.NoError(t, svc.Open())
	idx := svc.Indexer()
	require.NotNil(t, idx)
	assert.Equal(t, testProgram, idx.ProgramID())
	// Opening again keeps the same indexer
	require.NoError(t, svc.Open())
	assert.Same(t, idx, svc.Indexer())
	require.NotNil(t, svc.RPC())
	assert.Equal(t, "http://127.0.0.1:1", svc.RPC().URL())
}

func TestServiceResolver(t *testing.T) {
	svc := newTestService(t, WithTransactionSource(&fakeSource{}))
	require.NoError(t, svc.Open())
	_, err := svc.Resolver()
	require.Error(t, err)

	svc = newTestService(t, WithRPCURL("http://127.0.0.1:1"))
	require.NoError(t, svc.Open())
	_, err = svc.Resolver()
	require.ErrorIs(t, err, ErrNoPayer)

	svc = newTestService(
		t,
		WithRPCURL("http://127.0.0.1:1"),
		WithPayer(testutil.TestKey(0x44)),
	)
	require.NoError(t, svc.Open())
	resolver, err := svc.Resolver()
	require.NoError(t, err)
	assert.NotNil(t, resolver)
}

func TestServiceRunAndStop(t *testing.T) {
	source := &fakeSource{
		txs: []*solana.TransactionRecord{
			testutil.NewTxBuilder(testProgram).
				WithSignature(testutil.Signature(1)).
				WithSlot(10).
				Entry().
				Event(cpievent.Create{
					AssetFields: testutil.AssetEvent(
						testAsset, testOwner, testGroup, []byte{1, 2, 3},
					),
				}).
				Build(),
		},
	}
	svc := newTestService(t, WithTransactionSource(source))
	require.NoError(t, svc.Open())
	_, err := svc.Indexer().Clear()
	require.NoError(t, err)
	_, created := svc.EventBus().Subscribe(event.AssetCreatedEventType)

	runErr := make(chan error, 1)
	go func() {
		runErr <- svc.Run(context.Background())
	}()
	evt := testutil.RequireReceive(t, created, 5*time.Second, "asset created")
	assetEvt, ok := evt.Data.(event.AssetEvent)
	require.True(t, ok)
	assert.Equal(t, testAsset.String(), assetEvt.AssetID)

	require.NoError(t, svc.Stop())
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
	// Stop is idempotent
	require.NoError(t, svc.Stop())
}

func TestServiceRunCanceled(t *testing.T) {
	svc := newTestService(t, WithTransactionSource(&fakeSource{}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Run(ctx))
}
