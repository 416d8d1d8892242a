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
	"testing"
	"time"

	"github.com/blinklabs-io/gindexer/internal/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, DefaultShutdownTimeout, cfg.shutdownTimeout)
	assert.False(t, cfg.archive)
	assert.False(t, cfg.tracing)
}

func TestNewConfigOptions(t *testing.T) {
	programID := testutil.TestKey(0x10)
	payer := testutil.TestKey(0x11)
	cfg := NewConfig(
		WithProgramID(programID),
		WithPayer(payer),
		WithRPCURL("http://node:8899"),
		WithCommitment("finalized"),
		WithDatabasePath("/data"),
		WithBlobPlugin("gcs"),
		WithMetadataPlugin("postgres"),
		WithArchive(true),
		WithPollInterval(2*time.Second),
		WithPollLimit(50),
		WithShutdownTimeout(5*time.Second),
		WithTracing(true),
		WithTracingStdout(true),
	)
	assert.Equal(t, programID, cfg.programID)
	assert.Equal(t, payer, cfg.payer)
	assert.Equal(t, "http://node:8899", cfg.rpcURL)
	assert.Equal(t, "finalized", cfg.commitment)
	assert.Equal(t, "/data", cfg.dataDir)
	assert.Equal(t, "gcs", cfg.blobPlugin)
	assert.Equal(t, "postgres", cfg.metadataPlugin)
	assert.True(t, cfg.archive)
	assert.Equal(t, 2*time.Second, cfg.pollInterval)
	assert.Equal(t, 50, cfg.pollLimit)
	assert.Equal(t, 5*time.Second, cfg.shutdownTimeout)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
	require.NoError(t, cfg.validate())
}

func TestConfigValidate(t *testing.T) {
	testDefs := []struct {
		name    string
		opts    []ConfigOptionFunc
		wantErr bool
	}{
		{
			name:    "missing program",
			opts:    []ConfigOptionFunc{WithRPCURL("http://node:8899")},
			wantErr: true,
		},
		{
			name:    "missing rpc url",
			opts:    []ConfigOptionFunc{WithProgramID(testutil.TestKey(1))},
			wantErr: true,
		},
		{
			name: "source instead of rpc url",
			opts: []ConfigOptionFunc{
				WithProgramID(testutil.TestKey(1)),
				WithTransactionSource(&fakeSource{}),
			},
		},
		{
			name: "negative poll limit",
			opts: []ConfigOptionFunc{
				WithProgramID(testutil.TestKey(1)),
				WithRPCURL("http://node:8899"),
				WithPollLimit(-1),
			},
			wantErr: true,
		},
		{
			name: "negative poll interval",
			opts: []ConfigOptionFunc{
				WithProgramID(testutil.TestKey(1)),
				WithRPCURL("http://node:8899"),
				WithPollInterval(-time.Second),
			},
			wantErr: true,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			cfg := NewConfig(testDef.opts...)
			err := cfg.validate()
			if testDef.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
