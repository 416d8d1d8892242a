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

package solana_test

import (
	"encoding/base64"
	"testing"

	"github.com/blinklabs-io/gindexer/solana"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReturnDataLog(t *testing.T) {
	programID := testKey(4)
	payload := []byte(`{"name":"test"}`)
	logs := []string{
		"Program " + programID.String() + " invoke [1]",
		"Program log: Instruction: GetAssetData",
		"Program return: " + programID.String() + " " +
			base64.StdEncoding.EncodeToString(payload),
		"Program " + programID.String() + " success",
	}
	got, err := solana.ParseReturnDataLog(logs, programID)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	_, err = solana.ParseReturnDataLog(logs, testKey(5))
	assert.ErrorIs(t, err, solana.ErrProgramMismatch)

	var decodeErr *solana.DecodeError
	_, err = solana.ParseReturnDataLog(logs[:1], programID)
	assert.ErrorAs(t, err, &decodeErr)
	_, err = solana.ParseReturnDataLog(logs[:2], programID)
	assert.ErrorAs(t, err, &decodeErr)
}

func TestParseReturnDataLogMalformed(t *testing.T) {
	programID := testKey(4)
	b64 := base64.StdEncoding.EncodeToString([]byte(`{}`))
	testDefs := []struct {
		name string
		line string
	}{
		{
			name: "program before marker",
			line: "Program " + programID.String() + " return: " + b64,
		},
		{
			name: "missing data",
			line: "Program return: " + programID.String(),
		},
		{
			name: "bad base64",
			line: "Program return: " + programID.String() + " !!!",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			logs := []string{testDef.line, "Program " + programID.String() + " success"}
			_, err := solana.ParseReturnDataLog(logs, programID)
			var decodeErr *solana.DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.NotErrorIs(t, err, solana.ErrProgramMismatch)
		})
	}
}
