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

package plugin_test

import (
	"testing"

	"github.com/blinklabs-io/gindexer/database/plugin"
	_ "github.com/blinklabs-io/gindexer/database/plugin/blob/badger"
	_ "github.com/blinklabs-io/gindexer/database/plugin/metadata/sqlite"
	"github.com/blinklabs-io/gindexer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mutates global plugin option state, so not parallel
func TestSetPluginOption(t *testing.T) {
	const (
		blob = plugin.PluginTypeBlob
		meta = plugin.PluginTypeMetadata
	)
	testCases := []struct {
		name    string
		kind    plugin.PluginType
		plugin  string
		option  string
		value   any
		wantErr bool
	}{
		{"string", meta, config.DefaultMetadataPlugin, "data-dir", "", false},
		{"string given int", meta, config.DefaultMetadataPlugin, "data-dir", 123, true},
		{"unknown option ignored", meta, config.DefaultMetadataPlugin, "does-not-exist", "x", false},
		{"uint", blob, config.DefaultBlobPlugin, "block-cache-size", uint64(100000000), false},
		{"uint given int", blob, config.DefaultBlobPlugin, "block-cache-size", 5000, false},
		{"uint given negative", blob, config.DefaultBlobPlugin, "block-cache-size", -1, true},
		{"uint given string", blob, config.DefaultBlobPlugin, "block-cache-size", "big", true},
		{"bool", blob, config.DefaultBlobPlugin, "gc", true, false},
		{"unknown plugin", meta, "nonexistent", "data-dir", "x", true},
		// Leaves the blob store in memory for other tests
		{"reset data dir", blob, config.DefaultBlobPlugin, "data-dir", "", false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := plugin.SetPluginOption(tc.kind, tc.plugin, tc.option, tc.value)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStartPluginNotFound(t *testing.T) {
	_, err := plugin.StartPlugin(plugin.PluginTypeBlob, "does-not-exist")
	assert.ErrorContains(t, err, "not found")
}
