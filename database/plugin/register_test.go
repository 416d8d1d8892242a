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
	"errors"
	"testing"

	"github.com/blinklabs-io/gindexer/database/plugin"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPlugin struct{}

func (m *mockPlugin) Start() error { return nil }
func (m *mockPlugin) Stop() error  { return nil }

type mockOptions struct {
	name    string
	enabled bool
	count   int
	size    uint64
}

func registerMock(t *testing.T, pluginType plugin.PluginType) (string, *mockOptions) {
	t.Helper()
	opts := &mockOptions{}
	name := "mock-" + t.Name()
	plugin.Register(plugin.PluginEntry{
		Type:               pluginType,
		Name:               name,
		Description:        "mock plugin",
		NewFromOptionsFunc: func() plugin.Plugin { return &mockPlugin{} },
		Options: []plugin.PluginOption{
			{Name: "name", Type: plugin.PluginOptionTypeString, DefaultValue: "def", Dest: &opts.name},
			{Name: "enabled", Type: plugin.PluginOptionTypeBool, Dest: &opts.enabled},
			{Name: "count", Type: plugin.PluginOptionTypeInt, DefaultValue: 3, Dest: &opts.count},
			{Name: "size", Type: plugin.PluginOptionTypeUint, Dest: &opts.size},
		},
	})
	return name, opts
}

func TestRegisterAndGetPlugins(t *testing.T) {
	blobName, _ := registerMock(t, plugin.PluginTypeBlob)

	p := plugin.GetPlugin(plugin.PluginTypeBlob, blobName)
	require.NotNil(t, p)
	assert.IsType(t, &mockPlugin{}, p)
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeMetadata, blobName))
	assert.Nil(t, plugin.GetPlugin(plugin.PluginTypeBlob, "non-existent"))

	found := false
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeBlob) {
		if entry.Name == blobName {
			found = true
		}
	}
	assert.True(t, found, "plugin not in GetPlugins list")
	for _, entry := range plugin.GetPlugins(plugin.PluginTypeMetadata) {
		assert.NotEqual(t, blobName, entry.Name)
	}
}

func TestPopulateCmdlineOptions(t *testing.T) {
	name, opts := registerMock(t, plugin.PluginTypeMetadata)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	require.NoError(t, plugin.PopulateCmdlineOptions(fs))
	assert.Equal(t, "def", opts.name)
	assert.Equal(t, 3, opts.count)
	require.NoError(t, fs.Parse([]string{
		"--metadata-" + name + "-name=flag",
		"--metadata-" + name + "-enabled",
		"--metadata-" + name + "-size=42",
	}))
	assert.Equal(t, "flag", opts.name)
	assert.True(t, opts.enabled)
	assert.Equal(t, uint64(42), opts.size)
}

func TestProcessConfig(t *testing.T) {
	name, opts := registerMock(t, plugin.PluginTypeBlob)
	err := plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {
			name: {
				"name":    "from-config",
				"count":   7,
				"size":    1024,
				"unknown": "ignored",
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "from-config", opts.name)
	assert.Equal(t, 7, opts.count)
	assert.Equal(t, uint64(1024), opts.size)

	err = plugin.ProcessConfig(map[string]map[string]map[string]any{
		"blob": {name: {"enabled": "yes"}},
	})
	assert.Error(t, err)
}

func TestProcessEnvVars(t *testing.T) {
	// Underscores in the env name stand in for dashes
	name, opts := registerMock(t, plugin.PluginTypeBlob)
	prefix := "GINDEXER_DATABASE_BLOB_MOCK_TESTPROCESSENVVARS_"
	require.Equal(t, "mock-TestProcessEnvVars", name)
	t.Setenv(prefix+"NAME", "from-env")
	t.Setenv(prefix+"ENABLED", "true")
	t.Setenv(prefix+"COUNT", "11")
	require.NoError(t, plugin.ProcessEnvVars())
	assert.Equal(t, "from-env", opts.name)
	assert.True(t, opts.enabled)
	assert.Equal(t, 11, opts.count)

	t.Setenv(prefix+"SIZE", "-4")
	assert.Error(t, plugin.ProcessEnvVars())
}

func TestErrorPlugin(t *testing.T) {
	testErr := errors.New("boom")
	p := plugin.NewErrorPlugin(testErr)
	assert.ErrorIs(t, p.Start(), testErr)
	assert.NoError(t, p.Stop())
}
