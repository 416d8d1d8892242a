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

package badger

import (
	"sync"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin"
)

var (
	cmdlineOptions struct {
		dataDir        string
		blockCacheSize uint64
		indexCacheSize uint64
		gcMinutes      uint64
		gc             bool
	}
	cmdlineOptionsMutex sync.RWMutex
)

func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.dataDir = ".gindexer"
	cmdlineOptions.blockCacheSize = DefaultBlockCacheSize
	cmdlineOptions.indexCacheSize = DefaultIndexCacheSize
	cmdlineOptions.gcMinutes = uint64(DefaultGCInterval / time.Minute)
	cmdlineOptions.gc = true
}

func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "badger",
			Description:        "local badger store for the transaction archive",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "directory for the archive, in-memory when empty",
					DefaultValue: ".gindexer",
					Dest:         &cmdlineOptions.dataDir,
				},
				{
					Name:         "block-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "block cache size in bytes",
					DefaultValue: uint64(DefaultBlockCacheSize),
					Dest:         &cmdlineOptions.blockCacheSize,
				},
				{
					Name:         "index-cache-size",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "index cache size in bytes",
					DefaultValue: uint64(DefaultIndexCacheSize),
					Dest:         &cmdlineOptions.indexCacheSize,
				},
				{
					Name:         "gc",
					Type:         plugin.PluginOptionTypeBool,
					Description:  "reclaim value log space periodically",
					DefaultValue: true,
					Dest:         &cmdlineOptions.gc,
				},
				{
					Name:         "gc-minutes",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "minutes between value log GC runs",
					DefaultValue: uint64(DefaultGCInterval / time.Minute),
					Dest:         &cmdlineOptions.gcMinutes,
				},
			},
		},
	)
}

func configFromCmdlineOptions() Config {
	cmdlineOptionsMutex.RLock()
	defer cmdlineOptionsMutex.RUnlock()
	// #nosec G115
	cfg := Config{
		Logger:         plugin.Logger(),
		PromRegistry:   plugin.PromRegistry(),
		DataDir:        cmdlineOptions.dataDir,
		BlockCacheSize: int64(min(cmdlineOptions.blockCacheSize, 1<<40)),
		IndexCacheSize: int64(min(cmdlineOptions.indexCacheSize, 1<<40)),
		GCInterval:     time.Duration(min(cmdlineOptions.gcMinutes, 1<<20)) * time.Minute,
	}
	if !cmdlineOptions.gc {
		cfg.GCInterval = -1
	}
	return cfg
}

func NewFromCmdlineOptions() plugin.Plugin {
	p, err := New(configFromCmdlineOptions())
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
