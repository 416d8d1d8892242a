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

package sqlite

import (
	"sync"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin"
)

var (
	cmdlineOptions struct {
		dataDir     string
		vacuumHours uint64
	}
	cmdlineOptionsMutex sync.RWMutex
)

func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.dataDir = ".gindexer"
	cmdlineOptions.vacuumHours = uint64(DefaultVacuumInterval / time.Hour)
}

func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "asset and cursor tables in a local SQLite file",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "directory for the database file, in-memory when empty",
					DefaultValue: ".gindexer",
					Dest:         &cmdlineOptions.dataDir,
				},
				{
					Name:         "vacuum-hours",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "hours between VACUUM runs, 0 disables them",
					DefaultValue: uint64(DefaultVacuumInterval / time.Hour),
					Dest:         &cmdlineOptions.vacuumHours,
				},
			},
		},
	)
}

func configFromCmdlineOptions() Config {
	cmdlineOptionsMutex.RLock()
	defer cmdlineOptionsMutex.RUnlock()
	interval := time.Duration(-1)
	if hours := cmdlineOptions.vacuumHours; hours > 0 {
		interval = time.Duration(min(hours, 1<<20)) * time.Hour // #nosec G115
	}
	return Config{
		Logger:         plugin.Logger(),
		DataDir:        cmdlineOptions.dataDir,
		VacuumInterval: interval,
	}
}

func NewFromCmdlineOptions() plugin.Plugin {
	p, err := New(configFromCmdlineOptions())
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
