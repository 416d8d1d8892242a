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

package postgres

import (
	"sync"

	"github.com/blinklabs-io/gindexer/database/plugin"
)

var (
	// cmdlineConfig is populated by the plugin registry from flags and
	// GINDEXER_DATABASE_METADATA_POSTGRES_* variables
	cmdlineConfig         Config
	cmdlineMaxConnections uint64
	cmdlineMutex          sync.RWMutex
)

func initCmdlineOptions() {
	cmdlineMutex.Lock()
	defer cmdlineMutex.Unlock()
	cmdlineConfig = Config{
		Host:     "localhost",
		Port:     defaultPort,
		User:     "postgres",
		Database: "gindexer",
		SSLMode:  "disable",
		TimeZone: "UTC",
	}
	cmdlineMaxConnections = defaultMaxConnections
}

func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "postgres",
			Description:        "asset and cursor tables in Postgres",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "host",
					Type:         plugin.PluginOptionTypeString,
					Description:  "server host",
					DefaultValue: "localhost",
					Dest:         &cmdlineConfig.Host,
				},
				{
					Name:         "port",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "server port",
					DefaultValue: uint64(defaultPort),
					Dest:         &cmdlineConfig.Port,
				},
				{
					Name:         "user",
					Type:         plugin.PluginOptionTypeString,
					Description:  "login role",
					DefaultValue: "postgres",
					Dest:         &cmdlineConfig.User,
				},
				{
					// No default: credentials must be supplied
					Name:         "password",
					Type:         plugin.PluginOptionTypeString,
					Description:  "login password",
					DefaultValue: "",
					Dest:         &cmdlineConfig.Password,
				},
				{
					Name:         "database",
					Type:         plugin.PluginOptionTypeString,
					Description:  "database holding the indexer tables",
					DefaultValue: "gindexer",
					Dest:         &cmdlineConfig.Database,
				},
				{
					Name:         "ssl-mode",
					Type:         plugin.PluginOptionTypeString,
					Description:  "libpq sslmode",
					DefaultValue: "disable",
					Dest:         &cmdlineConfig.SSLMode,
				},
				{
					Name:         "timezone",
					Type:         plugin.PluginOptionTypeString,
					Description:  "session TimeZone",
					DefaultValue: "UTC",
					Dest:         &cmdlineConfig.TimeZone,
				},
				{
					Name:         "dsn",
					Type:         plugin.PluginOptionTypeString,
					Description:  "complete connection string, replaces the fields above",
					DefaultValue: "",
					Dest:         &cmdlineConfig.DSN,
				},
				{
					Name:         "max-connections",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "upper bound on open connections",
					DefaultValue: uint64(defaultMaxConnections),
					Dest:         &cmdlineMaxConnections,
				},
			},
		},
	)
}

func configFromCmdlineOptions() Config {
	cmdlineMutex.RLock()
	defer cmdlineMutex.RUnlock()
	cfg := cmdlineConfig
	cfg.MaxConnections = int(min(cmdlineMaxConnections, 1<<16)) // #nosec G115
	cfg.Logger = plugin.Logger()
	return cfg
}

func NewFromCmdlineOptions() plugin.Plugin {
	p, err := New(configFromCmdlineOptions())
	if err != nil {
		// Surface the error from Start
		return plugin.NewErrorPlugin(err)
	}
	return p
}
