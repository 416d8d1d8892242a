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

package gcs

import (
	"sync"

	"github.com/blinklabs-io/gindexer/database/plugin"
)

var (
	cmdlineOptions struct {
		url             string
		bucket          string
		credentialsFile string
		prefix          string
	}
	cmdlineOptionsMutex sync.RWMutex
)

func init() {
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "gcs",
			Description:        "transaction archive in a Google Cloud Storage bucket",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "url",
					Type:         plugin.PluginOptionTypeString,
					Description:  "gcs://<bucket>[/<prefix>], replaces bucket and prefix",
					DefaultValue: "",
					Dest:         &cmdlineOptions.url,
				},
				{
					Name:         "bucket",
					Type:         plugin.PluginOptionTypeString,
					Description:  "bucket name",
					DefaultValue: "",
					Dest:         &cmdlineOptions.bucket,
				},
				{
					Name:         "credentials-file",
					Type:         plugin.PluginOptionTypeString,
					Description:  "service account key file, application default credentials when empty",
					DefaultValue: "",
					Dest:         &cmdlineOptions.credentialsFile,
				},
				{
					Name:         "prefix",
					Type:         plugin.PluginOptionTypeString,
					Description:  "object name prefix",
					DefaultValue: "",
					Dest:         &cmdlineOptions.prefix,
				},
			},
		},
	)
}

func configFromCmdlineOptions() (Config, error) {
	cmdlineOptionsMutex.RLock()
	defer cmdlineOptionsMutex.RUnlock()
	cfg := Config{
		Bucket: cmdlineOptions.bucket,
		Prefix: cmdlineOptions.prefix,
	}
	if cmdlineOptions.url != "" {
		var err error
		if cfg, err = ParseURL(cmdlineOptions.url); err != nil {
			return Config{}, err
		}
	}
	cfg.CredentialsFile = cmdlineOptions.credentialsFile
	cfg.Logger = plugin.Logger()
	cfg.PromRegistry = plugin.PromRegistry()
	return cfg, nil
}

func NewFromCmdlineOptions() plugin.Plugin {
	cfg, err := configFromCmdlineOptions()
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	p, err := New(cfg)
	if err != nil {
		return plugin.NewErrorPlugin(err)
	}
	return p
}
