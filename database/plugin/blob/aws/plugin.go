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

package aws

import (
	"sync"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin"
)

var (
	cmdlineOptions struct {
		url            string
		endpoint       string
		bucket         string
		region         string
		prefix         string
		timeoutSeconds uint64
	}
	cmdlineOptionsMutex sync.RWMutex
)

func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.url = ""
	cmdlineOptions.endpoint = ""
	cmdlineOptions.bucket = ""
	cmdlineOptions.region = ""
	cmdlineOptions.prefix = ""
	cmdlineOptions.timeoutSeconds = uint64(defaultTimeout / time.Second)
}

func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeBlob,
			Name:               "s3",
			Description:        "transaction archive in an S3 bucket",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "url",
					Type:         plugin.PluginOptionTypeString,
					Description:  "s3://<bucket>[/<prefix>], replaces bucket and prefix",
					DefaultValue: "",
					Dest:         &cmdlineOptions.url,
				},
				{
					Name:         "endpoint",
					Type:         plugin.PluginOptionTypeString,
					Description:  "S3-compatible endpoint URL",
					DefaultValue: "",
					Dest:         &cmdlineOptions.endpoint,
				},
				{
					Name:         "bucket",
					Type:         plugin.PluginOptionTypeString,
					Description:  "bucket name",
					DefaultValue: "",
					Dest:         &cmdlineOptions.bucket,
				},
				{
					Name:         "region",
					Type:         plugin.PluginOptionTypeString,
					Description:  "region, taken from the AWS environment when empty",
					DefaultValue: "",
					Dest:         &cmdlineOptions.region,
				},
				{
					Name:         "prefix",
					Type:         plugin.PluginOptionTypeString,
					Description:  "object key prefix",
					DefaultValue: "",
					Dest:         &cmdlineOptions.prefix,
				},
				{
					Name:         "timeout-seconds",
					Type:         plugin.PluginOptionTypeUint,
					Description:  "deadline for each S3 request",
					DefaultValue: uint64(defaultTimeout / time.Second),
					Dest:         &cmdlineOptions.timeoutSeconds,
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
	cfg.Region = cmdlineOptions.region
	cfg.Endpoint = cmdlineOptions.endpoint
	// #nosec G115
	cfg.Timeout = time.Duration(min(cmdlineOptions.timeoutSeconds, 1<<20)) * time.Second
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
