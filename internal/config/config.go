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

// Package config loads the service configuration from a YAML file and the
// environment.
package config

import (
	"context"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/blinklabs-io/gindexer/database/plugin"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "gindexer.config"

const (
	DefaultBlobPlugin      = "badger"
	DefaultMetadataPlugin  = "sqlite"
	DefaultShutdownTimeout = "30s"
	DefaultPollInterval    = "5s"
	DefaultCommitment      = "confirmed"

	envPrefix = "gindexer"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type tempConfig struct {
	Config   *Config                   `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	ProgramID       string `yaml:"programId"       split_words:"true"`
	DatabasePath    string `yaml:"databasePath"    split_words:"true"`
	MetadataPlugin  string `yaml:"metadataPlugin"  envconfig:"GINDEXER_DATABASE_METADATA_PLUGIN"`
	BlobPlugin      string `yaml:"blobPlugin"      envconfig:"GINDEXER_DATABASE_BLOB_PLUGIN"`
	RpcUrl          string `yaml:"rpcUrl"          split_words:"true"`
	Commitment      string `yaml:"commitment"`
	// Payer is the fee payer named in simulated calls. It never signs.
	Payer           string `yaml:"payer"`
	PollInterval    string `yaml:"pollInterval"    split_words:"true"`
	BindAddr        string `yaml:"bindAddr"        split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout" split_words:"true"`
	PollLimit       int    `yaml:"pollLimit"       split_words:"true"`
	MetricsPort     uint   `yaml:"metricsPort"     split_words:"true"`
	Archive         bool   `yaml:"archive"`
	Tracing         bool   `yaml:"tracing"`
	TracingStdout   bool   `yaml:"tracingStdout"   split_words:"true"`
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		DatabasePath:    ".gindexer",
		MetadataPlugin:  DefaultMetadataPlugin,
		BlobPlugin:      DefaultBlobPlugin,
		RpcUrl:          "http://127.0.0.1:8899",
		Commitment:      DefaultCommitment,
		PollInterval:    DefaultPollInterval,
		PollLimit:       100,
		BindAddr:        "0.0.0.0",
		MetricsPort:     12799,
		ShutdownTimeout: DefaultShutdownTimeout,
		Archive:         true,
	}
}

// GetPollInterval returns the parsed poll interval
func (c *Config) GetPollInterval() (time.Duration, error) {
	return parseDuration("pollInterval", c.PollInterval)
}

// GetShutdownTimeout returns the parsed shutdown timeout
func (c *Config) GetShutdownTimeout() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout)
}

func parseDuration(name string, value string) (time.Duration, error) {
	ret, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if ret <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", name, value)
	}
	return ret, nil
}

// Validate checks the fields that every command needs
func (c *Config) Validate() error {
	if _, err := c.GetPollInterval(); err != nil {
		return err
	}
	if _, err := c.GetShutdownTimeout(); err != nil {
		return err
	}
	if c.PollLimit < 1 || c.PollLimit > 1000 {
		return fmt.Errorf("invalid pollLimit %d: must be between 1 and 1000", c.PollLimit)
	}
	if c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metricsPort %d", c.MetricsPort)
	}
	return nil
}

// LoadConfig builds the configuration from the defaults, then the config
// file, then the environment. Without an explicit file the first of
// ~/.gindexer/gindexer.yaml and /etc/gindexer/gindexer.yaml that exists is
// used. Plugin sections of the file are handed to the plugin registry.
func LoadConfig(configFile string) (*Config, error) {
	cfg := DefaultConfig()
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" {
		if err := loadConfigFile(cfg, configFile); err != nil {
			return nil, err
		}
	}
	// Process environment variables
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	// Process plugin environment variables
	if err := plugin.ProcessEnvVars(); err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".gindexer", "gindexer.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath
		}
	}
	systemPath := "/etc/gindexer/gindexer.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath
	}
	return ""
}

func loadConfigFile(cfg *Config, configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	if err := yaml.Unmarshal(buf, &tempCfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	if tempCfg.Config != nil {
		// Overlay config section onto the defaults
		configBytes, err := yaml.Marshal(tempCfg.Config)
		if err != nil {
			return fmt.Errorf("error re-marshalling config: %w", err)
		}
		if err := yaml.Unmarshal(configBytes, cfg); err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else if err := yaml.Unmarshal(buf, cfg); err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, section, err := pluginSection("blob", tempCfg.Database.Blob)
			if err != nil {
				return err
			}
			if name != "" {
				cfg.BlobPlugin = name
			}
			mergeSection(pluginConfig, "blob", section)
		}
		if tempCfg.Database.Metadata != nil {
			name, section, err := pluginSection("metadata", tempCfg.Database.Metadata)
			if err != nil {
				return err
			}
			if name != "" {
				cfg.MetadataPlugin = name
			}
			mergeSection(pluginConfig, "metadata", section)
		}
	}
	if len(pluginConfig) > 0 {
		if err := plugin.ProcessConfig(pluginConfig); err != nil {
			return fmt.Errorf("error processing plugin config: %w", err)
		}
	}
	return nil
}

// pluginSection splits a database subsection into the selected plugin name
// and the per-plugin option maps
func pluginSection(
	kind string,
	raw map[string]any,
) (string, map[string]map[string]any, error) {
	var name string
	ret := make(map[string]map[string]any)
	for k, v := range raw {
		if k == "plugin" {
			pluginName, ok := v.(string)
			if !ok {
				return "", nil, fmt.Errorf(
					"database %s plugin: expected string, got %T",
					kind,
					v,
				)
			}
			name = pluginName
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			stringAnyMap := make(map[string]any, len(val))
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			return "", nil, fmt.Errorf(
				"database %s entry %q: expected map, got %T",
				kind,
				k,
				v,
			)
		}
	}
	return name, ret, nil
}

func mergeSection(
	pluginConfig map[string]map[string]map[string]any,
	kind string,
	section map[string]map[string]any,
) {
	if pluginConfig[kind] == nil {
		pluginConfig[kind] = section
		return
	}
	maps.Copy(pluginConfig[kind], section)
}
