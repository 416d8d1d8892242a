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

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/gindexer/database/plugin"
	"github.com/blinklabs-io/gindexer/internal/config"
	"github.com/blinklabs-io/gindexer/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "gindexer"

var globalFlags struct {
	configFile string
	debug      bool
}

// commonRun installs a JSON logger writing to w as the default and sizes
// GOMAXPROCS to the container quota
func commonRun(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if globalFlags.debug {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	}
	logger := slog.New(slog.NewJSONHandler(w, opts))
	slog.SetDefault(logger)
	maxprocsLog := func(format string, args ...any) {
		logger.Debug(fmt.Sprintf(format, args...), "component", programName)
	}
	if _, err := maxprocs.Set(maxprocs.Logger(maxprocsLog)); err != nil {
		logger.Warn(
			"failed to set GOMAXPROCS",
			"component", programName,
			"error", err,
		)
	}
	logger.Debug(
		"starting "+programName,
		"component", programName,
		"version", version.GetVersionString(),
	)
	return logger
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(
				cmd.OutOrStdout(),
				programName,
				version.GetVersionString(),
			)
		},
	}
}

// configFromCmd returns the config stored by the root pre-run hook
func configFromCmd(cmd *cobra.Command) (*config.Config, error) {
	if cfg := config.FromContext(cmd.Context()); cfg != nil {
		return cfg, nil
	}
	return nil, errors.New("no config found in context")
}

// loadConfig reads the config file and applies the global flags that were
// set explicitly on the command line
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(globalFlags.configFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Root().PersistentFlags()
	overrides := []struct {
		flag string
		dest *string
	}{
		{"blob", &cfg.BlobPlugin},
		{"metadata", &cfg.MetadataPlugin},
		{"program", &cfg.ProgramID},
		{"rpc-url", &cfg.RpcUrl},
	}
	for _, o := range overrides {
		if !flags.Changed(o.flag) {
			continue
		}
		if *o.dest, err = flags.GetString(o.flag); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   programName,
		Short: "Index the change events emitted by a program",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFromCmd(cmd)
			if err != nil {
				return err
			}
			return serveRun(cfg)
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	flags.StringVar(&globalFlags.configFile, "config", "", "path to config file")
	flags.StringP("blob", "b", config.DefaultBlobPlugin, "blob store plugin, 'list' to show available")
	flags.StringP("metadata", "m", config.DefaultMetadataPlugin, "metadata store plugin, 'list' to show available")
	flags.StringP("program", "p", "", "program ID to index")
	flags.String("rpc-url", "", "JSON-RPC endpoint of the chain node")
	if err := plugin.PopulateCmdlineOptions(flags); err != nil {
		fmt.Fprintf(os.Stderr, "failed to add plugin flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		blobPlugin, _ := flags.GetString("blob")
		metadataPlugin, _ := flags.GetString("metadata")
		if listed, out := listPlugins(blobPlugin, metadataPlugin); listed {
			fmt.Fprint(cmd.OutOrStdout(), out)
			return errPluginsListed
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	}

	rootCmd.AddCommand(
		serveCommand(),
		applyCommand(),
		fetchCommand(),
		assetCommand(),
		reindexCommand(),
		resetCommand(),
		listCommand(),
		versionCommand(),
	)
	return rootCmd
}

func main() {
	cmd := rootCommand()
	cmd.SilenceErrors = true
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, errPluginsListed) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
