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
	"strings"

	"github.com/blinklabs-io/gindexer/database/plugin"
	"github.com/spf13/cobra"
)

// errPluginsListed stops the command after --blob list or --metadata list
var errPluginsListed = errors.New("plugins listed")

type pluginSection struct {
	kind  plugin.PluginType
	title string
}

var pluginSections = []pluginSection{
	{kind: plugin.PluginTypeBlob, title: "blob"},
	{kind: plugin.PluginTypeMetadata, title: "metadata"},
}

func writePlugins(w io.Writer, kind plugin.PluginType) {
	for _, p := range plugin.GetPlugins(kind) {
		fmt.Fprintf(w, "  %s: %s\n", p.Name, p.Description)
	}
}

// listPlugins renders the sections whose flag value is "list". The bool
// result reports whether anything was requested.
func listPlugins(blobPlugin, metadataPlugin string) (bool, string) {
	requested := map[plugin.PluginType]bool{
		plugin.PluginTypeBlob:     blobPlugin == "list",
		plugin.PluginTypeMetadata: metadataPlugin == "list",
	}
	var sb strings.Builder
	for _, section := range pluginSections {
		if !requested[section.kind] {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "Available %s plugins:\n", section.title)
		writePlugins(&sb, section.kind)
	}
	return sb.Len() > 0, sb.String()
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available storage plugins",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			_, out := listPlugins("list", "list")
			fmt.Fprint(cmd.OutOrStdout(), out)
		},
	}
}
