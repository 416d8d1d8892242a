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

	"github.com/spf13/cobra"
)

func reindexCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the program's assets from the transaction archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := openService(cmd)
			if err != nil {
				return err
			}
			count, err := svc.Indexer().Reindex(cmd.Context())
			if err == nil {
				logger.Info(
					fmt.Sprintf("replayed %d archived transactions", count),
					"component", programName,
				)
				fmt.Fprintf(cmd.OutOrStdout(), "replayed %d transactions\n", count)
			}
			return errors.Join(err, svc.Stop())
		},
	}
	return cmd
}

func resetCommand() *cobra.Command {
	var teardown bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Remove the program's assets and sync cursor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := openService(cmd)
			if err != nil {
				return err
			}
			idx := svc.Indexer()
			if teardown {
				// Drops every program's tables; the archive is kept
				err = idx.Database().Teardown()
			} else {
				var count int64
				count, err = idx.Clear()
				if err == nil {
					logger.Info(
						fmt.Sprintf("removed %d assets", count),
						"component", programName,
					)
					fmt.Fprintf(cmd.OutOrStdout(), "removed %d assets\n", count)
				}
			}
			return errors.Join(err, svc.Stop())
		},
	}
	cmd.Flags().
		BoolVar(&teardown, "teardown", false, "drop the metadata tables of every program")
	return cmd
}
