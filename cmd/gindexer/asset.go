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
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/indexer"
	"github.com/blinklabs-io/gindexer/solana"
	"github.com/spf13/cobra"
)

func assetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Query indexed assets",
	}

	cmd.AddCommand(assetGetCommand())
	cmd.AddCommand(assetListCommand(
		"owner <authority>",
		"List the assets an authority owns",
		func(idx *indexer.Indexer, arg string) ([]models.Asset, error) {
			return idx.FetchForOwner(arg)
		},
	))
	cmd.AddCommand(assetListCommand(
		"members <group>",
		"List the assets that reference a group",
		func(idx *indexer.Indexer, arg string) ([]models.Asset, error) {
			return idx.FetchGroupMembers(arg)
		},
	))
	cmd.AddCommand(assetListCommand(
		"items <collection>",
		"List the items of a collection",
		func(idx *indexer.Indexer, arg string) ([]models.Asset, error) {
			return idx.FetchCollectionItems(arg)
		},
	))
	cmd.AddCommand(assetListCommand(
		"subkind <collection|metadata|hex>",
		"List the assets of a sub-kind",
		func(idx *indexer.Indexer, arg string) ([]models.Asset, error) {
			disc, err := parseSubkind(arg)
			if err != nil {
				return nil, err
			}
			return idx.FetchBySubkind(disc)
		},
	))
	cmd.AddCommand(assetCollectionsCommand())
	cmd.AddCommand(assetDataCommand())

	return cmd
}

func parseSubkind(arg string) (solana.Discriminator, error) {
	switch arg {
	case "collection":
		return indexer.CollectionSubkind, nil
	case "metadata":
		return indexer.MetadataSubkind, nil
	}
	b, err := hex.DecodeString(arg)
	if err != nil {
		return solana.Discriminator{}, fmt.Errorf("invalid sub-kind %q: %w", arg, err)
	}
	disc, ok := solana.DiscriminatorFromBytes(b)
	if !ok || len(b) != solana.DiscriminatorSize {
		return solana.Discriminator{}, fmt.Errorf("invalid sub-kind %q: need 8 bytes", arg)
	}
	return disc, nil
}

func assetGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <asset-id>",
		Short: "Show a single asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openService(cmd)
			if err != nil {
				return err
			}
			asset, err := svc.Indexer().FetchByID(args[0])
			if err == nil && asset == nil {
				err = fmt.Errorf("%w: %s", indexer.ErrNotFound, args[0])
			}
			if err == nil {
				err = writeJSON(cmd.OutOrStdout(), newAssetView(asset))
			}
			return errors.Join(err, svc.Stop())
		},
	}
	return cmd
}

func assetListCommand(
	use string,
	short string,
	fetch func(*indexer.Indexer, string) ([]models.Asset, error),
) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openService(cmd)
			if err != nil {
				return err
			}
			assets, err := fetch(svc.Indexer(), args[0])
			if err == nil {
				err = writeJSON(cmd.OutOrStdout(), newAssetViews(assets))
			}
			return errors.Join(err, svc.Stop())
		},
	}
	return cmd
}

func assetCollectionsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections [authority]",
		Short: "List collections, optionally only those of an authority",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var authority string
			if len(args) > 0 {
				authority = args[0]
			}
			svc, _, err := openService(cmd)
			if err != nil {
				return err
			}
			assets, err := svc.Indexer().FetchCollections(authority)
			if err == nil {
				err = writeJSON(cmd.OutOrStdout(), newAssetViews(assets))
			}
			return errors.Join(err, svc.Stop())
		},
	}
	return cmd
}

func assetDataCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data <asset-id>",
		Short: "Show an asset with the fields derived by its program",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := openService(cmd)
			if err != nil {
				return err
			}
			resolver, err := svc.Resolver()
			if err == nil {
				var asset *indexer.AssetWithData
				asset, err = svc.Indexer().FetchAssetWithData(
					cmd.Context(),
					args[0],
					resolver,
				)
				if err == nil {
					err = writeJSON(
						cmd.OutOrStdout(),
						newAssetWithDataView(asset),
					)
				}
			}
			return errors.Join(err, svc.Stop())
		},
	}
	return cmd
}
