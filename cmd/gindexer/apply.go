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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/blinklabs-io/gindexer"
	"github.com/blinklabs-io/gindexer/indexer"
	"github.com/blinklabs-io/gindexer/internal/node"
	"github.com/blinklabs-io/gindexer/solana"
	"github.com/spf13/cobra"
)

type applyResult struct {
	Signature string `json:"signature"`
	Source    string `json:"source"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
}

// openService loads the config of cmd and opens a service for a one-shot
// command. Logs go to stderr so stdout only carries command output.
func openService(cmd *cobra.Command) (*gindexer.Service, *slog.Logger, error) {
	cfg, err := configFromCmd(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := commonRun(os.Stderr)
	svc, err := node.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return svc, logger, nil
}

// applyRecord applies tx and reports the outcome. Only store failures are
// returned.
func applyRecord(
	ctx context.Context,
	idx *indexer.Indexer,
	logger *slog.Logger,
	source string,
	tx *solana.TransactionRecord,
) (applyResult, error) {
	ret := applyResult{
		Signature: tx.Signature(),
		Source:    source,
	}
	err := idx.Apply(ctx, tx)
	if err == nil {
		return ret, nil
	}
	ret.Error = err.Error()
	ret.ErrorKind = indexer.ErrorKind(err)
	if indexer.IsFatal(err) {
		return ret, err
	}
	logger.Warn(
		"transaction applied with errors",
		"component", programName,
		"signature", ret.Signature,
		"source", source,
		"error", err,
	)
	return ret, nil
}

func readRecord(path string) (*solana.TransactionRecord, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return solana.ParseTransactionRecord(data)
}

func applyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <file>...",
		Short: "Apply transaction records in getTransaction JSON form, in order ('-' reads stdin)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Parse everything up front so a bad file applies nothing
			records := make([]*solana.TransactionRecord, 0, len(args))
			for _, path := range args {
				tx, err := readRecord(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				records = append(records, tx)
			}
			svc, logger, err := openService(cmd)
			if err != nil {
				return err
			}
			results := make([]applyResult, 0, len(records))
			for idx, tx := range records {
				result, applyErr := applyRecord(
					cmd.Context(),
					svc.Indexer(),
					logger,
					args[idx],
					tx,
				)
				results = append(results, result)
				if applyErr != nil {
					err = applyErr
					break
				}
			}
			return errors.Join(
				err,
				writeJSON(cmd.OutOrStdout(), results),
				svc.Stop(),
			)
		},
	}
	return cmd
}

func fetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <signature>...",
		Short: "Fetch transactions from the chain node and apply them, in order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, logger, err := openService(cmd)
			if err != nil {
				return err
			}
			client := svc.RPC()
			if client == nil {
				return errors.Join(
					errors.New("no RPC URL configured"),
					svc.Stop(),
				)
			}
			results := make([]applyResult, 0, len(args))
			for _, sig := range args {
				var tx *solana.TransactionRecord
				tx, err = client.GetTransaction(cmd.Context(), sig)
				if err != nil {
					err = fmt.Errorf("fetch %s: %w", sig, err)
					break
				}
				if tx == nil {
					err = fmt.Errorf("fetch %s: transaction not found", sig)
					break
				}
				var result applyResult
				result, err = applyRecord(
					cmd.Context(),
					svc.Indexer(),
					logger,
					"rpc",
					tx,
				)
				results = append(results, result)
				if err != nil {
					break
				}
			}
			return errors.Join(
				err,
				writeJSON(cmd.OutOrStdout(), results),
				svc.Stop(),
			)
		},
	}
	return cmd
}
