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

package indexer

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/blinklabs-io/gindexer/rpc"
	"github.com/blinklabs-io/gindexer/solana"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollLimit    = 100
)

// TransactionSource lists and fetches the program's transactions
type TransactionSource interface {
	GetSignaturesForAddress(
		ctx context.Context,
		address solana.PublicKey,
		opts rpc.SignaturesOptions,
	) ([]rpc.SignatureInfo, error)
	GetTransaction(
		ctx context.Context,
		signature string,
	) (*solana.TransactionRecord, error)
}

type PollerConfig struct {
	Source   TransactionSource
	Interval time.Duration
	// Limit is the page size of signature listings
	Limit int
}

// Poller feeds the indexer with the program's new transactions, oldest first,
// and advances the sync cursor after each one
type Poller struct {
	indexer *Indexer
	config  PollerConfig
}

func NewPoller(indexer *Indexer, cfg PollerConfig) (*Poller, error) {
	if cfg.Source == nil {
		return nil, errors.New("no transaction source provided")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultPollLimit
	}
	return &Poller{
		indexer: indexer,
		config:  cfg,
	}, nil
}

// Run polls until ctx is done or a fatal error occurs. It returns nil when
// ctx is canceled.
func (p *Poller) Run(ctx context.Context) error {
	logger := p.indexer.config.Logger
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()
	for {
		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if IsFatal(err) {
				logger.Error(
					"poller stopped",
					"component", "indexer",
					"error", err,
				)
				return err
			}
			logger.Warn(
				"poll failed",
				"component", "indexer",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce handles every transaction after the cursor and returns how many
// were handled. A transaction the node cannot return yet ends the round
// without advancing past it.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	logger := p.indexer.config.Logger
	cursor, err := p.indexer.Cursor()
	if err != nil {
		return 0, err
	}
	sigs, err := p.pending(ctx, cursor)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, sig := range sigs {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if !sig.Failed() {
			tx, err := p.config.Source.GetTransaction(ctx, sig.Signature)
			if err != nil {
				return count, fmt.Errorf("fetch transaction %s: %w", sig.Signature, err)
			}
			if tx == nil {
				logger.Debug(
					"transaction not available yet",
					"component", "indexer",
					"signature", sig.Signature,
				)
				return count, nil
			}
			if err := p.indexer.Apply(ctx, tx); err != nil {
				if IsFatal(err) {
					return count, err
				}
				logger.Warn(
					"applied transaction with errors",
					"component", "indexer",
					"signature", sig.Signature,
					"slot", sig.Slot,
					"kind", ErrorKind(err),
					"error", err,
				)
			}
		}
		if err := p.indexer.SetCursor(sig.Signature); err != nil {
			return count, err
		}
		p.indexer.metrics.pollerLastSlot.Set(float64(sig.Slot))
		count++
	}
	if count > 0 {
		logger.Info(
			"indexed transactions",
			"component", "indexer",
			"count", count,
			"cursor", sigs[count-1].Signature,
		)
	}
	return count, nil
}

// pending lists the signatures after cursor, oldest first
func (p *Poller) pending(
	ctx context.Context,
	cursor string,
) ([]rpc.SignatureInfo, error) {
	var ret []rpc.SignatureInfo
	opts := rpc.SignaturesOptions{
		Until: cursor,
		Limit: p.config.Limit,
	}
	for {
		page, err := p.config.Source.GetSignaturesForAddress(
			ctx,
			p.indexer.config.ProgramID,
			opts,
		)
		if err != nil {
			return nil, fmt.Errorf("list signatures: %w", err)
		}
		ret = append(ret, page...)
		if len(page) < p.config.Limit {
			break
		}
		opts.Before = page[len(page)-1].Signature
	}
	slices.Reverse(ret)
	return ret, nil
}
