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

// Package indexer materializes the change events of one program into the
// asset store and answers queries over it.
package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/gindexer/cpievent"
	"github.com/blinklabs-io/gindexer/database"
	"github.com/blinklabs-io/gindexer/database/models"
	"github.com/blinklabs-io/gindexer/event"
	"github.com/blinklabs-io/gindexer/solana"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/gindexer/indexer"

type IndexerConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	PromRegistry prometheus.Registerer
	// Now stamps assets of transactions without a block time
	Now       func() time.Time
	ProgramID solana.PublicKey
	// Archive stores the raw JSON of every applied transaction
	Archive bool
}

// Indexer applies transactions of a single program. Apply calls must not
// overlap; queries may run concurrently with them.
type Indexer struct {
	config    IndexerConfig
	db        *database.Database
	extractor *cpievent.Extractor
	tracer    trace.Tracer
	metrics   indexerMetrics
	programID string
}

// source identifies the transaction an event batch came from
type source struct {
	signature string
	blockTime time.Time
	slot      uint64
}

func NewIndexer(cfg IndexerConfig) (*Indexer, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.ProgramID.IsZero() {
		return nil, errors.New("no program ID provided")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	extractor, err := cpievent.NewExtractor(cfg.ProgramID)
	if err != nil {
		return nil, err
	}
	i := &Indexer{
		config:    cfg,
		db:        cfg.Database,
		extractor: extractor,
		tracer:    otel.Tracer(tracerName),
		programID: cfg.ProgramID.String(),
	}
	i.metrics.init(cfg.PromRegistry)
	cfg.Logger.Debug(
		"indexer ready",
		"component", "indexer",
		"program", i.programID,
		"event_authority", extractor.EventAuthority().String(),
	)
	return i, nil
}

func (i *Indexer) ProgramID() solana.PublicKey {
	return i.config.ProgramID
}

func (i *Indexer) Database() *database.Database {
	return i.db
}

// Apply replays the change events of tx into the store. Failed transactions
// are skipped. Events that reference a missing or duplicate asset are
// reported in the returned error without stopping the batch. A DecodeError
// is returned before any mutation. A StoreError stops the batch and leaves
// the events before it applied.
func (i *Indexer) Apply(ctx context.Context, tx *solana.TransactionRecord) error {
	return i.apply(ctx, tx, nil)
}

func (i *Indexer) apply(
	ctx context.Context,
	tx *solana.TransactionRecord,
	raw []byte,
) (err error) {
	start := time.Now()
	src := source{
		signature: tx.Signature(),
		slot:      tx.Slot,
	}
	if tx.BlockTime != nil {
		src.blockTime = tx.BlockTime.Time().UTC()
	}
	ctx, span := i.tracer.Start(
		ctx,
		"indexer.apply",
		trace.WithAttributes(
			attribute.String("signature", src.signature),
			attribute.Int64("slot", int64(src.slot)), // #nosec G115
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, ErrorKind(err))
		}
		span.End()
	}()
	if tx.Failed() {
		i.metrics.transactionsSkipped.Inc()
		i.config.Logger.Debug(
			"skipping failed transaction",
			"component", "indexer",
			"signature", src.signature,
		)
		return nil
	}
	events, err := i.extractor.ExtractTransaction(tx)
	if err != nil {
		return fmt.Errorf("transaction %s: %w", src.signature, err)
	}
	span.SetAttributes(attribute.Int("events", len(events)))
	// Replays pass the raw archived copy and skip archiving it again
	if i.config.Archive && raw == nil {
		raw, err = json.Marshal(tx)
		if err != nil {
			return fmt.Errorf("encode transaction %s: %w", src.signature, err)
		}
		if err := i.db.ArchiveTransaction(ctx, src.slot, src.signature, raw); err != nil {
			return &StoreError{Op: "archive", AssetID: src.signature, Err: err}
		}
	}
	err = i.applyEvents(ctx, src, events)
	// A store failure or cancellation leaves the batch partially applied
	if IsFatal(err) || ctx.Err() != nil {
		i.metrics.transactionsAborted.Inc()
		return err
	}
	i.metrics.transactionsApplied.Inc()
	i.metrics.applyDuration.Observe(time.Since(start).Seconds())
	return err
}

// ApplyEvents applies already extracted events in order, with the same error
// semantics as Apply
func (i *Indexer) ApplyEvents(ctx context.Context, events []cpievent.Event) error {
	return i.applyEvents(ctx, source{}, events)
}

func (i *Indexer) applyEvents(
	ctx context.Context,
	src source,
	events []cpievent.Event,
) error {
	var errs []error
	for idx, ev := range events {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := i.applyEvent(src, ev)
		if err == nil {
			i.metrics.eventsApplied.WithLabelValues(string(ev.Kind())).Inc()
			i.publish(src, ev)
			continue
		}
		i.metrics.eventErrors.WithLabelValues(string(ev.Kind())).Inc()
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrExists) {
			i.config.Logger.Warn(
				"skipping change event",
				"component", "indexer",
				"signature", src.signature,
				"kind", string(ev.Kind()),
				"asset", ev.Asset().String(),
				"error", err,
			)
			errs = append(errs, &EventError{
				Index:   idx,
				Kind:    ev.Kind(),
				AssetID: ev.Asset().String(),
				Err:     err,
			})
			continue
		}
		errs = append(errs, &StoreError{
			Op:      string(ev.Kind()),
			AssetID: ev.Asset().String(),
			Err:     err,
		})
		break
	}
	return errors.Join(errs...)
}

// applyEvent settles one event in its own store transaction
func (i *Indexer) applyEvent(src source, ev cpievent.Event) error {
	txn := i.db.Transaction()
	return txn.Do(func(txn *database.Txn) error {
		switch e := ev.(type) {
		case cpievent.Create:
			return i.db.CreateAsset(i.newAsset(src, e.AssetFields), txn)
		case cpievent.Update:
			// Replace the row so no field of the old state survives
			if err := i.db.DeleteAsset(i.programID, e.AssetID.String(), txn); err != nil {
				return err
			}
			return i.db.CreateAsset(i.newAsset(src, e.AssetFields), txn)
		case cpievent.Delete:
			return i.db.DeleteAsset(i.programID, e.AssetID.String(), txn)
		default:
			return fmt.Errorf("unexpected event type %T", ev)
		}
	})
}

func (i *Indexer) newAsset(src source, f cpievent.AssetFields) *models.Asset {
	ts := src.blockTime
	if ts.IsZero() {
		ts = i.config.Now().UTC()
	}
	return models.NewAsset(
		i.programID,
		f.AssetID.String(),
		f.Authority.String(),
		solana.PublicKeyStrings(f.Pubkeys),
		f.Data,
		ts,
	)
}

func (i *Indexer) publish(src source, ev cpievent.Event) {
	if i.config.EventBus == nil {
		return
	}
	payload := event.AssetEvent{
		ProgramID: i.programID,
		AssetID:   ev.Asset().String(),
		Signature: src.signature,
		Slot:      src.slot,
	}
	var evtType event.EventType
	switch e := ev.(type) {
	case cpievent.Create:
		evtType = event.AssetCreatedEventType
		payload.Authority = e.Authority.String()
		payload.Pubkeys = solana.PublicKeyStrings(e.Pubkeys)
	case cpievent.Update:
		evtType = event.AssetUpdatedEventType
		payload.Authority = e.Authority.String()
		payload.Pubkeys = solana.PublicKeyStrings(e.Pubkeys)
	case cpievent.Delete:
		evtType = event.AssetDeletedEventType
	default:
		return
	}
	i.config.EventBus.Publish(evtType, event.NewEvent(evtType, payload))
}

// Clear removes every asset of the program and its sync cursor
func (i *Indexer) Clear() (int64, error) {
	var count int64
	txn := i.db.Transaction()
	err := txn.Do(func(txn *database.Txn) error {
		var err error
		count, err = i.db.ClearAssets(i.programID, txn)
		if err != nil {
			return err
		}
		return i.db.DeleteSyncState(i.cursorKey(), txn)
	})
	if err != nil {
		return 0, &StoreError{Op: "clear", Err: err}
	}
	i.config.Logger.Info(
		"cleared program assets",
		"component", "indexer",
		"program", i.programID,
		"count", count,
	)
	return count, nil
}

// Reindex clears the program's assets and replays the archive in slot order.
// It returns the number of transactions replayed. Event errors are logged
// and do not stop the replay.
func (i *Indexer) Reindex(ctx context.Context) (int, error) {
	if i.db.Blob() == nil {
		return 0, ErrNoArchive
	}
	if _, err := i.Clear(); err != nil {
		return 0, err
	}
	count := 0
	var lastSignature string
	err := i.db.ArchivedTransactions(
		ctx,
		func(slot uint64, signature string, raw []byte) error {
			tx, err := solana.ParseTransactionRecord(raw)
			if err != nil {
				return fmt.Errorf("archived transaction %s: %w", signature, err)
			}
			if err := i.apply(ctx, tx, raw); err != nil {
				if IsFatal(err) || ctx.Err() != nil {
					return err
				}
				i.config.Logger.Warn(
					"replayed transaction with errors",
					"component", "indexer",
					"signature", signature,
					"slot", slot,
					"kind", ErrorKind(err),
					"error", err,
				)
			}
			count++
			lastSignature = signature
			return nil
		},
	)
	if err != nil {
		return count, err
	}
	if lastSignature != "" {
		if err := i.SetCursor(lastSignature); err != nil {
			return count, err
		}
	}
	i.config.Logger.Info(
		"reindex complete",
		"component", "indexer",
		"program", i.programID,
		"transactions", count,
	)
	return count, nil
}

func (i *Indexer) cursorKey() string {
	return "cursor/" + i.programID
}

// Cursor returns the signature of the last transaction handled by the
// poller, or an empty string
func (i *Indexer) Cursor() (string, error) {
	ret, err := i.db.GetSyncState(i.cursorKey(), nil)
	if err != nil {
		return "", &StoreError{Op: "get cursor", Err: err}
	}
	return ret, nil
}

func (i *Indexer) SetCursor(signature string) error {
	if err := i.db.SetSyncState(i.cursorKey(), signature, nil); err != nil {
		return &StoreError{Op: "set cursor", Err: err}
	}
	return nil
}
