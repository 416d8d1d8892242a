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
	"errors"
	"fmt"

	"github.com/blinklabs-io/gindexer/cpievent"
	"github.com/blinklabs-io/gindexer/database/types"
	"github.com/blinklabs-io/gindexer/solana"
)

var (
	// ErrNotFound is returned for an update or delete of an asset that is
	// not in the store
	ErrNotFound = types.ErrAssetNotFound
	// ErrExists is returned for a create of an asset that is already in
	// the store
	ErrExists = types.ErrAssetExists

	ErrNoArchive = errors.New("transaction archive is not enabled")
)

// EventError is a failed event that did not stop the rest of its batch
type EventError struct {
	Err     error
	Kind    cpievent.Kind
	AssetID string
	Index   int
}

func (e *EventError) Error() string {
	return fmt.Sprintf(
		"event %d (%s %s): %s",
		e.Index,
		e.Kind,
		e.AssetID,
		e.Err,
	)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// StoreError is a rejected store mutation. It stops the batch.
type StoreError struct {
	Err     error
	Op      string
	AssetID string
}

func (e *StoreError) Error() string {
	if e.AssetID == "" {
		return fmt.Sprintf("store %s: %s", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %s", e.Op, e.AssetID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err should stop an ingestion loop
func IsFatal(err error) bool {
	var storeErr *StoreError
	return errors.As(err, &storeErr)
}

// ErrorKind classifies err for logs and metrics
func ErrorKind(err error) string {
	var (
		storeErr  *StoreError
		decodeErr *solana.DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &storeErr):
		return "store"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.Is(err, solana.ErrProgramMismatch):
		return "program_mismatch"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExists):
		return "exists"
	default:
		return "other"
	}
}
