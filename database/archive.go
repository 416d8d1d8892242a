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

package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/blinklabs-io/gindexer/database/types"
)

// Raw transactions are archived under tx/<slot as 16 hex digits>/<signature>,
// so key order is slot order
const archiveKeyPrefix = "tx/"

// ArchiveKey returns the blob key for an archived transaction
func ArchiveKey(slot uint64, signature string) []byte {
	return fmt.Appendf(nil, "%s%016x/%s", archiveKeyPrefix, slot, signature)
}

// ParseArchiveKey splits an archive key into slot and signature
func ParseArchiveKey(key []byte) (uint64, string, error) {
	rest, ok := strings.CutPrefix(string(key), archiveKeyPrefix)
	if !ok {
		return 0, "", fmt.Errorf("not an archive key: %q", key)
	}
	slotHex, signature, ok := strings.Cut(rest, "/")
	if !ok || signature == "" {
		return 0, "", fmt.Errorf("not an archive key: %q", key)
	}
	slot, err := strconv.ParseUint(slotHex, 16, 64)
	if err != nil {
		return 0, "", fmt.Errorf("archive key slot: %w", err)
	}
	return slot, signature, nil
}

// ArchiveTransaction stores the raw JSON of a transaction
func (d *Database) ArchiveTransaction(
	ctx context.Context,
	slot uint64,
	signature string,
	raw []byte,
) error {
	return d.blob.Set(ctx, ArchiveKey(slot, signature), raw)
}

// GetArchivedTransaction returns the raw JSON of an archived transaction, or
// types.ErrBlobKeyNotFound
func (d *Database) GetArchivedTransaction(
	ctx context.Context,
	slot uint64,
	signature string,
) ([]byte, error) {
	return d.blob.Get(ctx, ArchiveKey(slot, signature))
}

// HasArchivedTransaction reports whether a transaction is archived
func (d *Database) HasArchivedTransaction(
	ctx context.Context,
	slot uint64,
	signature string,
) (bool, error) {
	_, err := d.GetArchivedTransaction(ctx, slot, signature)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ArchivedTransactions calls fn for every archived transaction in slot
// order. Iteration stops at the first error returned by fn.
func (d *Database) ArchivedTransactions(
	ctx context.Context,
	fn func(slot uint64, signature string, raw []byte) error,
) error {
	keys, err := d.blob.Keys(ctx, []byte(archiveKeyPrefix))
	if err != nil {
		return fmt.Errorf("list archive: %w", err)
	}
	for _, key := range keys {
		slot, signature, err := ParseArchiveKey(key)
		if err != nil {
			d.logger.Warn(
				"skipping unexpected archive key",
				"component", "database",
				"key", string(key),
			)
			continue
		}
		raw, err := d.blob.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("read archived transaction %s: %w", signature, err)
		}
		if err := fn(slot, signature, raw); err != nil {
			return err
		}
	}
	return nil
}
