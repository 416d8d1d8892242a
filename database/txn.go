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
	"errors"
	"fmt"
	"sync"

	"github.com/blinklabs-io/gindexer/database/types"
	"gorm.io/gorm"
)

// Txn is a metadata store transaction. Only the first Commit or Rollback
// takes effect. A nil *Txn means "no transaction" to every Database method.
type Txn struct {
	db       *Database
	handle   *gorm.DB
	mu       sync.Mutex
	finished bool
}

func newTxn(db *Database) *Txn {
	t := &Txn{db: db}
	if ms := db.Metadata(); ms != nil {
		t.handle = ms.Transaction()
	}
	return t
}

// Metadata returns the gorm handle scoped to the transaction, or nil for a
// nil Txn
func (t *Txn) Metadata() *gorm.DB {
	if t == nil {
		return nil
	}
	return t.handle
}

// Do runs fn and commits, or rolls back when fn fails
func (t *Txn) Do(fn func(*Txn) error) error {
	if err := fn(t); err != nil {
		if rbErr := t.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (t *Txn) Commit() error {
	return t.finish(true)
}

func (t *Txn) Rollback() error {
	return t.finish(false)
}

func (t *Txn) finish(commit bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.finished {
		return nil
	}
	t.finished = true
	switch {
	case t.handle == nil:
		if commit {
			return types.ErrNoStoreAvailable
		}
		return nil
	case t.handle.Error != nil:
		if commit {
			return fmt.Errorf("begin transaction: %w", t.handle.Error)
		}
		return nil
	case commit:
		return t.handle.Commit().Error
	}
	err := t.handle.Rollback().Error
	if errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}
	return err
}

// Release rolls back an unfinished transaction and only logs failures, for
// use with defer
func (t *Txn) Release() {
	if err := t.Rollback(); err != nil {
		t.db.logger.Debug(
			"transaction release failed",
			"component", "database",
			"error", err,
		)
	}
}
