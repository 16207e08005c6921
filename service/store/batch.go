// Copyright 2021 Optakt Labs OÜ
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package store

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"
)

// batch applies operations in as few transactions as possible. Whenever the
// current transaction grows too big, it is committed and a new one is started,
// so the operations of a batch are not atomic as a whole.
type batch struct {
	db *badger.DB
	tx *badger.Txn
}

func newBatch(db *badger.DB) *batch {
	b := batch{
		db: db,
		tx: db.NewTransaction(true),
	}
	return &b
}

func (b *batch) apply(op func(*badger.Txn) error) error {
	err := op(b.tx)
	if errors.Is(err, badger.ErrTxnTooBig) {
		err = b.tx.Commit()
		if err != nil {
			return fmt.Errorf("could not commit transaction: %w", err)
		}
		b.tx = b.db.NewTransaction(true)
		err = op(b.tx)
	}
	if err != nil {
		return fmt.Errorf("could not apply operation: %w", err)
	}

	return nil
}

func (b *batch) commit() error {
	err := b.tx.Commit()
	if err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// discard drops the operations applied since the last commit. It does nothing
// after a successful commit.
func (b *batch) discard() {
	b.tx.Discard()
}
