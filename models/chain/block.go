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

package chain

import (
	"time"

	"golang.org/x/crypto/sha3"
)

// MaxTransactions is the largest number of transactions a block can hold.
// Stored blocks are decoded with the same bound, so a block above it could be
// written but never read back.
const MaxTransactions = 131072

// Transaction is an opaque transaction payload.
type Transaction string

// Block is a record of a previous block reference, an ordered list of
// transactions, a creation timestamp and the nonce found by proof-of-work.
// The hash is cached at construction; Compute recomputes it from the current
// field values.
type Block struct {
	PreviousHash Hash          `json:"previous_hash"`
	Transactions []Transaction `json:"transactions"`
	Timestamp    time.Time     `json:"timestamp"`
	Nonce        uint64        `json:"nonce"`
	Hash         Hash          `json:"hash"`
}

// NewBlock creates a new block on top of the given previous hash, with a zero
// nonce. The transactions are copied, so the caller can reuse its slice.
func NewBlock(previous Hash, transactions []Transaction) *Block {

	txs := make([]Transaction, len(transactions))
	copy(txs, transactions)

	b := Block{
		PreviousHash: previous,
		Transactions: txs,
		Timestamp:    time.Now().UTC(),
		Nonce:        0,
	}
	b.Hash = b.Compute()

	return &b
}

// Genesis returns the genesis block. It is the same on every node, so that
// independent nodes agree on the root of the chain.
func Genesis() *Block {
	b := Block{
		PreviousHash: ZeroHash,
		Transactions: []Transaction{},
		Timestamp:    time.Unix(0, 0).UTC(),
		Nonce:        0,
	}
	b.Hash = b.Compute()
	return &b
}

// Compute hashes the block's current previous hash, transactions and nonce.
func (b *Block) Compute() Hash {
	return sha3.Sum256(Preimage(b.PreviousHash, b.Transactions, b.Nonce))
}

// WithNonce returns a copy of the block with the given nonce and its hash
// recomputed.
func (b *Block) WithNonce(nonce uint64) *Block {
	txs := make([]Transaction, len(b.Transactions))
	copy(txs, b.Transactions)
	dup := Block{
		PreviousHash: b.PreviousHash,
		Transactions: txs,
		Timestamp:    b.Timestamp,
		Nonce:        nonce,
	}
	dup.Hash = dup.Compute()
	return &dup
}

