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

package work

import (
	"context"
	"fmt"
	"math/bits"

	"golang.org/x/crypto/sha3"

	"github.com/optakt/minichain/models/chain"
)

// Worker searches for nonces that make a block hash start with a given number
// of zero bits. A worker holds no mutable state, so it can be used by several
// mining attempts concurrently.
type Worker struct {
	difficulty uint
	cfg        Config
}

// New creates a worker for the given difficulty, expressed as the number of
// leading zero bits a block hash needs to have.
func New(difficulty uint, options ...Option) *Worker {

	cfg := DefaultConfig
	for _, option := range options {
		option(&cfg)
	}
	if cfg.CheckEvery == 0 {
		cfg.CheckEvery = DefaultConfig.CheckEvery
	}
	if difficulty > 8*chain.HashSize {
		difficulty = 8 * chain.HashSize
	}

	w := Worker{
		difficulty: difficulty,
		cfg:        cfg,
	}

	return &w
}

// Difficulty returns the number of leading zero bits required.
func (w *Worker) Difficulty() uint {
	return w.difficulty
}

// Solve searches for the first nonce, starting at zero, for which the block
// with the given previous hash and transactions satisfies the difficulty.
func (w *Worker) Solve(ctx context.Context, previous chain.Hash, transactions []chain.Transaction) (uint64, chain.Hash, error) {

	for nonce := uint64(0); ; nonce++ {

		if w.cfg.MaxAttempts != 0 && nonce >= w.cfg.MaxAttempts {
			return 0, chain.ZeroHash, fmt.Errorf("no solution in %d attempts (difficulty: %d): %w", w.cfg.MaxAttempts, w.difficulty, chain.ErrExhausted)
		}

		if nonce%w.cfg.CheckEvery == 0 {
			select {
			case <-ctx.Done():
				return 0, chain.ZeroHash, fmt.Errorf("search aborted after %d attempts: %w", nonce, ctx.Err())
			default:
			}
		}

		hash := chain.Hash(sha3.Sum256(chain.Preimage(previous, transactions, nonce)))
		if w.Check(hash) {
			return nonce, hash, nil
		}

		// Only reachable with an unbounded search over all 2^64 nonces.
		if nonce == ^uint64(0) {
			return 0, chain.ZeroHash, fmt.Errorf("nonce space exhausted (difficulty: %d): %w", w.difficulty, chain.ErrExhausted)
		}
	}
}

// Check returns whether the hash satisfies the worker's difficulty.
func (w *Worker) Check(hash chain.Hash) bool {
	return LeadingZeros(hash) >= w.difficulty
}

// Verify returns whether the block's recomputed hash satisfies the difficulty.
func (w *Worker) Verify(block *chain.Block) bool {
	return w.Check(block.Compute())
}

// LeadingZeros counts the leading zero bits of a hash.
func LeadingZeros(hash chain.Hash) uint {
	var zeros uint
	for _, b := range hash {
		if b != 0 {
			return zeros + uint(bits.LeadingZeros8(b))
		}
		zeros += 8
	}
	return zeros
}
