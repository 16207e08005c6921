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

package work_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/work"
)

func TestWorker_Solve(t *testing.T) {
	previous := chain.Genesis().Hash

	tests := []struct {
		desc         string
		difficulty   uint
		transactions []chain.Transaction
	}{
		{
			desc:         "zero difficulty accepts first nonce",
			difficulty:   0,
			transactions: []chain.Transaction{"1", "2"},
		},
		{
			desc:         "low difficulty",
			difficulty:   4,
			transactions: []chain.Transaction{"1", "2"},
		},
		{
			desc:         "medium difficulty",
			difficulty:   10,
			transactions: []chain.Transaction{"3"},
		},
		{
			desc:         "empty transactions",
			difficulty:   8,
			transactions: nil,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			worker := work.New(test.difficulty)

			nonce, hash, err := worker.Solve(context.Background(), previous, test.transactions)
			require.NoError(t, err)

			block := chain.NewBlock(previous, test.transactions).WithNonce(nonce)
			assert.Equal(t, block.Hash, hash)
			assert.True(t, worker.Check(hash))
			assert.True(t, worker.Verify(block))
			assert.GreaterOrEqual(t, work.LeadingZeros(hash), test.difficulty)

			if test.difficulty == 0 {
				assert.Equal(t, uint64(0), nonce)
			}
		})
	}
}

func TestWorker_SolveDeterministic(t *testing.T) {
	worker := work.New(8)
	previous := chain.Genesis().Hash
	txs := []chain.Transaction{"a", "b"}

	nonce1, hash1, err := worker.Solve(context.Background(), previous, txs)
	require.NoError(t, err)
	nonce2, hash2, err := worker.Solve(context.Background(), previous, txs)
	require.NoError(t, err)

	assert.Equal(t, nonce1, nonce2)
	assert.Equal(t, hash1, hash2)

	// No smaller nonce satisfies the predicate.
	for nonce := uint64(0); nonce < nonce1; nonce++ {
		block := chain.NewBlock(previous, txs).WithNonce(nonce)
		assert.False(t, worker.Check(block.Hash))
	}
}

func TestWorker_SolveExhausted(t *testing.T) {
	worker := work.New(256, work.WithMaxAttempts(100))

	_, _, err := worker.Solve(context.Background(), chain.Genesis().Hash, []chain.Transaction{"1"})

	assert.True(t, errors.Is(err, chain.ErrExhausted))
}

func TestWorker_SolveCanceled(t *testing.T) {
	worker := work.New(256, work.WithCheckEvery(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := worker.Solve(ctx, chain.Genesis().Hash, []chain.Transaction{"1"})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLeadingZeros(t *testing.T) {
	tests := []struct {
		desc string
		hash chain.Hash
		want uint
	}{
		{desc: "zero hash", hash: chain.ZeroHash, want: 256},
		{desc: "first bit set", hash: chain.Hash{0x80}, want: 0},
		{desc: "last bit of first byte set", hash: chain.Hash{0x01}, want: 7},
		{desc: "second byte", hash: chain.Hash{0x00, 0x10}, want: 11},
		{desc: "last byte", hash: chain.Hash{31: 0x01}, want: 255},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, test.want, work.LeadingZeros(test.hash))
		})
	}
}

func TestNew_ClampsDifficulty(t *testing.T) {
	worker := work.New(1000)

	assert.Equal(t, uint(256), worker.Difficulty())
	assert.True(t, worker.Check(chain.ZeroHash))
}
