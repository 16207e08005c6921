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

package helpers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/blockchain"
)

// Chain rebuilds a chain from the given blocks and fails the test if they are
// not a valid chain.
func Chain(t *testing.T, blocks []*chain.Block) *blockchain.Chain {
	t.Helper()

	c, err := blockchain.FromBlocks(blocks)
	require.NoError(t, err)
	require.NoError(t, c.Check())

	return c
}

// Fork returns a copy of the given blocks up to the given height, extended
// with count blocks holding the given transaction. The result is a valid
// chain that diverges from the original after that height.
func Fork(t *testing.T, blocks []*chain.Block, height int, count int, tx chain.Transaction) []*chain.Block {
	t.Helper()

	require.Less(t, height, len(blocks))

	fork := make([]*chain.Block, 0, height+1+count)
	fork = append(fork, blocks[:height+1]...)
	for i := 0; i < count; i++ {
		previous := fork[len(fork)-1].Hash
		fork = append(fork, chain.NewBlock(previous, []chain.Transaction{tx}))
	}
	_ = Chain(t, fork)

	return fork
}
