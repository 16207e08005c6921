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

package blockchain

import (
	"fmt"

	"github.com/optakt/minichain/models/chain"
)

// Chain is an ordered sequence of blocks, starting with the genesis block.
// It is not safe for concurrent use; the node owning it provides locking.
type Chain struct {
	blocks []*chain.Block
}

// New creates a chain that holds only the genesis block.
func New() *Chain {
	c := Chain{
		blocks: []*chain.Block{chain.Genesis()},
	}
	return &c
}

// FromBlocks creates a chain from the given blocks, for example as decoded
// from a peer response or from disk. The cached hash of every block is
// recomputed, because it comes from outside and cannot be trusted. The chain
// is not validated; use IsValid for that.
func FromBlocks(blocks []*chain.Block) (*Chain, error) {
	if len(blocks) == 0 {
		return nil, chain.ErrEmptyChain
	}

	sealed := make([]*chain.Block, 0, len(blocks))
	for index, block := range blocks {
		if block == nil {
			return nil, fmt.Errorf("missing block (index: %d)", index)
		}
		dup := *block
		dup.Transactions = make([]chain.Transaction, len(block.Transactions))
		copy(dup.Transactions, block.Transactions)
		dup.Hash = dup.Compute()
		sealed = append(sealed, &dup)
	}

	c := Chain{
		blocks: sealed,
	}

	return &c, nil
}

// Append creates a new block holding the given transactions on top of the
// current last block and adds it to the chain.
func (c *Chain) Append(transactions []chain.Transaction) *chain.Block {
	block := chain.NewBlock(c.Last().Hash, transactions)
	c.blocks = append(c.blocks, block)
	return block
}

// Seal adds an already built block, such as a freshly mined one, to the
// chain. The block has to link to the current last block.
func (c *Chain) Seal(block *chain.Block) error {
	last := c.Last()
	if block.PreviousHash != last.Hash {
		return fmt.Errorf("block does not extend last block (previous: %s, last: %s): %w", block.PreviousHash, last.Hash, chain.ErrInvalidLink)
	}
	c.blocks = append(c.blocks, block)
	return nil
}

// IsValid checks that each block's previous hash matches the hash of the block
// before it. Hashes are recomputed from the stored fields, so any mutation of
// a block after it was appended is detected.
func (c *Chain) IsValid() bool {
	return c.Check() == nil
}

// Check returns an error wrapping ErrInvalidLink for the first broken link in
// the chain, or nil if all links hold.
func (c *Chain) Check() error {
	for i := 1; i < len(c.blocks); i++ {
		previous := c.blocks[i-1].Compute()
		if c.blocks[i].PreviousHash != previous {
			return fmt.Errorf("broken link at height %d (have: %s, want: %s): %w", i, c.blocks[i].PreviousHash, previous, chain.ErrInvalidLink)
		}
	}
	return nil
}

// Length returns the number of blocks, including genesis.
func (c *Chain) Length() int {
	return len(c.blocks)
}

// Last returns the last block of the chain.
func (c *Chain) Last() *chain.Block {
	return c.blocks[len(c.blocks)-1]
}

// Genesis returns the first block of the chain.
func (c *Chain) Genesis() *chain.Block {
	return c.blocks[0]
}

// Block returns the block at the given height.
func (c *Chain) Block(height uint64) (*chain.Block, error) {
	if height >= uint64(len(c.blocks)) {
		return nil, fmt.Errorf("no block at height %d: %w", height, chain.ErrNotFound)
	}
	return c.blocks[height], nil
}

// Blocks returns the blocks of the chain. The slice is a copy, but the blocks
// are shared and must not be modified.
func (c *Chain) Blocks() []*chain.Block {
	blocks := make([]*chain.Block, len(c.blocks))
	copy(blocks, c.blocks)
	return blocks
}
