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

package pool

import (
	"github.com/gammazero/deque"

	"github.com/optakt/minichain/models/chain"
)

// Pool is an ordered queue of transactions that were submitted but not mined
// yet. Concurrency safety is up to the consumer to provide.
// See https://github.com/gammazero/deque
type Pool struct {
	queue *deque.Deque
}

// New creates an empty pool.
func New() *Pool {
	p := Pool{
		queue: deque.New(),
	}
	return &p
}

// Add appends a transaction at the back of the pool.
func (p *Pool) Add(tx chain.Transaction) {
	p.queue.PushBack(tx)
}

// Len returns the number of pending transactions.
func (p *Pool) Len() int {
	return p.queue.Len()
}

// Transactions returns a copy of the pending transactions, oldest first.
func (p *Pool) Transactions() []chain.Transaction {
	txs := make([]chain.Transaction, 0, p.queue.Len())
	for i := 0; i < p.queue.Len(); i++ {
		txs = append(txs, p.queue.At(i).(chain.Transaction))
	}
	return txs
}

// Drop removes up to count transactions from the front of the pool and
// returns how many were removed.
func (p *Pool) Drop(count int) int {
	dropped := 0
	for dropped < count && p.queue.Len() > 0 {
		p.queue.PopFront()
		dropped++
	}
	return dropped
}

// Clear removes all transactions from the pool.
func (p *Pool) Clear() {
	p.queue.Clear()
}
