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

package mocks

import (
	"context"
	"testing"

	"github.com/optakt/minichain/models/chain"
)

type Worker struct {
	SolveFunc  func(ctx context.Context, previous chain.Hash, transactions []chain.Transaction) (uint64, chain.Hash, error)
	VerifyFunc func(block *chain.Block) bool
}

// BaselineWorker returns a worker that accepts the zero nonce for any block.
func BaselineWorker(t *testing.T) *Worker {
	t.Helper()

	w := Worker{
		SolveFunc: func(_ context.Context, previous chain.Hash, transactions []chain.Transaction) (uint64, chain.Hash, error) {
			return 0, chain.NewBlock(previous, transactions).Hash, nil
		},
		VerifyFunc: func(*chain.Block) bool {
			return true
		},
	}

	return &w
}

func (w *Worker) Solve(ctx context.Context, previous chain.Hash, transactions []chain.Transaction) (uint64, chain.Hash, error) {
	return w.SolveFunc(ctx, previous, transactions)
}

func (w *Worker) Verify(block *chain.Block) bool {
	return w.VerifyFunc(block)
}
