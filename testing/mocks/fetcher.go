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

type Fetcher struct {
	ChainFunc func(ctx context.Context, address string) ([]*chain.Block, error)
}

func BaselineFetcher(t *testing.T) *Fetcher {
	t.Helper()

	f := Fetcher{
		ChainFunc: func(context.Context, string) ([]*chain.Block, error) {
			return GenericBlocks(1), nil
		},
	}

	return &f
}

func (f *Fetcher) Chain(ctx context.Context, address string) ([]*chain.Block, error) {
	return f.ChainFunc(ctx, address)
}
