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

package pool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/pool"
)

func TestPool(t *testing.T) {
	p := pool.New()

	assert.Equal(t, 0, p.Len())
	assert.Empty(t, p.Transactions())

	p.Add("1")
	p.Add("2")
	p.Add("3")

	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []chain.Transaction{"1", "2", "3"}, p.Transactions())

	// The returned slice is a copy.
	txs := p.Transactions()
	txs[0] = "changed"
	assert.Equal(t, []chain.Transaction{"1", "2", "3"}, p.Transactions())

	assert.Equal(t, 2, p.Drop(2))
	assert.Equal(t, []chain.Transaction{"3"}, p.Transactions())

	assert.Equal(t, 1, p.Drop(5))
	assert.Equal(t, 0, p.Len())

	p.Add("4")
	p.Clear()
	assert.Equal(t, 0, p.Len())
}
