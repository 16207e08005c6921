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

package rest

import (
	"context"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/node"
)

// Node is the ledger node served by the API.
type Node interface {
	AddTransaction(tx chain.Transaction)
	Mine(ctx context.Context) (*chain.Block, error)
	RegisterPeer(address string) error
	Consensus(ctx context.Context) (node.Outcome, error)
	Snapshot() node.Snapshot
	Length() int
	Peers() []string
}
