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
	"github.com/optakt/minichain/service/node"
)

type Node struct {
	AddTransactionFunc func(tx chain.Transaction)
	MineFunc           func(ctx context.Context) (*chain.Block, error)
	RegisterPeerFunc   func(address string) error
	ConsensusFunc      func(ctx context.Context) (node.Outcome, error)
	SnapshotFunc       func() node.Snapshot
	LengthFunc         func() int
	PendingFunc        func() int
	PeersFunc          func() []string
}

func BaselineNode(t *testing.T) *Node {
	t.Helper()

	n := Node{
		AddTransactionFunc: func(chain.Transaction) {},
		MineFunc: func(context.Context) (*chain.Block, error) {
			return GenericBlock, nil
		},
		RegisterPeerFunc: func(string) error {
			return nil
		},
		ConsensusFunc: func(context.Context) (node.Outcome, error) {
			return node.Unchanged, nil
		},
		SnapshotFunc: func() node.Snapshot {
			return node.Snapshot{
				Chain:   GenericBlocks(2),
				Unmined: GenericTransactions(1),
			}
		},
		LengthFunc: func() int {
			return 2
		},
		PendingFunc: func() int {
			return 1
		},
		PeersFunc: func() []string {
			return GenericAddresses(2)
		},
	}

	return &n
}

func (n *Node) AddTransaction(tx chain.Transaction) {
	n.AddTransactionFunc(tx)
}

func (n *Node) Mine(ctx context.Context) (*chain.Block, error) {
	return n.MineFunc(ctx)
}

func (n *Node) RegisterPeer(address string) error {
	return n.RegisterPeerFunc(address)
}

func (n *Node) Consensus(ctx context.Context) (node.Outcome, error) {
	return n.ConsensusFunc(ctx)
}

func (n *Node) Snapshot() node.Snapshot {
	return n.SnapshotFunc()
}

func (n *Node) Length() int {
	return n.LengthFunc()
}

func (n *Node) Pending() int {
	return n.PendingFunc()
}

func (n *Node) Peers() []string {
	return n.PeersFunc()
}
