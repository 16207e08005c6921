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

package metrics_test

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/metrics"
	"github.com/optakt/minichain/service/node"
	"github.com/optakt/minichain/testing/mocks"
)

func TestNode(t *testing.T) {
	reg := prometheus.NewRegistry()

	fetcher := mocks.BaselineFetcher(t)
	fetcher.ChainFunc = func(context.Context, string) ([]*chain.Block, error) {
		return mocks.GenericBlocks(4), nil
	}
	n := metrics.NewNode(node.New(mocks.NoopLogger, mocks.BaselineWorker(t), fetcher), reg)

	n.AddTransaction(mocks.GenericTransaction(0))
	n.AddTransaction(mocks.GenericTransaction(1))
	_, err := n.Mine(context.Background())
	require.NoError(t, err)

	// Mining with an empty pool does not count as a mined block.
	_, err = n.Mine(context.Background())
	require.NoError(t, err)

	n.AddTransaction(mocks.GenericTransaction(2))
	require.NoError(t, n.RegisterPeer(mocks.GenericAddress))

	// The peer chain has four blocks, two more than the local one.
	outcome, err := n.Consensus(context.Background())
	require.NoError(t, err)
	require.Equal(t, node.Replaced, outcome)
	outcome, err = n.Consensus(context.Background())
	require.NoError(t, err)
	require.Equal(t, node.Unchanged, outcome)

	expected := `
# HELP minichain_chain_length number of blocks in the local chain, including genesis
# TYPE minichain_chain_length gauge
minichain_chain_length 4
# HELP minichain_consensus_runs_total number of consensus rounds by outcome
# TYPE minichain_consensus_runs_total counter
minichain_consensus_runs_total{outcome="replaced"} 1
minichain_consensus_runs_total{outcome="unchanged"} 1
# HELP minichain_mined_blocks_total number of blocks mined by this node
# TYPE minichain_mined_blocks_total counter
minichain_mined_blocks_total 1
# HELP minichain_mined_transactions_total number of transactions included in blocks mined by this node
# TYPE minichain_mined_transactions_total counter
minichain_mined_transactions_total 2
# HELP minichain_peers number of registered peers
# TYPE minichain_peers gauge
minichain_peers 1
# HELP minichain_pending_transactions number of transactions waiting to be mined
# TYPE minichain_pending_transactions gauge
minichain_pending_transactions 1
`

	err = testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"minichain_chain_length",
		"minichain_consensus_runs_total",
		"minichain_mined_blocks_total",
		"minichain_mined_transactions_total",
		"minichain_peers",
		"minichain_pending_transactions",
	)
	assert.NoError(t, err)
}

func TestFetcher(t *testing.T) {
	reg := prometheus.NewRegistry()

	calls := 0
	inner := mocks.BaselineFetcher(t)
	inner.ChainFunc = func(context.Context, string) ([]*chain.Block, error) {
		calls++
		if calls%2 == 0 {
			return nil, chain.ErrUnreachable
		}
		return mocks.GenericBlocks(1), nil
	}
	f := metrics.NewFetcher(inner, reg)

	for i := 0; i < 4; i++ {
		_, _ = f.Chain(context.Background(), mocks.GenericAddress)
	}

	_, err := f.Chain(context.Background(), mocks.GenericAddress)
	require.NoError(t, err)

	expected := `
# HELP minichain_peer_fetch_failures_total number of peer chain fetches that failed
# TYPE minichain_peer_fetch_failures_total counter
minichain_peer_fetch_failures_total 2
`

	err = testutil.GatherAndCompare(reg, strings.NewReader(expected), "minichain_peer_fetch_failures_total")
	assert.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "minichain_peer_fetch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterBadgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()

	err := metrics.RegisterBadgerMetrics(reg)
	require.NoError(t, err)

	err = metrics.RegisterBadgerMetrics(reg)
	assert.Error(t, err)
}
