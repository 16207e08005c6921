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

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/node"
)

// Node wraps a node and records metrics about its chain, its pool, mining and
// consensus.
type Node struct {
	*node.Node
	mined        prometheus.Counter
	transactions prometheus.Counter
	duration     prometheus.Histogram
	consensus    *prometheus.CounterVec
}

// NewNode wraps the given node and registers its metrics on the registerer.
func NewNode(n *node.Node, reg prometheus.Registerer) *Node {

	factory := promauto.With(reg)

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "chain_length",
		Help:      "number of blocks in the local chain, including genesis",
	}, func() float64 {
		return float64(n.Length())
	})

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_transactions",
		Help:      "number of transactions waiting to be mined",
	}, func() float64 {
		return float64(n.Pending())
	})

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "peers",
		Help:      "number of registered peers",
	}, func() float64 {
		return float64(len(n.Peers()))
	})

	mined := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mined_blocks_total",
		Help:      "number of blocks mined by this node",
	})

	transactions := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mined_transactions_total",
		Help:      "number of transactions included in blocks mined by this node",
	})

	duration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "mining_duration_seconds",
		Help:      "duration of successful mining attempts",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	consensus := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consensus_runs_total",
		Help:      "number of consensus rounds by outcome",
	}, []string{"outcome"})

	w := Node{
		Node:         n,
		mined:        mined,
		transactions: transactions,
		duration:     duration,
		consensus:    consensus,
	}

	return &w
}

func (w *Node) Mine(ctx context.Context) (*chain.Block, error) {
	start := time.Now()
	block, err := w.Node.Mine(ctx)
	if err != nil || block == nil {
		return block, err
	}

	w.duration.Observe(time.Since(start).Seconds())
	w.mined.Inc()
	w.transactions.Add(float64(len(block.Transactions)))

	return block, nil
}

func (w *Node) Consensus(ctx context.Context) (node.Outcome, error) {
	outcome, err := w.Node.Consensus(ctx)
	if err != nil {
		w.consensus.WithLabelValues("failed").Inc()
		return outcome, err
	}

	w.consensus.WithLabelValues(outcome.String()).Inc()

	return outcome, nil
}
