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
)

// Fetcher wraps a peer fetcher and counts fetches that fail, which are the
// peers skipped during consensus.
type Fetcher struct {
	fetch    chain.Fetcher
	failed   prometheus.Counter
	duration prometheus.Histogram
}

// NewFetcher wraps the given fetcher and registers its metrics on the registerer.
func NewFetcher(fetch chain.Fetcher, reg prometheus.Registerer) *Fetcher {

	factory := promauto.With(reg)

	failed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "peer_fetch_failures_total",
		Help:      "number of peer chain fetches that failed",
	})

	duration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "peer_fetch_duration_seconds",
		Help:      "duration of peer chain fetches",
		Buckets:   prometheus.DefBuckets,
	})

	f := Fetcher{
		fetch:    fetch,
		failed:   failed,
		duration: duration,
	}

	return &f
}

func (f *Fetcher) Chain(ctx context.Context, address string) ([]*chain.Block, error) {
	start := time.Now()
	blocks, err := f.fetch.Chain(ctx, address)
	f.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		f.failed.Inc()
	}
	return blocks, err
}
