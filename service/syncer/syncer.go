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

package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/optakt/minichain/service/node"
)

// Node is the node whose chain is periodically reconciled with its peers.
type Node interface {
	Consensus(ctx context.Context) (node.Outcome, error)
}

// Syncer runs consensus on a fixed interval.
type Syncer struct {
	log      zerolog.Logger
	node     Node
	interval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	once   *sync.Once
}

// New creates a syncer that runs consensus on the given node at every interval.
func New(log zerolog.Logger, node Node, interval time.Duration) *Syncer {

	ctx, cancel := context.WithCancel(context.Background())
	s := Syncer{
		log:      log.With().Str("component", "syncer").Logger(),
		node:     node,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		once:     &sync.Once{},
	}

	return &s
}

// Run runs consensus at every interval until the syncer is stopped. Failed
// rounds are logged and do not stop the syncer.
func (s *Syncer) Run() error {

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return nil
		case <-ticker.C:
		}

		outcome, err := s.node.Consensus(s.ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			s.log.Error().Err(err).Msg("consensus round failed")
			continue
		}

		s.log.Debug().Str("outcome", outcome.String()).Msg("consensus round done")
	}
}

// Stop stops the syncer and aborts a running consensus round.
func (s *Syncer) Stop() {
	s.once.Do(s.cancel)
}
