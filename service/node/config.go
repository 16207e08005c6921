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

package node

import (
	"github.com/optakt/minichain/models/chain"
)

// DefaultConfig has the default values of the node configuration.
var DefaultConfig = Config{
	Concurrency:     8,
	MaxTransactions: chain.MaxTransactions,
	WorkCheck:       false,
	Store:           nil,
}

// Config is the configuration of a node.
type Config struct {
	Concurrency     uint
	MaxTransactions uint
	WorkCheck       bool
	Store           chain.Writer
}

// Option is an option that can be given to the node to configure it.
type Option func(*Config)

// WithConcurrency sets how many peers are queried at the same time during
// consensus.
func WithConcurrency(concurrency uint) Option {
	return func(cfg *Config) {
		cfg.Concurrency = concurrency
	}
}

// WithMaxTransactions sets how many pending transactions are mined into one
// block, and how many transactions a block of a peer chain can hold. It is
// capped to chain.MaxTransactions.
func WithMaxTransactions(max uint) Option {
	return func(cfg *Config) {
		cfg.MaxTransactions = max
	}
}

// WithWorkCheck makes consensus reject peer chains with blocks that do not
// satisfy the proof-of-work difficulty.
func WithWorkCheck(check bool) Option {
	return func(cfg *Config) {
		cfg.WorkCheck = check
	}
}

// WithStore makes the node persist every state change to the given store
// before applying it in memory.
func WithStore(store chain.Writer) Option {
	return func(cfg *Config) {
		cfg.Store = store
	}
}
