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

package client

import (
	"time"
)

// DefaultConfig is the default configuration for the peer client.
var DefaultConfig = Config{
	Timeout:  5 * time.Second,
	Retries:  2,
	Interval: 100 * time.Millisecond,
	MaxSize:  256 << 20,
}

// Config is the configuration for the peer client.
type Config struct {
	Timeout  time.Duration
	Retries  uint64
	Interval time.Duration
	MaxSize  int64
}

// Option is an option that can be given to the peer client to configure it.
type Option func(*Config)

// WithTimeout sets the timeout of a single request to a peer.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *Config) {
		cfg.Timeout = timeout
	}
}

// WithRetries sets how many times a failed request is retried before the peer
// is considered unreachable.
func WithRetries(retries uint64) Option {
	return func(cfg *Config) {
		cfg.Retries = retries
	}
}

// WithInterval sets the initial wait between two attempts. It grows
// exponentially with every retry.
func WithInterval(interval time.Duration) Option {
	return func(cfg *Config) {
		cfg.Interval = interval
	}
}

// WithMaxSize sets the maximum size in bytes of a peer response. Larger
// responses are rejected without being read completely.
func WithMaxSize(size int64) Option {
	return func(cfg *Config) {
		cfg.MaxSize = size
	}
}
