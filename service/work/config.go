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

package work

// DefaultConfig has the default values for the worker configuration.
var DefaultConfig = Config{
	MaxAttempts: 0,
	CheckEvery:  1024,
}

// Config is the configuration of a proof-of-work worker.
type Config struct {
	MaxAttempts uint64
	CheckEvery  uint64
}

// Option is an option that can be given to the worker to configure it.
type Option func(*Config)

// WithMaxAttempts bounds the number of nonces tried before giving up. Zero
// means the search is unbounded.
func WithMaxAttempts(attempts uint64) Option {
	return func(cfg *Config) {
		cfg.MaxAttempts = attempts
	}
}

// WithCheckEvery sets after how many attempts the worker checks whether its
// context was canceled.
func WithCheckEvery(attempts uint64) Option {
	return func(cfg *Config) {
		cfg.CheckEvery = attempts
	}
}
