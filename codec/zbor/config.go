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

package zbor

import (
	"github.com/klauspost/compress/zstd"

	"github.com/optakt/minichain/models/chain"
)

// DefaultConfig is the default configuration for the codec.
var DefaultConfig = Config{
	Level:       zstd.SpeedDefault,
	MaxElements: chain.MaxTransactions,
}

// Config holds the codec settings.
type Config struct {
	Level       zstd.EncoderLevel
	MaxElements int
}

// Option is an option that can be given to the codec to configure it.
type Option func(*Config)

// WithLevel sets the zstd compression level.
func WithLevel(level zstd.EncoderLevel) Option {
	return func(cfg *Config) {
		cfg.Level = level
	}
}

// WithMaxElements sets the maximum number of elements a decoded array or map
// can hold. It bounds the number of transactions in a decoded block.
func WithMaxElements(max int) Option {
	return func(cfg *Config) {
		cfg.MaxElements = max
	}
}
