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

package store

// DefaultConfig is the default configuration for the disk store.
var DefaultConfig = Config{
	CacheSize: 1024,
}

// Config is the configuration for the disk store.
type Config struct {
	CacheSize uint64
}

// Option is an option that can be given to the disk store to configure it.
type Option func(*Config)

// WithCacheSize specifies the number of blocks the store keeps cached.
func WithCacheSize(size uint64) Option {
	return func(cfg *Config) {
		cfg.CacheSize = size
	}
}
