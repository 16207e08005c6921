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
	"testing"

	"github.com/optakt/minichain/models/chain"
)

type Reader struct {
	LengthFunc func() (uint64, error)
	BlockFunc  func(height uint64) (*chain.Block, error)
	PeersFunc  func() ([]string, error)
}

// BaselineReader returns a reader backed by a valid three-block chain and
// two peers.
func BaselineReader(t *testing.T) *Reader {
	t.Helper()

	blocks := GenericBlocks(3)
	r := Reader{
		LengthFunc: func() (uint64, error) {
			return uint64(len(blocks)), nil
		},
		BlockFunc: func(height uint64) (*chain.Block, error) {
			if height >= uint64(len(blocks)) {
				return nil, chain.ErrNotFound
			}
			return blocks[height], nil
		},
		PeersFunc: func() ([]string, error) {
			return GenericAddresses(2), nil
		},
	}

	return &r
}

func (r *Reader) Length() (uint64, error) {
	return r.LengthFunc()
}

func (r *Reader) Block(height uint64) (*chain.Block, error) {
	return r.BlockFunc(height)
}

func (r *Reader) Peers() ([]string, error) {
	return r.PeersFunc()
}
