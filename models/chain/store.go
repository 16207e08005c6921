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

package chain

// Store persists the state of a node, so it can be restored after a restart.
type Store interface {
	Reader
	Writer
}

// Reader reads persisted node state.
type Reader interface {
	Length() (uint64, error)
	Block(height uint64) (*Block, error)
	Peers() ([]string, error)
}

// Writer persists node state changes. Each call is atomic.
type Writer interface {
	Append(height uint64, block *Block) error
	Replace(blocks []*Block) error
	Peer(address string) error
}
