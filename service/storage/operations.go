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

package storage

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
	"github.com/dgraph-io/badger/v2"

	"github.com/optakt/minichain/models/chain"
)

// SaveLength is an operation that writes the number of stored blocks.
func (l *Library) SaveLength(length uint64) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixLength), length)
}

// SaveBlock is an operation that writes the block at the given height.
func (l *Library) SaveBlock(height uint64, block *chain.Block) func(*badger.Txn) error {
	return l.save(EncodeKey(PrefixBlock, height), block)
}

// SavePeer is an operation that writes a peer address. Addresses are keyed by
// their hash, so saving the same address twice stores it once.
func (l *Library) SavePeer(address string) func(*badger.Txn) error {
	hash := xxhash.ChecksumString64(address)
	return l.save(EncodeKey(PrefixPeer, hash), address)
}

// DeleteBlock is an operation that deletes the block at the given height.
func (l *Library) DeleteBlock(height uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		key := EncodeKey(PrefixBlock, height)
		err := tx.Delete(key)
		if err != nil {
			return fmt.Errorf("could not delete block (key: %x): %w", key, err)
		}
		return nil
	}
}

// RetrieveHeights retrieves the heights of all stored blocks from the given
// height onwards, in increasing order.
func (l *Library) RetrieveHeights(from uint64, heights *[]uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		prefix := EncodeKey(PrefixBlock)
		for _, key := range keys(tx, prefix, EncodeKey(PrefixBlock, from)) {
			height, err := DecodeHeight(key)
			if err != nil {
				return fmt.Errorf("could not decode block key: %w", err)
			}
			*heights = append(*heights, height)
		}
		return nil
	}
}

// RetrieveLength retrieves the number of stored blocks.
func (l *Library) RetrieveLength(length *uint64) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixLength), length)
}

// CountBlocks counts the stored blocks. It is used to recover the length when
// its entry is missing.
func (l *Library) CountBlocks(length *uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		prefix := EncodeKey(PrefixBlock)
		count := uint64(len(keys(tx, prefix, prefix)))
		if count == 0 {
			return fmt.Errorf("no blocks stored: %w", badger.ErrKeyNotFound)
		}
		*length = count
		return nil
	}
}

// RetrieveBlock retrieves the block at the given height.
func (l *Library) RetrieveBlock(height uint64, block *chain.Block) func(*badger.Txn) error {
	return l.retrieve(EncodeKey(PrefixBlock, height), block)
}

// RetrievePeers retrieves all stored peer addresses.
func (l *Library) RetrievePeers(addresses *[]string) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {

		prefix := EncodeKey(PrefixPeer)
		opts := badger.DefaultIteratorOptions
		// NOTE: this is an optimization only, it does not enforce that all
		// results in the iteration have this prefix.
		opts.Prefix = prefix

		it := tx.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var address string
			err := it.Item().Value(func(val []byte) error {
				return l.codec.Unmarshal(val, &address)
			})
			if err != nil {
				return fmt.Errorf("could not unmarshal peer: %w", err)
			}

			*addresses = append(*addresses, address)
		}

		return nil
	}
}
