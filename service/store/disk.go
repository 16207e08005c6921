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

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/storage"
)

// Disk persists the chain and the peers of a node in a Badger database. Blocks
// read from disk are kept in a cache, which is invalidated whenever the chain
// is replaced.
type Disk struct {
	log   zerolog.Logger
	db    *badger.DB
	lib   *storage.Library
	cache *ristretto.Cache

	// generation is part of every cache key; bumping it on replacement makes
	// all previously cached blocks unreachable.
	generation uint64
}

// New creates a disk store on top of the given database.
func New(log zerolog.Logger, db *badger.DB, lib *storage.Library, options ...Option) (*Disk, error) {

	cfg := DefaultConfig
	for _, option := range options {
		option(&cfg)
	}
	if cfg.CacheSize == 0 {
		cfg.CacheSize = 1
	}

	// Ristretto recommends keeping ten times as many counters as items in the
	// cache when full. Every block has a cost of one.
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CacheSize) * 10,
		MaxCost:     int64(cfg.CacheSize),
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("could not initialize cache: %w", err)
	}

	d := Disk{
		log:   log.With().Str("component", "disk_store").Logger(),
		db:    db,
		lib:   lib,
		cache: cache,
	}

	return &d, nil
}

// Length returns the number of stored blocks. It returns chain.ErrNotFound if
// no chain was stored yet.
func (d *Disk) Length() (uint64, error) {
	var length uint64
	err := d.db.View(storage.Fallback(
		d.lib.RetrieveLength(&length),
		d.lib.CountBlocks(&length),
	))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, chain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("could not retrieve length: %w", err)
	}

	return length, nil
}

// Block returns the stored block at the given height.
func (d *Disk) Block(height uint64) (*chain.Block, error) {

	key := d.key(height)
	cached, ok := d.cache.Get(key)
	if ok {
		return cached.(*chain.Block), nil
	}

	var block chain.Block
	err := d.db.View(d.lib.RetrieveBlock(height, &block))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("no block at height %d: %w", height, chain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("could not retrieve block (height: %d): %w", height, err)
	}

	_ = d.cache.Set(key, &block, 1)

	return &block, nil
}

// Peers returns the stored peer addresses in sorted order.
func (d *Disk) Peers() ([]string, error) {
	var peers []string
	err := d.db.View(d.lib.RetrievePeers(&peers))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve peers: %w", err)
	}

	sort.Strings(peers)

	return peers, nil
}

// Append stores a block at the given height and updates the length.
func (d *Disk) Append(height uint64, block *chain.Block) error {
	err := d.db.Update(storage.Combine(
		d.lib.SaveBlock(height, block),
		d.lib.SaveLength(height+1),
	))
	if err != nil {
		return fmt.Errorf("could not save block (height: %d): %w", height, err)
	}

	_ = d.cache.Set(d.key(height), block, 1)

	d.log.Debug().Uint64("height", height).Str("hash", block.Hash.String()).Msg("block stored")

	return nil
}

// Replace replaces the stored chain with the given blocks. Only the blocks
// from the first height where both chains differ are written. The length is
// written last; until then, the stored length never covers a block that was
// only partially replaced, so an interrupted replacement leaves a valid chain.
func (d *Disk) Replace(blocks []*chain.Block) error {

	length := uint64(len(blocks))
	stored, err := d.Length()
	if errors.Is(err, chain.ErrNotFound) {
		stored = 0
	} else if err != nil {
		return fmt.Errorf("could not replace chain: %w", err)
	}

	fork, err := d.fork(blocks, stored)
	if err != nil {
		return fmt.Errorf("could not find fork height: %w", err)
	}

	// Shrink the stored chain to the common part first, as blocks above the
	// fork height are about to be overwritten.
	if fork < stored {
		err = d.db.Update(d.lib.SaveLength(fork))
		if err != nil {
			return fmt.Errorf("could not truncate chain (length: %d): %w", fork, err)
		}
	}

	var stale []uint64
	err = d.db.View(d.lib.RetrieveHeights(length, &stale))
	if err != nil {
		return fmt.Errorf("could not retrieve stale blocks: %w", err)
	}

	b := newBatch(d.db)
	defer b.discard()

	for height := fork; height < length; height++ {
		err = b.apply(d.lib.SaveBlock(height, blocks[height]))
		if err != nil {
			return fmt.Errorf("could not save block (height: %d): %w", height, err)
		}
	}
	for _, height := range stale {
		err = b.apply(d.lib.DeleteBlock(height))
		if err != nil {
			return fmt.Errorf("could not delete block (height: %d): %w", height, err)
		}
	}
	err = b.commit()
	if err != nil {
		return fmt.Errorf("could not replace chain: %w", err)
	}

	atomic.AddUint64(&d.generation, 1)

	err = d.db.Update(d.lib.SaveLength(length))
	if err != nil {
		return fmt.Errorf("could not save length (length: %d): %w", length, err)
	}

	d.log.Debug().
		Uint64("fork", fork).
		Uint64("length", length).
		Int("deleted", len(stale)).
		Msg("chain replaced")

	return nil
}

// fork returns the first height at which the given blocks differ from the
// stored ones. Blocks are linked by hash, so if the blocks at a height match,
// all blocks below it match too.
func (d *Disk) fork(blocks []*chain.Block, stored uint64) (uint64, error) {

	common := uint64(len(blocks))
	if stored < common {
		common = stored
	}

	var lookup error
	index := sort.Search(int(common), func(i int) bool {
		if lookup != nil {
			return true
		}
		block, err := d.Block(uint64(i))
		if err != nil {
			lookup = err
			return true
		}
		return block.Hash != blocks[i].Hash
	})
	if lookup != nil {
		return 0, lookup
	}

	return uint64(index), nil
}

// Peer stores a peer address.
func (d *Disk) Peer(address string) error {
	err := d.db.Update(d.lib.SavePeer(address))
	if err != nil {
		return fmt.Errorf("could not save peer (address: %s): %w", address, err)
	}

	return nil
}

func (d *Disk) key(height uint64) string {
	generation := atomic.LoadUint64(&d.generation)
	return strconv.FormatUint(generation, 10) + "/" + strconv.FormatUint(height, 10)
}
