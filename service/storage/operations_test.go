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

package storage_test

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/minichain/codec/zbor"
	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/storage"
	"github.com/optakt/minichain/testing/helpers"
	"github.com/optakt/minichain/testing/mocks"
)

func TestSaveAndRetrieve_Length(t *testing.T) {
	db := helpers.InMemoryDB(t)
	lib := storage.New(zbor.NewCodec())

	t.Run("save length", func(t *testing.T) {
		err := db.Update(lib.SaveLength(mocks.GenericHeight))
		assert.NoError(t, err)
	})

	t.Run("retrieve length", func(t *testing.T) {
		var got uint64
		err := db.View(lib.RetrieveLength(&got))

		assert.NoError(t, err)
		assert.Equal(t, mocks.GenericHeight, got)
	})
}

func TestSaveAndRetrieve_Block(t *testing.T) {
	db := helpers.InMemoryDB(t)
	lib := storage.New(zbor.NewCodec())

	t.Run("save block", func(t *testing.T) {
		err := db.Update(lib.SaveBlock(1, mocks.GenericBlock))
		assert.NoError(t, err)
	})

	t.Run("retrieve block", func(t *testing.T) {
		var got chain.Block
		err := db.View(lib.RetrieveBlock(1, &got))

		require.NoError(t, err)
		assert.Equal(t, mocks.GenericBlock.Hash, got.Hash)
		assert.Equal(t, mocks.GenericBlock.Transactions, got.Transactions)
	})

	t.Run("retrieve missing block", func(t *testing.T) {
		var got chain.Block
		err := db.View(lib.RetrieveBlock(2, &got))

		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestSaveAndRetrieve_Peers(t *testing.T) {
	db := helpers.InMemoryDB(t)
	lib := storage.New(zbor.NewCodec())

	addresses := mocks.GenericAddresses(3)

	t.Run("save peers", func(t *testing.T) {
		for _, address := range addresses {
			err := db.Update(lib.SavePeer(address))
			require.NoError(t, err)
		}

		// Saving an address twice does not duplicate it.
		err := db.Update(lib.SavePeer(addresses[0]))
		assert.NoError(t, err)
	})

	t.Run("retrieve peers", func(t *testing.T) {
		var got []string
		err := db.View(lib.RetrievePeers(&got))

		assert.NoError(t, err)
		assert.ElementsMatch(t, addresses, got)
	})
}

func TestRetrieveHeights(t *testing.T) {
	db := helpers.InMemoryDB(t)
	lib := storage.New(zbor.NewCodec())

	blocks := mocks.GenericBlocks(5)
	var ops []func(*badger.Txn) error
	for height, block := range blocks {
		ops = append(ops, lib.SaveBlock(uint64(height), block))
	}
	require.NoError(t, db.Update(storage.Combine(ops...)))
	require.NoError(t, db.Update(lib.SavePeer(mocks.GenericAddress)))

	var heights []uint64
	err := db.View(lib.RetrieveHeights(2, &heights))

	require.NoError(t, err)
	assert.Equal(t, []uint64{2, 3, 4}, heights)
}

func TestDeleteBlock(t *testing.T) {
	db := helpers.InMemoryDB(t)
	lib := storage.New(zbor.NewCodec())

	blocks := mocks.GenericBlocks(5)
	var ops []func(*badger.Txn) error
	for height, block := range blocks {
		ops = append(ops, lib.SaveBlock(uint64(height), block))
	}
	require.NoError(t, db.Update(storage.Combine(ops...)))

	err := db.Update(storage.Combine(
		lib.DeleteBlock(2),
		lib.DeleteBlock(3),
		lib.DeleteBlock(4),
	))
	require.NoError(t, err)

	var count uint64
	err = db.View(lib.CountBlocks(&count))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	var got chain.Block
	err = db.View(lib.RetrieveBlock(1, &got))
	require.NoError(t, err)
	assert.Equal(t, blocks[1].Hash, got.Hash)

	err = db.View(lib.RetrieveBlock(2, &got))
	assert.ErrorIs(t, err, badger.ErrKeyNotFound)
}

func TestCountBlocks(t *testing.T) {

	t.Run("handles empty database", func(t *testing.T) {
		t.Parallel()

		db := helpers.InMemoryDB(t)
		lib := storage.New(zbor.NewCodec())

		var count uint64
		err := db.View(lib.CountBlocks(&count))

		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestSaveBlock(t *testing.T) {

	t.Run("handles codec failure", func(t *testing.T) {
		t.Parallel()

		db := helpers.InMemoryDB(t)
		codec := mocks.BaselineCodec(t)
		codec.MarshalFunc = func(interface{}) ([]byte, error) {
			return nil, mocks.GenericError
		}
		lib := storage.New(codec)

		err := db.Update(lib.SaveBlock(0, mocks.GenericBlock))

		assert.ErrorIs(t, err, mocks.GenericError)
	})
}
