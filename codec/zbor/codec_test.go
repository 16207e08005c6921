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

package zbor_test

import (
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/minichain/codec/zbor"
	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/testing/mocks"
)

func TestCodec_Marshal(t *testing.T) {

	t.Run("nominal case", func(t *testing.T) {
		t.Parallel()

		codec := zbor.NewCodec()

		data, err := codec.Marshal(mocks.GenericBlock)
		require.NoError(t, err)

		var block chain.Block
		err = codec.Unmarshal(data, &block)
		require.NoError(t, err)

		assert.Equal(t, mocks.GenericBlock.PreviousHash, block.PreviousHash)
		assert.Equal(t, mocks.GenericBlock.Transactions, block.Transactions)
		assert.Equal(t, mocks.GenericBlock.Nonce, block.Nonce)
		assert.Equal(t, mocks.GenericBlock.Hash, block.Hash)
		assert.True(t, mocks.GenericBlock.Timestamp.Equal(block.Timestamp))
		assert.Equal(t, block.Hash, block.Compute())
	})

	t.Run("encoding is canonical", func(t *testing.T) {
		t.Parallel()

		codec := zbor.NewCodec()

		first, err := codec.Encode(mocks.GenericBlock)
		require.NoError(t, err)
		second, err := codec.Encode(mocks.GenericBlock)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("works with other compression levels", func(t *testing.T) {
		t.Parallel()

		codec := zbor.NewCodec(zbor.WithLevel(zstd.SpeedBestCompression))

		data, err := codec.Marshal(mocks.GenericTransactions(16))
		require.NoError(t, err)

		var txs []chain.Transaction
		err = codec.Unmarshal(data, &txs)
		require.NoError(t, err)

		assert.Equal(t, mocks.GenericTransactions(16), txs)
	})
}

func TestCodec_Unmarshal(t *testing.T) {

	t.Run("handles invalid compressed data", func(t *testing.T) {
		t.Parallel()

		codec := zbor.NewCodec()

		var block chain.Block
		err := codec.Unmarshal(mocks.GenericBytes, &block)

		assert.Error(t, err)
	})

	t.Run("handles too many elements", func(t *testing.T) {
		t.Parallel()

		codec := zbor.NewCodec(zbor.WithMaxElements(16))

		data, err := codec.Marshal(mocks.GenericTransactions(17))
		require.NoError(t, err)

		var txs []chain.Transaction
		err = codec.Unmarshal(data, &txs)

		assert.Error(t, err)
	})
}
