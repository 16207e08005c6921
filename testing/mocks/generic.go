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
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/optakt/minichain/models/chain"
)

// Global variables that can be used for testing. They are non-nil valid values for the types commonly needed
// to test node components.
var (
	NoopLogger = zerolog.New(io.Discard)

	GenericError = errors.New("dummy error")

	GenericHeight = uint64(42)

	GenericBytes = []byte(`test`)

	GenericAddress = "127.0.0.1:5000"

	GenericTimestamp = time.Date(1972, 11, 12, 13, 14, 15, 0, time.UTC)

	GenericHash = chain.Hash{
		0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a,
		0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a,
		0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a,
		0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a, 0x2a,
	}

	GenericBlock = GenericBlocks(2)[1]
)

func GenericTransactions(number int) []chain.Transaction {
	txs := make([]chain.Transaction, 0, number)
	for i := 0; i < number; i++ {
		txs = append(txs, chain.Transaction(fmt.Sprintf("tx-%d", i)))
	}
	return txs
}

func GenericTransaction(index int) chain.Transaction {
	return GenericTransactions(index + 1)[index]
}

// GenericBlocks returns a valid chain of the given number of blocks, starting
// with the genesis block. Every block after genesis holds one transaction and
// has a fixed timestamp, so that results are deterministic.
func GenericBlocks(number int) []*chain.Block {
	if number == 0 {
		return []*chain.Block{}
	}

	blocks := []*chain.Block{chain.Genesis()}
	for i := 1; i < number; i++ {
		block := chain.NewBlock(blocks[i-1].Hash, []chain.Transaction{GenericTransaction(i)})
		block.Timestamp = GenericTimestamp.Add(time.Duration(i) * time.Second)
		blocks = append(blocks, block)
	}

	return blocks
}

func GenericAddresses(number int) []string {
	addresses := make([]string, 0, number)
	for i := 0; i < number; i++ {
		addresses = append(addresses, fmt.Sprintf("127.0.0.1:%d", 5000+i))
	}
	return addresses
}
