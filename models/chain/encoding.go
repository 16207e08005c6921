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

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// HashVersion is prepended to every hash preimage. It must be bumped whenever
// the preimage layout changes, as all block hashes change with it.
const HashVersion = 1

// Encoding is the CBOR encoding used to build hash preimages. Canonical CBOR
// gives the same bytes for the same values on every platform.
var Encoding cbor.EncMode

func init() {
	var err error
	Encoding, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("could not initialize canonical encoding: %s", err))
	}
}

type preimage struct {
	_            struct{} `cbor:",toarray"`
	Version      uint8
	PreviousHash []byte
	Transactions []Transaction
	Nonce        uint64
}

// Preimage returns the canonical bytes that are hashed to identify a block
// with the given fields.
func Preimage(previous Hash, transactions []Transaction, nonce uint64) []byte {

	// A nil slice encodes as CBOR null and an empty one as an empty array, so
	// we normalize to make blocks decoded from different sources agree.
	if transactions == nil {
		transactions = []Transaction{}
	}

	p := preimage{
		Version:      HashVersion,
		PreviousHash: previous[:],
		Transactions: transactions,
		Nonce:        nonce,
	}

	// The preimage only holds fixed types that always encode, so failing here
	// is a programming error.
	data, err := Encoding.Marshal(p)
	if err != nil {
		panic(fmt.Sprintf("could not encode block preimage: %s", err))
	}

	return data
}
