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
	"encoding/hex"
	"fmt"
)

// HashSize is the size of a block hash in bytes.
const HashSize = 32

// Hash is the SHA3-256 digest identifying a block. The zero hash is used as
// the previous hash of the genesis block, which has no predecessor.
type Hash [HashSize]byte

// ZeroHash is the sentinel for "no previous block".
var ZeroHash Hash

// HexToHash decodes a hexadecimal string into a hash.
func HexToHash(s string) (Hash, error) {
	var hash Hash
	data, err := hex.DecodeString(s)
	if err != nil {
		return ZeroHash, fmt.Errorf("could not decode hex: %w", err)
	}
	if len(data) != HashSize {
		return ZeroHash, fmt.Errorf("invalid hash length (have: %d, want: %d)", len(data), HashSize)
	}
	copy(hash[:], data)
	return hash, nil
}

// IsZero returns whether the hash is the zero sentinel.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler, so hashes show up as hex
// strings in JSON.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	hash, err := HexToHash(string(text))
	if err != nil {
		return err
	}
	*h = hash
	return nil
}
