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
	"errors"
)

// Sentinel errors.
var (
	ErrInvalidLink = errors.New("invalid chain link")
	ErrUnreachable = errors.New("peer unreachable")
	ErrExhausted   = errors.New("proof-of-work exhausted")
	ErrNotFound    = errors.New("not found")
	ErrEmptyChain  = errors.New("empty chain")
	ErrForeignRoot = errors.New("foreign genesis block")
	ErrNoWork      = errors.New("insufficient proof-of-work")
	ErrOversized   = errors.New("too many transactions in block")
)
