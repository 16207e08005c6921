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

package rest

import (
	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/node"
)

type StatusResponse struct {
	Chain         []*chain.Block      `json:"chain"`
	ChainLength   int                 `json:"chain_length"`
	Unmined       []chain.Transaction `json:"unmined"`
	UnminedLength int                 `json:"unmined_length"`
}

type MineResponse struct {
	ChainLength int          `json:"chain_length"`
	Block       *chain.Block `json:"block,omitempty"`
}

type ConsensusResponse struct {
	Outcome     node.Outcome `json:"outcome"`
	ChainLength int          `json:"chain_length"`
}

type PeersResponse struct {
	Peers []string `json:"peers"`
}
