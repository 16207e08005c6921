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
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/optakt/minichain/models/chain"
)

// Controller serves the HTTP API of a node.
type Controller struct {
	log      zerolog.Logger
	node     Node
	validate *Validator
}

// NewController creates a controller for the given node.
func NewController(log zerolog.Logger, node Node) *Controller {

	c := Controller{
		log:      log.With().Str("component", "rest_controller").Logger(),
		node:     node,
		validate: NewValidator(),
	}

	return &c
}

// Register adds the routes of the API to the given server.
func (c *Controller) Register(server *echo.Echo) {
	server.GET("/", c.GetStatus)
	server.POST("/add_transaction", c.AddTransaction)
	server.GET("/mine", c.Mine)
	server.POST("/register_peer", c.RegisterPeer)
	server.GET("/consensus", c.Consensus)
	server.GET("/peers", c.GetPeers)
}

// GetStatus returns the full chain and the pending transactions. Peers use it
// to fetch each other's chain during consensus.
func (c *Controller) GetStatus(ctx echo.Context) error {

	snapshot := c.node.Snapshot()

	res := StatusResponse{
		Chain:         snapshot.Chain,
		ChainLength:   len(snapshot.Chain),
		Unmined:       snapshot.Unmined,
		UnminedLength: len(snapshot.Unmined),
	}

	return ctx.JSON(http.StatusOK, res)
}

// AddTransaction adds the transaction of the form field `transaction` to the
// pending transactions of the node.
func (c *Controller) AddTransaction(ctx echo.Context) error {

	var req TransactionRequest
	err := ctx.Bind(&req)
	if err != nil {
		return newHTTPError(http.StatusBadRequest, "invalid request format", err)
	}
	err = c.validate.Request(req)
	if err != nil {
		return newHTTPError(http.StatusBadRequest, "invalid transaction", err)
	}

	c.node.AddTransaction(chain.Transaction(req.Transaction))

	return ctx.NoContent(http.StatusCreated)
}

// Mine mines the pending transactions into a new block. The block is left out
// of the response when nothing was pending. A proof-of-work search that ran
// out of attempts, or a request that was canceled, is reported as unavailable.
func (c *Controller) Mine(ctx echo.Context) error {

	block, err := c.node.Mine(ctx.Request().Context())
	if errors.Is(err, chain.ErrExhausted) || errors.Is(err, context.Canceled) {
		return newHTTPError(http.StatusServiceUnavailable, "could not mine block", err)
	}
	if err != nil {
		c.log.Error().Err(err).Msg("mining failed")
		return newHTTPError(http.StatusInternalServerError, "could not mine block", err)
	}

	res := MineResponse{
		ChainLength: c.node.Length(),
		Block:       block,
	}

	return ctx.JSON(http.StatusOK, res)
}

// RegisterPeer registers the `host:port` address of the form field `peer`.
func (c *Controller) RegisterPeer(ctx echo.Context) error {

	var req PeerRequest
	err := ctx.Bind(&req)
	if err != nil {
		return newHTTPError(http.StatusBadRequest, "invalid request format", err)
	}
	err = c.validate.Request(req)
	if err != nil {
		return newHTTPError(http.StatusBadRequest, "invalid peer", err)
	}

	err = c.node.RegisterPeer(req.Peer)
	if err != nil {
		c.log.Error().Err(err).Str("peer", req.Peer).Msg("peer registration failed")
		return newHTTPError(http.StatusInternalServerError, "could not register peer", err)
	}

	return ctx.NoContent(http.StatusCreated)
}

// Consensus replaces the local chain with the longest valid chain of the
// peers, if it is longer, and reports whether it did.
func (c *Controller) Consensus(ctx echo.Context) error {

	outcome, err := c.node.Consensus(ctx.Request().Context())
	if errors.Is(err, context.Canceled) {
		return newHTTPError(http.StatusServiceUnavailable, "could not run consensus", err)
	}
	if err != nil {
		c.log.Error().Err(err).Msg("consensus failed")
		return newHTTPError(http.StatusInternalServerError, "could not run consensus", err)
	}

	res := ConsensusResponse{
		Outcome:     outcome,
		ChainLength: c.node.Length(),
	}

	return ctx.JSON(http.StatusOK, res)
}

// GetPeers returns the registered peer addresses in sorted order.
func (c *Controller) GetPeers(ctx echo.Context) error {

	res := PeersResponse{
		Peers: c.node.Peers(),
	}

	return ctx.JSON(http.StatusOK, res)
}
