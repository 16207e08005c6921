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

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/optakt/minichain/models/chain"
)

// Client fetches the chain of peers over their HTTP API.
type Client struct {
	log  zerolog.Logger
	cfg  Config
	http *http.Client
}

type status struct {
	Chain []*chain.Block `json:"chain"`
}

// New creates a new peer client.
func New(log zerolog.Logger, options ...Option) *Client {

	cfg := DefaultConfig
	for _, option := range options {
		option(&cfg)
	}

	c := Client{
		log: log.With().Str("component", "peer_client").Logger(),
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
	}

	return &c
}

// Chain requests the full chain of the peer at the given address. Any failure
// is wrapped in chain.ErrUnreachable. Network errors and server errors are
// retried; other responses are not.
func (c *Client) Chain(ctx context.Context, address string) ([]*chain.Block, error) {

	url := fmt.Sprintf("http://%s/", address)

	var blocks []*chain.Block
	attempt := 0
	op := func() error {
		attempt++
		var err error
		blocks, err = c.fetch(ctx, url)
		if err != nil {
			c.log.Debug().Err(err).Str("address", address).Int("attempt", attempt).Msg("peer request failed")
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.Interval
	policy.MaxElapsedTime = 0
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.cfg.Retries), ctx))
	if err != nil {
		return nil, fmt.Errorf("could not fetch chain (address: %s, attempts: %d): %s: %w", address, attempt, err, chain.ErrUnreachable)
	}

	return blocks, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]*chain.Block, error) {

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("could not build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not execute request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= http.StatusInternalServerError {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil, fmt.Errorf("unexpected status code (%d)", res.StatusCode)
	}
	if res.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("unexpected status code (%d)", res.StatusCode))
	}

	// One byte more than allowed is read, so that a response of exactly the
	// maximum size can be told apart from a larger one.
	body := &io.LimitedReader{R: res.Body, N: c.cfg.MaxSize + 1}
	var s status
	err = json.NewDecoder(body).Decode(&s)
	if body.N <= 0 {
		return nil, backoff.Permanent(fmt.Errorf("response exceeds maximum size (%d bytes)", c.cfg.MaxSize))
	}
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("could not decode response: %w", err))
	}

	return s.Chain, nil
}
