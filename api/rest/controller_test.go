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

package rest_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optakt/minichain/api/rest"
	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/node"
	"github.com/optakt/minichain/testing/mocks"
)

func TestController_GetStatus(t *testing.T) {
	nodeMock := mocks.BaselineNode(t)
	c := rest.NewController(mocks.NoopLogger, nodeMock)

	ctx, rec := getContext(t, "/")

	err := c.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	var got rest.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	want := nodeMock.Snapshot()
	assert.Equal(t, len(want.Chain), got.ChainLength)
	assert.Equal(t, len(want.Unmined), got.UnminedLength)
	assert.Equal(t, want.Unmined, got.Unmined)
	require.Len(t, got.Chain, len(want.Chain))
	for i := range want.Chain {
		assert.Equal(t, want.Chain[i].Hash, got.Chain[i].Hash)
		assert.Equal(t, want.Chain[i].PreviousHash, got.Chain[i].PreviousHash)
	}
}

func TestController_AddTransaction(t *testing.T) {
	tests := []struct {
		desc string

		form url.Values

		wantStatus int
		wantTx     chain.Transaction
	}{
		{
			desc: "nominal case",

			form: url.Values{"transaction": {"alice pays bob"}},

			wantStatus: http.StatusCreated,
			wantTx:     "alice pays bob",
		},
		{
			desc: "missing transaction",

			form: url.Values{"other": {"value"}},

			wantStatus: http.StatusBadRequest,
		},
		{
			desc: "empty transaction",

			form: url.Values{"transaction": {""}},

			wantStatus: http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			var added []chain.Transaction
			nodeMock := mocks.BaselineNode(t)
			nodeMock.AddTransactionFunc = func(tx chain.Transaction) {
				added = append(added, tx)
			}
			c := rest.NewController(mocks.NoopLogger, nodeMock)

			ctx, rec := postContext(t, "/add_transaction", test.form)

			err := c.AddTransaction(ctx)

			if test.wantStatus != http.StatusCreated {
				assertStatus(t, test.wantStatus, err)
				assert.Empty(t, added)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantStatus, rec.Code)
			assert.Equal(t, []chain.Transaction{test.wantTx}, added)
		})
	}
}

func TestController_Mine(t *testing.T) {
	tests := []struct {
		desc string

		mine func(context.Context) (*chain.Block, error)

		wantStatus int
		wantLength int
	}{
		{
			desc: "nominal case",

			mine: func(context.Context) (*chain.Block, error) {
				return mocks.GenericBlock, nil
			},

			wantStatus: http.StatusOK,
			wantLength: 2,
		},
		{
			desc: "empty pool",

			mine: func(context.Context) (*chain.Block, error) {
				return nil, nil
			},

			wantStatus: http.StatusOK,
			wantLength: 2,
		},
		{
			desc: "proof-of-work exhausted",

			mine: func(context.Context) (*chain.Block, error) {
				return nil, fmt.Errorf("could not solve: %w", chain.ErrExhausted)
			},

			wantStatus: http.StatusServiceUnavailable,
		},
		{
			desc: "internal error",

			mine: func(context.Context) (*chain.Block, error) {
				return nil, mocks.GenericError
			},

			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			nodeMock := mocks.BaselineNode(t)
			nodeMock.MineFunc = test.mine
			c := rest.NewController(mocks.NoopLogger, nodeMock)

			ctx, rec := getContext(t, "/mine")

			err := c.Mine(ctx)

			if test.wantStatus != http.StatusOK {
				assertStatus(t, test.wantStatus, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantStatus, rec.Code)

			var got rest.MineResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, test.wantLength, got.ChainLength)
		})
	}
}

func TestController_RegisterPeer(t *testing.T) {
	tests := []struct {
		desc string

		form     url.Values
		register func(string) error

		wantStatus int
	}{
		{
			desc: "nominal case with IP address",

			form: url.Values{"peer": {"127.0.0.1:5001"}},

			wantStatus: http.StatusCreated,
		},
		{
			desc: "nominal case with host name",

			form: url.Values{"peer": {"node-2.local:8080"}},

			wantStatus: http.StatusCreated,
		},
		{
			desc: "missing peer",

			form: url.Values{},

			wantStatus: http.StatusBadRequest,
		},
		{
			desc: "peer without port",

			form: url.Values{"peer": {"127.0.0.1"}},

			wantStatus: http.StatusBadRequest,
		},
		{
			desc: "peer that is not an address",

			form: url.Values{"peer": {"not an address"}},

			wantStatus: http.StatusBadRequest,
		},
		{
			desc: "node failure",

			form: url.Values{"peer": {"127.0.0.1:5001"}},
			register: func(string) error {
				return mocks.GenericError
			},

			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			var registered []string
			nodeMock := mocks.BaselineNode(t)
			nodeMock.RegisterPeerFunc = func(address string) error {
				registered = append(registered, address)
				if test.register != nil {
					return test.register(address)
				}
				return nil
			}
			c := rest.NewController(mocks.NoopLogger, nodeMock)

			ctx, rec := postContext(t, "/register_peer", test.form)

			err := c.RegisterPeer(ctx)

			if test.wantStatus != http.StatusCreated {
				assertStatus(t, test.wantStatus, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.wantStatus, rec.Code)
			assert.Equal(t, []string{test.form.Get("peer")}, registered)
		})
	}
}

func TestController_Consensus(t *testing.T) {
	tests := []struct {
		desc string

		outcome node.Outcome
		err     error

		wantStatus  int
		wantOutcome string
	}{
		{
			desc: "chain replaced",

			outcome: node.Replaced,

			wantStatus:  http.StatusOK,
			wantOutcome: "replaced",
		},
		{
			desc: "chain unchanged",

			outcome: node.Unchanged,

			wantStatus:  http.StatusOK,
			wantOutcome: "unchanged",
		},
		{
			desc: "node failure",

			err: mocks.GenericError,

			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			nodeMock := mocks.BaselineNode(t)
			nodeMock.ConsensusFunc = func(context.Context) (node.Outcome, error) {
				return test.outcome, test.err
			}
			c := rest.NewController(mocks.NoopLogger, nodeMock)

			ctx, rec := getContext(t, "/consensus")

			err := c.Consensus(ctx)

			if test.wantStatus != http.StatusOK {
				assertStatus(t, test.wantStatus, err)
				return
			}
			require.NoError(t, err)

			var got struct {
				Outcome     string `json:"outcome"`
				ChainLength int    `json:"chain_length"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, test.wantOutcome, got.Outcome)
			assert.Equal(t, 2, got.ChainLength)
		})
	}
}

func TestController_GetPeers(t *testing.T) {
	c := rest.NewController(mocks.NoopLogger, mocks.BaselineNode(t))

	ctx, rec := getContext(t, "/peers")

	err := c.GetPeers(ctx)
	require.NoError(t, err)

	var got rest.PeersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, mocks.GenericAddresses(2), got.Peers)
}

func TestController_Register(t *testing.T) {
	nodeMock := mocks.BaselineNode(t)
	nodeMock.MineFunc = func(context.Context) (*chain.Block, error) {
		return nil, chain.ErrExhausted
	}

	e := echo.New()
	rest.NewController(mocks.NoopLogger, nodeMock).Register(e)

	tests := []struct {
		method string
		path   string
		form   url.Values

		wantStatus int
	}{
		{method: http.MethodGet, path: "/", wantStatus: http.StatusOK},
		{method: http.MethodPost, path: "/add_transaction", form: url.Values{"transaction": {"tx"}}, wantStatus: http.StatusCreated},
		{method: http.MethodPost, path: "/add_transaction", form: url.Values{}, wantStatus: http.StatusBadRequest},
		{method: http.MethodGet, path: "/mine", wantStatus: http.StatusServiceUnavailable},
		{method: http.MethodPost, path: "/register_peer", form: url.Values{"peer": {"localhost:5001"}}, wantStatus: http.StatusCreated},
		{method: http.MethodGet, path: "/consensus", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/peers", wantStatus: http.StatusOK},
		{method: http.MethodGet, path: "/unknown", wantStatus: http.StatusNotFound},
	}

	for _, test := range tests {
		var req *http.Request
		if test.form != nil {
			req = httptest.NewRequest(test.method, test.path, strings.NewReader(test.form.Encode()))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		} else {
			req = httptest.NewRequest(test.method, test.path, nil)
		}
		rec := httptest.NewRecorder()

		e.ServeHTTP(rec, req)

		assert.Equal(t, test.wantStatus, rec.Code, "%s %s", test.method, test.path)
		if test.wantStatus == http.StatusServiceUnavailable {
			var body struct {
				Message string `json:"message"`
				Error   string `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "could not mine block", body.Message)
			assert.Contains(t, body.Error, chain.ErrExhausted.Error())
		}
	}
}

func getContext(t *testing.T, path string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func postContext(t *testing.T, path string, form url.Values) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()

	return e.NewContext(req, rec), rec
}

func assertStatus(t *testing.T, want int, err error) {
	t.Helper()

	// Note: See https://github.com/labstack/echo/issues/593
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, want, httpErr.Code)
}
