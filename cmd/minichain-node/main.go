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

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/ziflex/lecho/v2"

	"github.com/optakt/minichain/api/client"
	"github.com/optakt/minichain/api/rest"
	"github.com/optakt/minichain/codec/zbor"
	"github.com/optakt/minichain/engine"
	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/metrics"
	"github.com/optakt/minichain/service/node"
	"github.com/optakt/minichain/service/storage"
	"github.com/optakt/minichain/service/store"
	"github.com/optakt/minichain/service/syncer"
	"github.com/optakt/minichain/service/work"
)

const (
	success = 0
	failure = 1
)

func main() {
	os.Exit(run())
}

func run() int {

	// Signal catching for clean shutdown.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)

	// Command line parameter initialization.
	var (
		flagAddress     string
		flagCache       uint64
		flagData        string
		flagDifficulty  uint
		flagLevel       string
		flagMaxAttempts uint64
		flagMaxSize     int64
		flagMaxTxs      uint
		flagMetrics     string
		flagPeers       []string
		flagRetries     uint64
		flagSync        time.Duration
		flagTimeout     time.Duration
		flagWorkCheck   bool
	)

	pflag.StringVarP(&flagAddress, "address", "a", "127.0.0.1:5000", "address to serve the node API on")
	pflag.Uint64VarP(&flagCache, "cache", "c", store.DefaultConfig.CacheSize, "number of blocks kept in the read cache")
	pflag.StringVarP(&flagData, "data", "d", "", "database directory for the chain and peers (empty keeps everything in memory)")
	pflag.UintVarP(&flagDifficulty, "difficulty", "w", 16, "number of leading zero bits required in block hashes")
	pflag.StringVarP(&flagLevel, "level", "l", "info", "log output level")
	pflag.Uint64Var(&flagMaxAttempts, "max-attempts", 0, "maximum number of nonces tried per mining attempt (0 for unbounded)")
	pflag.Int64Var(&flagMaxSize, "max-size", client.DefaultConfig.MaxSize, "maximum size in bytes of a peer response")
	pflag.UintVar(&flagMaxTxs, "max-transactions", node.DefaultConfig.MaxTransactions, "maximum number of transactions in a block")
	pflag.StringVarP(&flagMetrics, "metrics", "m", "", "address to serve Prometheus metrics on (empty disables)")
	pflag.StringSliceVarP(&flagPeers, "peer", "p", nil, "address of a peer to register at startup (repeatable)")
	pflag.Uint64VarP(&flagRetries, "retries", "r", client.DefaultConfig.Retries, "number of retries for failed peer requests")
	pflag.DurationVarP(&flagSync, "sync-interval", "s", 0, "interval between automatic consensus rounds (0 disables)")
	pflag.DurationVarP(&flagTimeout, "timeout", "t", client.DefaultConfig.Timeout, "timeout for a single peer request")
	pflag.BoolVar(&flagWorkCheck, "work-check", false, "reject peer chains whose blocks do not satisfy the difficulty")

	pflag.Parse()

	// Logger initialization.
	zerolog.TimestampFunc = func() time.Time { return time.Now().UTC() }
	log := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.DebugLevel)
	level, err := zerolog.ParseLevel(flagLevel)
	if err != nil {
		log.Error().Str("level", flagLevel).Err(err).Msg("could not parse log level")
		return failure
	}
	log = log.Level(level)
	elog := lecho.From(log)

	// Metrics registry, only served if an address is given.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Peer client and proof-of-work initialization.
	var fetch chain.Fetcher = client.New(log,
		client.WithTimeout(flagTimeout),
		client.WithRetries(flagRetries),
		client.WithMaxSize(flagMaxSize),
	)
	fetch = metrics.NewFetcher(fetch, reg)
	worker := work.New(flagDifficulty, work.WithMaxAttempts(flagMaxAttempts))

	options := []node.Option{
		node.WithWorkCheck(flagWorkCheck),
		node.WithMaxTransactions(flagMaxTxs),
	}

	// Optional persistence of the chain and the peers.
	var disk *store.Disk
	if flagData != "" {
		db, err := badger.Open(chain.DefaultOptions(flagData))
		if err != nil {
			log.Error().Str("data", flagData).Err(err).Msg("could not open database")
			return failure
		}
		defer db.Close()

		err = metrics.RegisterBadgerMetrics(reg)
		if err != nil {
			log.Error().Err(err).Msg("could not register database metrics")
			return failure
		}

		lib := storage.New(zbor.NewCodec())
		disk, err = store.New(log, db, lib, store.WithCacheSize(flagCache))
		if err != nil {
			log.Error().Err(err).Msg("could not initialize disk store")
			return failure
		}

		options = append(options, node.WithStore(disk))
	}

	// Node initialization.
	n := node.New(log, worker, fetch, options...)
	if disk != nil {
		err = n.Restore(disk)
		if err != nil {
			log.Error().Str("data", flagData).Err(err).Msg("could not restore node state")
			return failure
		}
	}
	for _, address := range flagPeers {
		err = n.RegisterPeer(address)
		if err != nil {
			log.Error().Str("peer", address).Err(err).Msg("could not register bootstrap peer")
			return failure
		}
	}
	instrumented := metrics.NewNode(n, reg)

	// REST API initialization.
	ctrl := rest.NewController(log, instrumented)
	server := echo.New()
	server.HideBanner = true
	server.HidePort = true
	server.Logger = elog
	server.Use(lecho.Middleware(lecho.Config{Logger: elog}))
	ctrl.Register(server)

	log.Info().
		Str("address", flagAddress).
		Uint("difficulty", worker.Difficulty()).
		Int("length", n.Length()).
		Int("peers", len(n.Peers())).
		Msg("node initialized")

	// This section launches the main executing components in their own
	// goroutine, so they can run concurrently. Afterwards, we wait for an
	// interrupt signal, a failure or completion, and then stop everything.
	e := engine.New(log, "minichain node", sig).
		Component(
			"rest api",
			func() error {
				err := server.Start(flagAddress)
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			},
			func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				err := server.Shutdown(ctx)
				if err != nil {
					log.Error().Err(err).Msg("could not shut down rest api")
				}
			},
		)

	if flagMetrics != "" {
		msvr := metrics.NewServer(log, flagMetrics, reg)
		e.Component("metrics server", msvr.Start, msvr.Stop)
	}

	if flagSync > 0 {
		sync := syncer.New(log, instrumented, flagSync)
		e.Component("syncer", sync.Run, sync.Stop)
	}

	err = e.Run()
	if err != nil {
		log.Error().Err(err).Msg("node failed")
		return failure
	}

	return success
}
