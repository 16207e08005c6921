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
	"encoding/json"
	"errors"
	"os"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/optakt/minichain/codec/zbor"
	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/blockchain"
	"github.com/optakt/minichain/service/storage"
	"github.com/optakt/minichain/service/store"
)

const (
	success = 0
	failure = 1
)

func main() {
	os.Exit(run())
}

func run() int {

	// Command line parameter initialization.
	var (
		flagBegin  uint64
		flagData   string
		flagFinish uint64
		flagLevel  string
		flagOutput string
		flagVerify bool
	)

	pflag.Uint64VarP(&flagBegin, "begin", "b", 0, "lowest block height to include in extraction")
	pflag.StringVarP(&flagData, "data", "d", "data", "database directory of the node")
	pflag.Uint64VarP(&flagFinish, "finish", "f", 100_000_000, "highest block height to include in extraction")
	pflag.StringVarP(&flagLevel, "level", "l", "info", "log level for JSON logger output")
	pflag.StringVarP(&flagOutput, "output", "o", "", "file to write the blocks to (empty writes to standard output)")
	pflag.BoolVarP(&flagVerify, "verify", "v", false, "check the links of the whole stored chain before extracting")

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

	// Initialize the node database we will read from.
	opts := chain.DefaultOptions(flagData).WithReadOnly(true)
	db, err := badger.Open(opts)
	if err != nil {
		log.Error().Str("data", flagData).Err(err).Msg("could not open node database")
		return failure
	}
	defer db.Close()

	disk, err := store.New(log, db, storage.New(zbor.NewCodec()))
	if err != nil {
		log.Error().Err(err).Msg("could not initialize disk store")
		return failure
	}

	length, err := disk.Length()
	if err != nil && !errors.Is(err, chain.ErrNotFound) {
		log.Error().Err(err).Msg("could not retrieve chain length")
		return failure
	}
	if length == 0 {
		log.Warn().Msg("no chain stored")
		return success
	}

	if flagBegin > flagFinish {
		flagBegin, flagFinish = flagFinish, flagBegin
	}
	if flagFinish >= length {
		flagFinish = length - 1
	}

	var blocks []*chain.Block
	if flagVerify {
		all := make([]*chain.Block, 0, length)
		for height := uint64(0); height < length; height++ {
			block, err := disk.Block(height)
			if err != nil {
				log.Error().Uint64("height", height).Err(err).Msg("could not retrieve block")
				return failure
			}
			all = append(all, block)
		}
		c, err := blockchain.FromBlocks(all)
		if err != nil {
			log.Error().Err(err).Msg("could not rebuild chain")
			return failure
		}
		err = c.Check()
		if err != nil {
			log.Error().Err(err).Msg("stored chain is invalid")
			return failure
		}
		log.Info().Uint64("length", length).Msg("stored chain verified")
	}

	for height := flagBegin; height <= flagFinish && height < length; height++ {
		block, err := disk.Block(height)
		if err != nil {
			log.Error().Uint64("height", height).Err(err).Msg("could not retrieve block")
			return failure
		}
		blocks = append(blocks, block)
	}

	output := os.Stdout
	if flagOutput != "" {
		file, err := os.Create(flagOutput)
		if err != nil {
			log.Error().Str("output", flagOutput).Err(err).Msg("could not create output file")
			return failure
		}
		defer file.Close()
		output = file
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")
	err = encoder.Encode(blocks)
	if err != nil {
		log.Error().Err(err).Msg("could not encode blocks")
		return failure
	}

	log.Info().
		Uint64("begin", flagBegin).
		Uint64("finish", flagFinish).
		Int("blocks", len(blocks)).
		Msg("blocks extracted")

	return success
}
