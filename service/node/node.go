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

package node

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/optakt/minichain/models/chain"
	"github.com/optakt/minichain/service/blockchain"
	"github.com/optakt/minichain/service/pool"
)

// Node holds a chain, the pool of transactions waiting to be mined and the
// addresses of its peers. It mines pending transactions into new blocks and
// reconciles its chain with its peers using the longest valid chain rule.
type Node struct {
	log    zerolog.Logger
	cfg    Config
	worker Worker
	fetch  chain.Fetcher

	// mining serializes mining attempts, so that two attempts never mine the
	// same pending transactions.
	mining *sync.Mutex

	// mutex guards the chain, the pool and the peers.
	mutex *sync.RWMutex
	chain *blockchain.Chain
	pool  *pool.Pool
	peers map[string]struct{}
}

// Snapshot is a consistent copy of the node's chain and pending transactions.
type Snapshot struct {
	Chain   []*chain.Block
	Unmined []chain.Transaction
}

// New creates a node with a chain holding only the genesis block, an empty
// pool and no peers.
func New(log zerolog.Logger, worker Worker, fetch chain.Fetcher, options ...Option) *Node {

	cfg := DefaultConfig
	for _, option := range options {
		option(&cfg)
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxTransactions == 0 || cfg.MaxTransactions > chain.MaxTransactions {
		cfg.MaxTransactions = chain.MaxTransactions
	}

	n := Node{
		log:    log.With().Str("component", "node").Logger(),
		cfg:    cfg,
		worker: worker,
		fetch:  fetch,
		mining: &sync.Mutex{},
		mutex:  &sync.RWMutex{},
		chain:  blockchain.New(),
		pool:   pool.New(),
		peers:  make(map[string]struct{}),
	}

	return &n
}

// Restore loads the chain and the peers from the given reader. An empty store
// leaves the node as it is. A stored chain that is invalid, or that starts
// from a different genesis block, is an error.
func (n *Node) Restore(read chain.Reader) error {

	length, err := read.Length()
	if errors.Is(err, chain.ErrNotFound) {
		length = 0
	} else if err != nil {
		return fmt.Errorf("could not read chain length: %w", err)
	}

	var restored *blockchain.Chain
	if length > 0 {
		blocks := make([]*chain.Block, 0, length)
		for height := uint64(0); height < length; height++ {
			block, err := read.Block(height)
			if err != nil {
				return fmt.Errorf("could not read block (height: %d): %w", height, err)
			}
			blocks = append(blocks, block)
		}
		restored, err = blockchain.FromBlocks(blocks)
		if err != nil {
			return fmt.Errorf("could not rebuild chain: %w", err)
		}
		err = restored.Check()
		if err != nil {
			return fmt.Errorf("stored chain is invalid: %w", err)
		}
		if restored.Genesis().Hash != chain.Genesis().Hash {
			return fmt.Errorf("stored chain has genesis %s: %w", restored.Genesis().Hash, chain.ErrForeignRoot)
		}
	}

	peers, err := read.Peers()
	if err != nil {
		return fmt.Errorf("could not read peers: %w", err)
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	if restored != nil {
		n.chain = restored
	}

	// An empty store gets the genesis block, so that the next mined block can
	// be appended at height one.
	if restored == nil && n.cfg.Store != nil {
		err = n.cfg.Store.Replace(n.chain.Blocks())
		if err != nil {
			return fmt.Errorf("could not persist genesis block: %w", err)
		}
	}
	for _, address := range peers {
		n.peers[address] = struct{}{}
	}

	n.log.Info().
		Int("length", n.chain.Length()).
		Int("peers", len(n.peers)).
		Msg("node state restored")

	return nil
}

// AddTransaction adds a transaction to the pool of transactions waiting to
// be mined.
func (n *Node) AddTransaction(tx chain.Transaction) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	n.pool.Add(tx)

	n.log.Debug().Int("pending", n.pool.Len()).Msg("transaction added")
}

// Mine mines the pending transactions into a new block and appends it to the
// chain. At most MaxTransactions are mined at once, oldest first; the others
// stay pending. If there are no pending transactions, it does nothing and
// returns a nil block. The proof-of-work search runs without holding the state lock;
// transactions added in the meantime stay pending for the next attempt. If the
// chain is replaced while searching, the attempt starts over on the new tip.
// On failure, neither the chain nor the pool change.
func (n *Node) Mine(ctx context.Context) (*chain.Block, error) {

	n.mining.Lock()
	defer n.mining.Unlock()

	for {

		n.mutex.RLock()
		previous := n.chain.Last().Hash
		transactions := n.pool.Transactions()
		n.mutex.RUnlock()

		if len(transactions) == 0 {
			n.log.Debug().Msg("no pending transactions, skipping mining")
			return nil, nil
		}
		if uint(len(transactions)) > n.cfg.MaxTransactions {
			transactions = transactions[:n.cfg.MaxTransactions]
		}

		start := time.Now()
		nonce, hash, err := n.worker.Solve(ctx, previous, transactions)
		if err != nil {
			return nil, fmt.Errorf("could not solve proof-of-work: %w", err)
		}

		block := chain.NewBlock(previous, transactions).WithNonce(nonce)
		if block.Hash != hash {
			return nil, fmt.Errorf("mismatching hash for mined block (have: %s, want: %s)", block.Hash, hash)
		}

		sealed, err := n.seal(block, len(transactions))
		if err != nil {
			return nil, fmt.Errorf("could not seal block: %w", err)
		}
		if !sealed {
			n.log.Info().
				Str("previous", previous.String()).
				Msg("chain changed during mining, restarting")
			continue
		}

		n.log.Info().
			Str("hash", block.Hash.String()).
			Uint64("nonce", nonce).
			Int("transactions", len(transactions)).
			Dur("duration", time.Since(start)).
			Msg("block mined")

		return block, nil
	}
}

// seal appends the mined block and drops the mined transactions from the pool
// in one critical section. It returns false if the chain's last block is no
// longer the one the block was mined on.
func (n *Node) seal(block *chain.Block, mined int) (bool, error) {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	if n.chain.Last().Hash != block.PreviousHash {
		return false, nil
	}

	height := uint64(n.chain.Length())
	if n.cfg.Store != nil {
		err := n.cfg.Store.Append(height, block)
		if err != nil {
			return false, fmt.Errorf("could not persist block (height: %d): %w", height, err)
		}
	}

	err := n.chain.Seal(block)
	if err != nil {
		return false, fmt.Errorf("could not append block (height: %d): %w", height, err)
	}
	n.pool.Drop(mined)

	return true, nil
}

// RegisterPeer adds a peer address. Registering a known peer does nothing.
func (n *Node) RegisterPeer(address string) error {
	n.mutex.Lock()
	defer n.mutex.Unlock()

	_, ok := n.peers[address]
	if ok {
		return nil
	}

	if n.cfg.Store != nil {
		err := n.cfg.Store.Peer(address)
		if err != nil {
			return fmt.Errorf("could not persist peer (address: %s): %w", address, err)
		}
	}

	n.peers[address] = struct{}{}

	n.log.Info().Str("address", address).Int("peers", len(n.peers)).Msg("peer registered")

	return nil
}

// Consensus fetches the chain of every peer and adopts the longest valid one,
// if it is strictly longer than the local chain. Peers that cannot be reached
// or that return an invalid chain are skipped. When several peers have a
// chain of the same maximum length, the peer with the lowest address wins; on
// a tie with the local chain, the local chain is kept.
func (n *Node) Consensus(ctx context.Context) (Outcome, error) {

	n.mutex.RLock()
	peers := n.sortedPeers()
	genesis := n.chain.Genesis().Compute()
	n.mutex.RUnlock()

	// Every peer gets its own slot, so the candidates keep the order of the
	// sorted peers regardless of the order in which the fetches complete.
	candidates := make([]*blockchain.Chain, len(peers))
	var skipped *multierror.Error
	var mutex sync.Mutex

	sema := semaphore.NewWeighted(int64(n.cfg.Concurrency))
	group := errgroup.Group{}
	var aborted error
	for index, address := range peers {
		index, address := index, address

		err := ctx.Err()
		if err == nil {
			err = sema.Acquire(ctx, 1)
		}
		if err != nil {
			aborted = err
			break
		}

		group.Go(func() error {
			defer sema.Release(1)

			candidate, err := n.candidate(ctx, address, genesis)
			if err != nil {
				mutex.Lock()
				skipped = multierror.Append(skipped, fmt.Errorf("peer %s: %w", address, err))
				mutex.Unlock()
				return nil
			}

			candidates[index] = candidate
			return nil
		})
	}
	_ = group.Wait()
	if aborted != nil {
		return Unchanged, fmt.Errorf("consensus aborted: %w", aborted)
	}

	if skipped.ErrorOrNil() != nil {
		n.log.Warn().
			Err(skipped).
			Int("skipped", len(skipped.Errors)).
			Int("peers", len(peers)).
			Msg("skipped peers during consensus")
	}

	var best *blockchain.Chain
	var address string
	for index, candidate := range candidates {
		if candidate == nil {
			continue
		}
		if best != nil && candidate.Length() <= best.Length() {
			continue
		}
		best = candidate
		address = peers[index]
	}

	n.mutex.Lock()
	defer n.mutex.Unlock()

	local := n.chain.Length()
	if best == nil || best.Length() <= local {
		n.log.Debug().Int("length", local).Msg("local chain kept")
		return Unchanged, nil
	}

	if n.cfg.Store != nil {
		err := n.cfg.Store.Replace(best.Blocks())
		if err != nil {
			return Unchanged, fmt.Errorf("could not persist replacement chain: %w", err)
		}
	}

	n.chain = best

	n.log.Info().
		Str("peer", address).
		Int("previous_length", local).
		Int("length", best.Length()).
		Msg("local chain replaced")

	return Replaced, nil
}

// candidate fetches the chain of a peer and checks that it can replace the
// local chain.
func (n *Node) candidate(ctx context.Context, address string, genesis chain.Hash) (*blockchain.Chain, error) {

	blocks, err := n.fetch.Chain(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("could not fetch chain: %w", err)
	}

	candidate, err := blockchain.FromBlocks(blocks)
	if err != nil {
		return nil, fmt.Errorf("could not rebuild chain: %w", err)
	}

	for height, block := range candidate.Blocks() {
		if uint(len(block.Transactions)) > n.cfg.MaxTransactions {
			return nil, fmt.Errorf("block at height %d has %d transactions: %w", height, len(block.Transactions), chain.ErrOversized)
		}
	}

	err = candidate.Check()
	if err != nil {
		return nil, fmt.Errorf("invalid chain: %w", err)
	}

	if candidate.Genesis().Hash != genesis {
		return nil, fmt.Errorf("chain starts at %s: %w", candidate.Genesis().Hash, chain.ErrForeignRoot)
	}

	if !n.cfg.WorkCheck {
		return candidate, nil
	}
	for height, block := range candidate.Blocks() {
		if height == 0 {
			continue
		}
		if !n.worker.Verify(block) {
			return nil, fmt.Errorf("block at height %d: %w", height, chain.ErrNoWork)
		}
	}

	return candidate, nil
}

// Snapshot returns a copy of the chain and of the pending transactions.
func (n *Node) Snapshot() Snapshot {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	s := Snapshot{
		Chain:   n.chain.Blocks(),
		Unmined: n.pool.Transactions(),
	}

	return s
}

// Length returns the number of blocks of the chain, including genesis.
func (n *Node) Length() int {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	return n.chain.Length()
}

// Pending returns the number of transactions waiting to be mined.
func (n *Node) Pending() int {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	return n.pool.Len()
}

// Peers returns the registered peer addresses in sorted order.
func (n *Node) Peers() []string {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	return n.sortedPeers()
}

// Valid returns whether the local chain is currently valid.
func (n *Node) Valid() bool {
	n.mutex.RLock()
	defer n.mutex.RUnlock()

	return n.chain.IsValid()
}

func (n *Node) sortedPeers() []string {
	peers := make([]string, 0, len(n.peers))
	for address := range n.peers {
		peers = append(peers, address)
	}
	sort.Strings(peers)
	return peers
}
