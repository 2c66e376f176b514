// Package memstate is an in-memory development chain. It keeps account storage in real
// Merkle-Patricia tries so its proofs verify exactly like those of a node.
package memstate

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time checks
var (
	_ domainRepo.StateSource   = (*Chain)(nil)
	_ domainService.HeadSource = (*Chain)(nil)
)

// maxSnapshots is how many recent blocks stay provable.
const maxSnapshots = 256

type snapshot struct {
	commitment entity.Commitment
	state      *trie.Trie
	storage    map[common.Address]*trie.Trie
}

// Chain is a deterministic in-memory chain. Every write seals a new block; two chains given the
// same writes in the same order agree on every block number and state root.
type Chain struct {
	mu        sync.Mutex
	chainID   uint64
	db        *triedb.Database
	accounts  map[common.Address]map[common.Hash]common.Hash
	snapshots map[uint64]*snapshot
	head      *snapshot
	logger    *zap.Logger
}

// NewChain creates a chain whose genesis block holds no accounts.
func NewChain(chainID uint64, logger *zap.Logger) *Chain {
	c := &Chain{
		chainID:   chainID,
		db:        triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil),
		accounts:  make(map[common.Address]map[common.Hash]common.Hash),
		snapshots: make(map[uint64]*snapshot),
		logger:    logger.Named("MemState"),
	}
	if _, err := c.seal(0); err != nil {
		panic(err)
	}
	return c
}

// ChainID returns the id of the chain.
func (c *Chain) ChainID() uint64 {
	return c.chainID
}

// SetStorage writes values into the storage of account and seals a new block. Zero words
// delete the slot.
func (c *Chain) SetStorage(account common.Address, values entity.StorageValues) (entity.Commitment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	storage, ok := c.accounts[account]
	if !ok {
		storage = make(map[common.Hash]common.Hash, len(values))
		c.accounts[account] = storage
	}
	for slot, value := range values {
		if value == (common.Hash{}) {
			delete(storage, slot)
			continue
		}
		storage[slot] = value
	}

	snap, err := c.seal(c.head.commitment.BlockNumber + 1)
	if err != nil {
		return entity.Commitment{}, err
	}
	c.logger.Debug("Sealed block",
		zap.Uint64("block", snap.commitment.BlockNumber),
		zap.String("stateRoot", snap.commitment.StateRoot.Hex()),
		zap.String("account", account.Hex()),
		zap.Int("writes", len(values)),
	)
	return snap.commitment, nil
}

// StorageAt returns the current storage word of account at slot.
func (c *Chain) StorageAt(account common.Address, slot common.Hash) common.Hash {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accounts[account][slot]
}

// Head returns the latest block.
func (c *Chain) Head(_ context.Context) (entity.Commitment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head.commitment, nil
}

// GetProof proves account and slots at the block named by commitment. The state root must
// match the block.
func (c *Chain) GetProof(
	ctx context.Context,
	account common.Address,
	slots []common.Hash,
	commitment entity.Commitment,
) (*entity.AccountProof, []entity.StorageProof, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[commitment.BlockNumber]
	if !ok || snap.commitment.StateRoot != commitment.StateRoot {
		return nil, nil, fmt.Errorf("%w: unknown state %d/%s",
			domain.ErrUpstreamSourceFailure, commitment.BlockNumber, commitment.StateRoot.Hex())
	}

	accountNodes, err := prove(snap.state, crypto.Keccak256(account[:]))
	if err != nil {
		return nil, nil, err
	}

	storageTrie := snap.storage[account]
	proofs := make([]entity.StorageProof, len(slots))
	for i, slot := range slots {
		proofs[i].Slot = slot
		if storageTrie == nil {
			continue
		}
		key := crypto.Keccak256(slot[:])
		nodes, err := prove(storageTrie, key)
		if err != nil {
			return nil, nil, err
		}
		raw, err := storageTrie.Get(key)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: read slot %s: %v", domain.ErrUpstreamSourceFailure, slot, err)
		}
		if len(raw) > 0 {
			_, content, _, err := rlp.Split(raw)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: decode slot %s: %v", domain.ErrUpstreamSourceFailure, slot, err)
			}
			proofs[i].Value = common.BytesToHash(content)
		}
		proofs[i].Proof = nodes
	}

	return &entity.AccountProof{Proof: accountNodes}, proofs, nil
}

// seal rebuilds the tries from the current storage and records them as block number.
// The caller holds mu.
func (c *Chain) seal(number uint64) (*snapshot, error) {
	state := trie.NewEmpty(c.db)
	storageTries := make(map[common.Address]*trie.Trie, len(c.accounts))

	for addr, storage := range c.accounts {
		if len(storage) == 0 {
			continue
		}
		st := trie.NewEmpty(c.db)
		for slot, value := range storage {
			enc, err := rlp.EncodeToBytes(common.TrimLeftZeroes(value[:]))
			if err != nil {
				return nil, err
			}
			if err := st.Update(crypto.Keccak256(slot[:]), enc); err != nil {
				return nil, err
			}
		}
		storageTries[addr] = st

		account := types.StateAccount{
			Balance:  new(uint256.Int),
			Root:     st.Hash(),
			CodeHash: types.EmptyCodeHash.Bytes(),
		}
		enc, err := rlp.EncodeToBytes(&account)
		if err != nil {
			return nil, err
		}
		if err := state.Update(crypto.Keccak256(addr[:]), enc); err != nil {
			return nil, err
		}
	}

	snap := &snapshot{
		commitment: entity.Commitment{BlockNumber: number, StateRoot: state.Hash()},
		state:      state,
		storage:    storageTries,
	}
	c.snapshots[number] = snap
	c.head = snap
	if number >= maxSnapshots {
		delete(c.snapshots, number-maxSnapshots)
	}
	return snap, nil
}

// prove collects the proof nodes of key.
func prove(t *trie.Trie, key []byte) ([][]byte, error) {
	db := memorydb.New()
	if err := t.Prove(key, db); err != nil {
		return nil, fmt.Errorf("%w: prove: %v", domain.ErrUpstreamSourceFailure, err)
	}
	it := db.NewIterator(nil, nil)
	defer it.Release()

	var nodes [][]byte
	for it.Next() {
		nodes = append(nodes, common.CopyBytes(it.Value()))
	}
	return nodes, it.Error()
}
