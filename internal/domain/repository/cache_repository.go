package repository

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/domain/entity"
)

// ProofKey identifies one proof at one state of one chain. Keys never match across state roots,
// so cached proofs cannot leak between blocks.
type ProofKey struct {
	ChainID   uint64
	StateRoot common.Hash
	Account   common.Address
	Slot      common.Hash
}

// String renders the key for use by string-keyed caches.
func (k ProofKey) String() string {
	return strconv.FormatUint(k.ChainID, 10) + ":" + k.StateRoot.Hex() + ":" + k.Account.Hex() + ":" + k.Slot.Hex()
}

// ProofCache defines the interface for the gateway's read-through proof cache.
type ProofCache interface {
	// GetStorageProof retrieves a cached storage proof.
	GetStorageProof(ctx context.Context, key ProofKey) (entity.StorageProof, bool, error)

	// SetStorageProof stores a storage proof.
	SetStorageProof(ctx context.Context, key ProofKey, proof entity.StorageProof) error

	// GetAccountProof retrieves a cached account proof. The key's Slot is ignored.
	GetAccountProof(ctx context.Context, key ProofKey) (entity.AccountProof, bool, error)

	// SetAccountProof stores an account proof. The key's Slot is ignored.
	SetAccountProof(ctx context.Context, key ProofKey, proof entity.AccountProof) error

	// SetEnabled switches the cache on or off. Disabling drops every entry.
	SetEnabled(enabled bool)

	// Enabled reports whether the cache serves and stores entries.
	Enabled() bool
}
