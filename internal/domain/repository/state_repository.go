package repository

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/domain/entity"
)

// StateSource reads proven account storage of the target chain.
type StateSource interface {
	// GetProof proves account and the given storage slots at the state named by commitment.
	GetProof(
		ctx context.Context,
		account common.Address,
		slots []common.Hash,
		commitment entity.Commitment,
	) (*entity.AccountProof, []entity.StorageProof, error)
}

// NameRegistrar maps an address to its primary name. "" means no name is set.
type NameRegistrar interface {
	NameForAddr(ctx context.Context, addr common.Address) (string, error)
}
