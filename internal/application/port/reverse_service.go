package port

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/domain/entity"
)

// ReverseService defines the caller-facing side of the resolver: every call runs to an answer,
// following offchain lookups on the way.
type ReverseService interface {
	// CoinType returns the coin type the resolver answers for.
	CoinType() entity.CoinType

	// ChainID returns the chain encoded by the coin type.
	ChainID() (uint64, error)

	// SupportsInterface reports whether the resolver implements the interface id.
	SupportsInterface(id [4]byte) bool

	// Resolve answers a profile call for a DNS-encoded name.
	Resolve(ctx context.Context, dnsName, call []byte) ([]byte, error)

	// ResolveNames returns one name per address, in input order.
	ResolveNames(ctx context.Context, addrs []common.Address) ([]string, error)

	// ResolveName returns the primary name of a single address.
	ResolveName(ctx context.Context, addr common.Address) (string, error)
}
