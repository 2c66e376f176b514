package service

import (
	"context"
	"time"

	"chain-reverse-resolver/internal/domain/entity"
)

// RPCChecker defines the interface for checking RPC endpoint status.
type RPCChecker interface {
	// CheckRPC reports whether the endpoint answers and serves expectedChainID.
	CheckRPC(ctx context.Context, rpcURL entity.RPCURL, expectedChainID uint64) (bool, time.Duration, error)
}

// EndpointProvider hands out the upstream endpoints currently considered healthy, best first.
type EndpointProvider interface {
	Endpoints() []entity.RPCURL
}
