package rpc

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain/entity"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time check
var _ domainService.HeadSource = (*HeadSource)(nil)

// HeadSource binds commits to the latest (or finalized) header of the target chain.
type HeadSource struct {
	pool      *clientPool
	finalized bool
	logger    *zap.Logger
}

// NewHeadSource creates a head source over endpoints.
func NewHeadSource(endpoints domainService.EndpointProvider, finalized bool, logger *zap.Logger) *HeadSource {
	named := logger.Named("RPCHeadSource")
	return &HeadSource{
		pool:      newClientPool(endpoints, named),
		finalized: finalized,
		logger:    named,
	}
}

// Head returns block number and state root of the chosen head.
func (h *HeadSource) Head(ctx context.Context) (entity.Commitment, error) {
	var number *big.Int
	if h.finalized {
		number = big.NewInt(int64(gethrpc.FinalizedBlockNumber))
	}

	var header *types.Header
	err := h.pool.each(ctx, func(c *gethrpc.Client) error {
		hdr, err := ethclient.NewClient(c).HeaderByNumber(ctx, number)
		if err != nil {
			return err
		}
		header = hdr
		return nil
	})
	if err != nil {
		return entity.Commitment{}, err
	}

	return entity.Commitment{BlockNumber: header.Number.Uint64(), StateRoot: header.Root}, nil
}

// Close releases upstream connections.
func (h *HeadSource) Close() {
	h.pool.Close()
}
