package rpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient/gethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time check
var _ domainRepo.StateSource = (*StateSource)(nil)

// StateSource reads proofs with eth_getProof from the healthy upstream endpoints, in order.
type StateSource struct {
	pool   *clientPool
	logger *zap.Logger
}

// NewStateSource creates an eth_getProof state source.
func NewStateSource(endpoints domainService.EndpointProvider, logger *zap.Logger) *StateSource {
	named := logger.Named("RPCStateSource")
	return &StateSource{
		pool:   newClientPool(endpoints, named),
		logger: named,
	}
}

// GetProof proves account and slots at commitment's block.
func (s *StateSource) GetProof(
	ctx context.Context,
	account common.Address,
	slots []common.Hash,
	commitment entity.Commitment,
) (*entity.AccountProof, []entity.StorageProof, error) {
	keys := make([]string, len(slots))
	for i, slot := range slots {
		keys[i] = slot.Hex()
	}
	block := new(big.Int).SetUint64(commitment.BlockNumber)

	var result *gethclient.AccountResult
	err := s.pool.each(ctx, func(c *gethrpc.Client) error {
		res, err := gethclient.New(c).GetProof(ctx, account, keys, block)
		if err != nil {
			return err
		}
		if len(res.StorageProof) != len(slots) {
			return fmt.Errorf("got %d storage proofs for %d slots", len(res.StorageProof), len(slots))
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	accountProof, err := decodeNodes(result.AccountProof)
	if err != nil {
		return nil, nil, err
	}
	storage := make([]entity.StorageProof, len(slots))
	for i, sp := range result.StorageProof {
		nodes, err := decodeNodes(sp.Proof)
		if err != nil {
			return nil, nil, err
		}
		value := common.Hash{}
		if sp.Value != nil {
			value = common.BigToHash(sp.Value)
		}
		storage[i] = entity.StorageProof{Slot: slots[i], Value: value, Proof: nodes}
	}

	s.logger.Debug("Fetched proofs",
		zap.String("account", account.Hex()),
		zap.Int("slots", len(slots)),
		zap.Uint64("block", commitment.BlockNumber),
	)
	return &entity.AccountProof{Proof: accountProof}, storage, nil
}

// Close releases upstream connections.
func (s *StateSource) Close() {
	s.pool.Close()
}

func decodeNodes(hexNodes []string) ([][]byte, error) {
	nodes := make([][]byte, len(hexNodes))
	for i, h := range hexNodes {
		node, err := hexutil.Decode(h)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed proof node: %v", domain.ErrUpstreamSourceFailure, err)
		}
		nodes[i] = node
	}
	return nodes, nil
}
