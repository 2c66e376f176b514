package rpc

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/profile"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time check
var _ domainRepo.NameRegistrar = (*ContractRegistrar)(nil)

// ContractRegistrar reads names from a deployed reverse registrar with eth_call.
type ContractRegistrar struct {
	address common.Address
	pool    *clientPool
	logger  *zap.Logger
}

// NewContractRegistrar creates a registrar reader for the contract at address.
func NewContractRegistrar(address common.Address, endpoints domainService.EndpointProvider, logger *zap.Logger) *ContractRegistrar {
	named := logger.Named("ContractRegistrar")
	return &ContractRegistrar{
		address: address,
		pool:    newClientPool(endpoints, named),
		logger:  named,
	}
}

// NameForAddr calls nameForAddr(addr) at the latest block.
func (r *ContractRegistrar) NameForAddr(ctx context.Context, addr common.Address) (string, error) {
	data, err := profile.RegistrarABI.Pack("nameForAddr", addr)
	if err != nil {
		return "", fmt.Errorf("failed to pack nameForAddr: %w", err)
	}

	var out []byte
	err = r.pool.each(ctx, func(c *gethrpc.Client) error {
		res, err := ethclient.NewClient(c).CallContract(ctx, ethereum.CallMsg{To: &r.address, Data: data}, nil)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return "", err
	}

	values, err := profile.RegistrarABI.Unpack("nameForAddr", out)
	if err != nil {
		return "", fmt.Errorf("%w: registrar %s returned malformed name: %v", domain.ErrUpstreamSourceFailure, r.address.Hex(), err)
	}
	name, _ := values[0].(string)
	return name, nil
}

// Close releases upstream connections.
func (r *ContractRegistrar) Close() {
	r.pool.Close()
}
