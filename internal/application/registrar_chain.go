package application

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
)

// Compile-time checks
var (
	_ domainRepo.NameRegistrar = RegistrarChain(nil)
	_ domainRepo.NameRegistrar = (*verifiedRegistrar)(nil)
)

// RegistrarChain is an ordered list of registrars. The first non-empty name wins.
type RegistrarChain []domainRepo.NameRegistrar

// NameForAddr asks each registrar in order and returns the first name that is set.
func (c RegistrarChain) NameForAddr(ctx context.Context, addr common.Address) (string, error) {
	for i, registrar := range c {
		name, err := registrar.NameForAddr(ctx, addr)
		if err != nil {
			return "", fmt.Errorf("registrar %d lookup for %s failed: %w", i, addr.Hex(), err)
		}
		if name != "" {
			return name, nil
		}
	}
	return "", nil
}

// verifiedRegistrar reads names out of proven registrar storage.
type verifiedRegistrar struct {
	values    entity.StorageValues
	namesSlot uint64
}

func (r *verifiedRegistrar) NameForAddr(_ context.Context, addr common.Address) (string, error) {
	return entity.DecodeStorageString(entity.NamesSlot(addr, r.namesSlot), r.values)
}
