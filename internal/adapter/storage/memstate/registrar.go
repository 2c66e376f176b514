package memstate

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
)

// Compile-time check
var _ domainRepo.NameRegistrar = (*L2Registrar)(nil)

// L2Registrar writes names into the storage layout of a reverse registrar deployed on a Chain:
// a mapping(address => string) at namesSlot.
type L2Registrar struct {
	chain     *Chain
	address   common.Address
	namesSlot uint64
}

// NewL2Registrar creates a registrar at address on chain.
func NewL2Registrar(chain *Chain, address common.Address, namesSlot uint64) *L2Registrar {
	return &L2Registrar{chain: chain, address: address, namesSlot: namesSlot}
}

// Address returns the registrar contract address.
func (r *L2Registrar) Address() common.Address {
	return r.address
}

// SetName records the name of addr in a new block.
func (r *L2Registrar) SetName(addr common.Address, name string) (entity.Commitment, error) {
	return r.SetNames(map[common.Address]string{addr: name})
}

// SetNames records every name in a single new block.
func (r *L2Registrar) SetNames(names map[common.Address]string) (entity.Commitment, error) {
	writes := entity.StorageValues{}
	for addr, name := range names {
		slot := entity.NamesSlot(addr, r.namesSlot)
		if old, err := r.NameForAddr(context.Background(), addr); err == nil {
			for s := range entity.EncodeStorageString(slot, old) {
				writes[s] = common.Hash{}
			}
		}
		for s, v := range entity.EncodeStorageString(slot, name) {
			writes[s] = v
		}
	}
	return r.chain.SetStorage(r.address, writes)
}

// NameForAddr reads the current name of addr straight from storage.
func (r *L2Registrar) NameForAddr(_ context.Context, addr common.Address) (string, error) {
	slot := entity.NamesSlot(addr, r.namesSlot)
	values := entity.StorageValues{slot: r.chain.StorageAt(r.address, slot)}
	count, err := entity.DataSlotCount(values[slot])
	if err != nil {
		return "", err
	}
	for _, s := range entity.DataSlots(slot, count) {
		values[s] = r.chain.StorageAt(r.address, s)
	}
	return entity.DecodeStorageString(slot, values)
}
