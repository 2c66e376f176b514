package memory

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	domainRepo "chain-reverse-resolver/internal/domain/repository"
)

// Compile-time check
var _ domainRepo.NameRegistrar = (*Registrar)(nil)

// Registrar is an in-memory reverse registrar.
type Registrar struct {
	mu    sync.RWMutex
	names map[common.Address]string
}

// NewRegistrar creates a registrar holding names.
func NewRegistrar(names map[common.Address]string) *Registrar {
	r := &Registrar{names: make(map[common.Address]string, len(names))}
	for addr, name := range names {
		r.names[addr] = name
	}
	return r
}

// SetName records the name of addr. The empty name clears it.
func (r *Registrar) SetName(addr common.Address, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name == "" {
		delete(r.names, addr)
		return
	}
	r.names[addr] = name
}

// NameForAddr returns the name of addr or "".
func (r *Registrar) NameForAddr(_ context.Context, addr common.Address) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[addr], nil
}
