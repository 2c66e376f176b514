package memstate

import (
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain/entity"
)

// FromSeed builds a chain holding the seed's L2 names. The same seed always yields the same
// head block and state root.
func FromSeed(seed *entity.DevSeed, logger *zap.Logger) (*Chain, *L2Registrar, error) {
	chain := NewChain(seed.ChainID, logger)
	registrar := NewL2Registrar(chain, seed.L2Registrar, seed.NamesSlot)
	if len(seed.L2Names) > 0 {
		if _, err := registrar.SetNames(seed.L2Names); err != nil {
			return nil, nil, err
		}
	}
	return chain, registrar, nil
}
