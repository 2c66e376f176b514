package entity

import "github.com/ethereum/go-ethereum/common"

// DevSeed describes the initial registrar state of a development deployment.
type DevSeed struct {
	ChainID      uint64
	L2Registrar  common.Address
	NamesSlot    uint64
	L2Names      map[common.Address]string
	DefaultNames map[common.Address]string
}
