package entity

import (
	"fmt"
	"strconv"

	"chain-reverse-resolver/internal/domain"
)

// CoinType identifies a chain for multi-chain name resolution (ENSIP-11).
type CoinType uint64

// Well-known coin types.
const (
	CoinTypeETH     CoinType = 60
	CoinTypeDefault CoinType = 0x80000000

	evmBit uint64 = 0x80000000
)

// CoinTypeFromChain encodes an EVM chain id. Chain 1 maps to CoinTypeETH and chain 0 to
// CoinTypeDefault. Ids that would overlap the EVM bit are rejected rather than wrapped.
func CoinTypeFromChain(chainID uint64) (CoinType, error) {
	if chainID == 1 {
		return CoinTypeETH, nil
	}
	if chainID >= evmBit {
		return 0, fmt.Errorf("%w: %d", domain.ErrChainIDOutOfRange, chainID)
	}
	return CoinType(evmBit | chainID), nil
}

// ChainFromCoinType is the inverse of CoinTypeFromChain. CoinTypeDefault maps to chain 0.
func ChainFromCoinType(coinType CoinType) (uint64, error) {
	if coinType == CoinTypeETH {
		return 1, nil
	}
	ct := uint64(coinType)
	if ct > 0xffffffff || ct&evmBit == 0 {
		return 0, fmt.Errorf("%w: %s", domain.ErrNotEVMCoinType, coinType)
	}
	return ct ^ evmBit, nil
}

// IsEVMCoinType reports whether the coin type encodes an EVM chain (including the default).
func IsEVMCoinType(coinType CoinType) bool {
	_, err := ChainFromCoinType(coinType)
	return err == nil
}

// Hex returns the lowercase hex form without prefix, as used in reverse namespaces.
func (c CoinType) Hex() string {
	return strconv.FormatUint(uint64(c), 16)
}

func (c CoinType) String() string {
	return "0x" + c.Hex()
}
