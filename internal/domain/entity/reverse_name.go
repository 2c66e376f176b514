package entity

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"chain-reverse-resolver/internal/domain"
)

const reverseSuffix = "reverse"

// ReverseNamespace returns the ENSIP-19 namespace for a coin type, e.g. "80002105.reverse".
func ReverseNamespace(coinType CoinType) string {
	switch coinType {
	case CoinTypeETH:
		return "addr." + reverseSuffix
	case CoinTypeDefault:
		return "default." + reverseSuffix
	default:
		return coinType.Hex() + "." + reverseSuffix
	}
}

// ReverseName returns "{address}.{namespace}" with the address in lowercase hex.
func ReverseName(addr common.Address, coinType CoinType) string {
	return hex.EncodeToString(addr[:]) + "." + ReverseNamespace(coinType)
}

// ParseReverseName extracts the address from a reverse name that lives directly under the
// namespace of coinType.
func ParseReverseName(name string, coinType CoinType) (common.Address, error) {
	label, rest, ok := strings.Cut(strings.ToLower(name), ".")
	if !ok || rest != ReverseNamespace(coinType) {
		return common.Address{}, fmt.Errorf("%w: %q is not under %s", domain.ErrMalformedName, name, ReverseNamespace(coinType))
	}
	if len(label) != 2*common.AddressLength {
		return common.Address{}, fmt.Errorf("%w: address label %q has wrong length", domain.ErrMalformedName, label)
	}
	raw, err := hex.DecodeString(label)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: address label %q: %v", domain.ErrMalformedName, label, err)
	}
	return common.BytesToAddress(raw), nil
}

// NameHash computes the ENS node of a dot-separated name. Labels are hashed as given; no
// normalization is applied.
func NameHash(name string) common.Hash {
	var node common.Hash
	if name == "" {
		return node
	}
	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = crypto.Keccak256Hash(node[:], labelHash)
	}
	return node
}
