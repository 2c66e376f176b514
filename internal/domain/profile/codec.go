package profile

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/pkg/apperrors"
)

// EncodeAddrCall packs addr(node, coinType).
func EncodeAddrCall(node common.Hash, coinType *big.Int) ([]byte, error) {
	return ResolverABI.Pack("addr", node, coinType)
}

// EncodeNameCall packs name(node).
func EncodeNameCall(node common.Hash) ([]byte, error) {
	return ResolverABI.Pack("name", node)
}

// EncodeTextCall packs text(node, key).
func EncodeTextCall(node common.Hash, key string) ([]byte, error) {
	return ResolverABI.Pack("text", node, key)
}

// DecodeAddrCall returns the coin type argument of an addr(node, coinType) call.
func DecodeAddrCall(data []byte) (common.Hash, *big.Int, error) {
	args, err := unpackInputs("addr", data)
	if err != nil {
		return common.Hash{}, nil, err
	}
	node, okNode := args[0].([32]byte)
	coinType, okCoin := args[1].(*big.Int)
	if !okNode || !okCoin {
		return common.Hash{}, nil, fmt.Errorf("%w: unexpected addr argument types", apperrors.ErrInvalidInput)
	}
	return node, coinType, nil
}

// DecodeNameCall returns the node argument of a name(node) call.
func DecodeNameCall(data []byte) (common.Hash, error) {
	args, err := unpackInputs("name", data)
	if err != nil {
		return common.Hash{}, err
	}
	node, ok := args[0].([32]byte)
	if !ok {
		return common.Hash{}, fmt.Errorf("%w: unexpected name argument type", apperrors.ErrInvalidInput)
	}
	return node, nil
}

// EncodeAddrResult packs the bytes returned by addr(node, coinType).
func EncodeAddrResult(value []byte) ([]byte, error) {
	return ResolverABI.Methods["addr"].Outputs.Pack(value)
}

// DecodeAddrResult unpacks the bytes returned by addr(node, coinType).
func DecodeAddrResult(data []byte) ([]byte, error) {
	out, err := ResolverABI.Unpack("addr", data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode addr result: %v", apperrors.ErrInvalidInput, err)
	}
	return out[0].([]byte), nil
}

// EncodeNameResult packs the string returned by name(node).
func EncodeNameResult(name string) ([]byte, error) {
	return ResolverABI.Methods["name"].Outputs.Pack(name)
}

// DecodeNameResult unpacks the string returned by name(node).
func DecodeNameResult(data []byte) (string, error) {
	out, err := ResolverABI.Unpack("name", data)
	if err != nil {
		return "", fmt.Errorf("%w: decode name result: %v", apperrors.ErrInvalidInput, err)
	}
	return out[0].(string), nil
}

// EncodeNamesResult packs the string[] returned by resolveNames.
func EncodeNamesResult(names []string) ([]byte, error) {
	return ResolverABI.Methods["resolveNames"].Outputs.Pack(names)
}

// DecodeNamesResult unpacks the string[] returned by resolveNames.
func DecodeNamesResult(data []byte) ([]string, error) {
	out, err := ResolverABI.Unpack("resolveNames", data)
	if err != nil {
		return nil, fmt.Errorf("%w: decode names result: %v", apperrors.ErrInvalidInput, err)
	}
	return out[0].([]string), nil
}

// EncodeProveCommit packs the gateway call for an encoded commit.
func EncodeProveCommit(commit []byte) ([]byte, error) {
	return GatewayABI.Pack("proveCommit", commit)
}

// DecodeProveCommit returns the encoded commit carried by a gateway call.
func DecodeProveCommit(data []byte) ([]byte, error) {
	if SelectorOf(data) != SelectorProveCommit {
		return nil, fmt.Errorf("%w: unknown gateway selector %s", apperrors.ErrInvalidInput, SelectorOf(data))
	}
	args, err := GatewayABI.Methods["proveCommit"].Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: decode proveCommit: %v", apperrors.ErrInvalidInput, err)
	}
	return args[0].([]byte), nil
}

func unpackInputs(method string, data []byte) ([]interface{}, error) {
	m := ResolverABI.Methods[method]
	if len(data) < 4 {
		return nil, fmt.Errorf("%w: call data too short", apperrors.ErrInvalidInput)
	}
	args, err := m.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s call: %v", apperrors.ErrInvalidInput, method, err)
	}
	return args, nil
}
