package profile

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Selector is a 4-byte function or interface identifier.
type Selector [4]byte

func (s Selector) String() string {
	return hexutil.Encode(s[:])
}

// SelectorOf returns the first four bytes of call data, zero padded when shorter.
func SelectorOf(data []byte) Selector {
	var s Selector
	copy(s[:], data)
	return s
}

func methodSelector(method abi.Method) Selector {
	var s Selector
	copy(s[:], method.ID)
	return s
}

// Profile and entry point selectors.
var (
	SelectorAddrCoinType         = methodSelector(ResolverABI.Methods["addr"])
	SelectorName                 = methodSelector(ResolverABI.Methods["name"])
	SelectorText                 = methodSelector(ResolverABI.Methods["text"])
	SelectorResolve              = methodSelector(ResolverABI.Methods["resolve"])
	SelectorResolveNames         = methodSelector(ResolverABI.Methods["resolveNames"])
	SelectorResolveCallback      = methodSelector(ResolverABI.Methods["resolveCallback"])
	SelectorResolveNamesCallback = methodSelector(ResolverABI.Methods["resolveNamesCallback"])
	SelectorProveCommit          = methodSelector(GatewayABI.Methods["proveCommit"])
)

// Interface ids advertised through supportsInterface.
var (
	InterfaceERC165           = Selector{0x01, 0xff, 0xc9, 0xa7}
	InterfaceExtendedResolver = SelectorResolve
	InterfaceNameReverser     = SelectorResolveNames
)
