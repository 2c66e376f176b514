// Package profile holds the ABI surface of the reverse resolver: the profile calls it answers,
// its own entry points and the revert errors it raises.
package profile

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const resolverABIJSON = `[
	{"type":"function","name":"resolve","stateMutability":"view","inputs":[{"name":"name","type":"bytes"},{"name":"data","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"resolveNames","stateMutability":"view","inputs":[{"name":"addrs","type":"address[]"}],"outputs":[{"name":"names","type":"string[]"}]},
	{"type":"function","name":"resolveCallback","stateMutability":"view","inputs":[{"name":"response","type":"bytes"},{"name":"extraData","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"resolveNamesCallback","stateMutability":"view","inputs":[{"name":"response","type":"bytes"},{"name":"extraData","type":"bytes"}],"outputs":[{"name":"names","type":"string[]"}]},
	{"type":"function","name":"supportsInterface","stateMutability":"view","inputs":[{"name":"interfaceID","type":"bytes4"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"coinType","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"chainId","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"addr","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"coinType","type":"uint256"}],"outputs":[{"name":"","type":"bytes"}]},
	{"type":"function","name":"name","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"text","stateMutability":"view","inputs":[{"name":"node","type":"bytes32"},{"name":"key","type":"string"}],"outputs":[{"name":"","type":"string"}]},
	{"type":"error","name":"UnsupportedResolverProfile","inputs":[{"name":"selector","type":"bytes4"}]},
	{"type":"error","name":"UnreachableName","inputs":[{"name":"name","type":"bytes"}]}
]`

const gatewayABIJSON = `[
	{"type":"function","name":"proveCommit","stateMutability":"view","inputs":[{"name":"commit","type":"bytes"}],"outputs":[{"name":"","type":"bytes"}]}
]`

const registrarABIJSON = `[
	{"type":"function","name":"nameForAddr","stateMutability":"view","inputs":[{"name":"addr","type":"address"}],"outputs":[{"name":"","type":"string"}]}
]`

var (
	// ResolverABI describes the resolver entry points and the profiles it dispatches.
	ResolverABI = mustParse(resolverABIJSON)
	// GatewayABI describes the call carried to the gateway inside an offchain lookup.
	GatewayABI = mustParse(gatewayABIJSON)
	// RegistrarABI is the read side of a reverse registrar.
	RegistrarABI = mustParse(registrarABIJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
