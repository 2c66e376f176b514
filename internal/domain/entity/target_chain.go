package entity

// TargetChain is the chain whose state the gateway proves, with its upstream endpoints.
type TargetChain struct {
	ChainID     uint64
	RPC         []RPCURL
	CheckedRPCs []RPCDetail
}
