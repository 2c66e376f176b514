package domain

import "errors"

var (
	// ErrNotEVMCoinType means the coin type does not encode an EVM chain id.
	ErrNotEVMCoinType = errors.New("coin type is not an evm chain")

	// ErrChainIDOutOfRange means a chain id cannot be encoded as a coin type without overlapping the evm bit.
	ErrChainIDOutOfRange = errors.New("chain id out of coin type range")

	// ErrMalformedName means a DNS-encoded or reverse name could not be parsed.
	ErrMalformedName = errors.New("malformed name")

	// ErrMalformedStorage means a storage word does not hold a valid dynamic bytes header.
	ErrMalformedStorage = errors.New("malformed dynamic storage value")

	// ErrTooManyProofs means a commit needs more unique proofs than the prover allows.
	ErrTooManyProofs = errors.New("too many proofs")

	// ErrChainMismatch means a commit targets a chain the gateway does not serve.
	ErrChainMismatch = errors.New("commit targets an unsupported chain")

	// ErrVerification means a proof bundle failed verification; the whole bundle is rejected.
	ErrVerification = errors.New("proof verification failed")

	// ErrUpstreamSourceFailure means chain state could not be read from the upstream source.
	ErrUpstreamSourceFailure = errors.New("upstream source failure")

	// ErrNoUpstreamAvailable means there is no healthy upstream RPC endpoint.
	ErrNoUpstreamAvailable = errors.New("no upstream RPC endpoint available")

	// ErrGatewayFailure means every gateway endpoint failed to answer an offchain lookup.
	ErrGatewayFailure = errors.New("gateway request failed")

	// ErrTooManyLookups means a call kept reverting with offchain lookups past the allowed depth.
	ErrTooManyLookups = errors.New("too many offchain lookups")

	// ErrLookupSender means an offchain lookup was raised on behalf of a different contract.
	ErrLookupSender = errors.New("offchain lookup sender mismatch")

	// ErrCacheFailure means an internal error occurred while interacting with the cache (not a cache miss).
	ErrCacheFailure = errors.New("cache operation failed")
)
