package port

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// GatewayService answers offchain lookups addressed to the proving gateway.
type GatewayService interface {
	// Handle takes the lookup call data and returns the response data for the callback.
	Handle(ctx context.Context, sender common.Address, callData []byte) ([]byte, error)

	// SetCacheEnabled switches the proof cache on or off.
	SetCacheEnabled(enabled bool)
}
