package ccip

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
)

// DefaultMaxLookups bounds how many nested lookups one call may raise.
const DefaultMaxLookups = 4

// Target is a contract that may answer a call with an OffchainLookup and later accepts the
// gateway response through its callback.
type Target interface {
	Address() common.Address
	Callback(ctx context.Context, selector [4]byte, response, extraData []byte) ([]byte, error)
}

// Fetcher carries the lookup call data to the gateway urls and returns the gateway response.
type Fetcher interface {
	Fetch(ctx context.Context, sender common.Address, urls []string, callData []byte) ([]byte, error)
}

// Client drives calls through as many offchain lookups as they raise.
type Client struct {
	fetcher    Fetcher
	maxLookups int
	logger     *zap.Logger
}

// NewClient creates a lookup client. maxLookups <= 0 selects DefaultMaxLookups.
func NewClient(fetcher Fetcher, maxLookups int, logger *zap.Logger) *Client {
	if maxLookups <= 0 {
		maxLookups = DefaultMaxLookups
	}
	return &Client{
		fetcher:    fetcher,
		maxLookups: maxLookups,
		logger:     logger.Named("CCIPClient"),
	}
}

// Call runs call against target and resolves every OffchainLookup it raises. A lookup whose
// sender is not the target is rejected.
func (c *Client) Call(ctx context.Context, target Target, call func(context.Context) ([]byte, error)) ([]byte, error) {
	result, err := call(ctx)
	for depth := 0; ; depth++ {
		var lookup *OffchainLookup
		if !errors.As(err, &lookup) {
			return result, err
		}
		if depth >= c.maxLookups {
			return nil, fmt.Errorf("%w: gave up after %d", domain.ErrTooManyLookups, depth)
		}
		if lookup.Sender != target.Address() {
			return nil, fmt.Errorf("%w: lookup from %s, called %s",
				domain.ErrLookupSender, lookup.Sender.Hex(), target.Address().Hex())
		}

		c.logger.Debug("Following offchain lookup",
			zap.Int("depth", depth),
			zap.Strings("urls", lookup.URLs),
			zap.Int("callDataLen", len(lookup.CallData)),
		)

		response, fetchErr := c.fetcher.Fetch(ctx, lookup.Sender, lookup.URLs, lookup.CallData)
		if fetchErr != nil {
			return nil, fetchErr
		}
		result, err = target.Callback(ctx, lookup.CallbackFunction, response, lookup.ExtraData)
	}
}
