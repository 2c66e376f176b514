package application

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/application/port"
	"chain-reverse-resolver/internal/domain/ccip"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/domain/profile"
)

// Compile-time check
var _ port.ReverseService = (*reverseService)(nil)

// reverseService implements port.ReverseService by running resolver calls through a lookup client.
type reverseService struct {
	resolver *ChainReverseResolver
	client   *ccip.Client
	logger   *zap.Logger
}

// NewReverseService creates a new reverse resolution service.
func NewReverseService(resolver *ChainReverseResolver, client *ccip.Client, logger *zap.Logger) port.ReverseService {
	return &reverseService{
		resolver: resolver,
		client:   client,
		logger:   logger.Named("ReverseService"),
	}
}

func (s *reverseService) CoinType() entity.CoinType {
	return s.resolver.CoinType()
}

func (s *reverseService) ChainID() (uint64, error) {
	return s.resolver.ChainID()
}

func (s *reverseService) SupportsInterface(id [4]byte) bool {
	return s.resolver.SupportsInterface(id)
}

// Resolve runs resolve(name, call) to completion.
func (s *reverseService) Resolve(ctx context.Context, dnsName, call []byte) ([]byte, error) {
	return s.client.Call(ctx, s.resolver, func(ctx context.Context) ([]byte, error) {
		return s.resolver.Resolve(ctx, dnsName, call)
	})
}

// ResolveNames runs resolveNames(addrs) to completion.
func (s *reverseService) ResolveNames(ctx context.Context, addrs []common.Address) ([]string, error) {
	if len(addrs) == 0 {
		return []string{}, nil
	}
	result, err := s.client.Call(ctx, s.resolver, func(ctx context.Context) ([]byte, error) {
		names, err := s.resolver.ResolveNames(ctx, addrs)
		if err != nil {
			return nil, err
		}
		return profile.EncodeNamesResult(names)
	})
	if err != nil {
		s.logger.Debug("resolveNames failed", zap.Int("count", len(addrs)), zap.Error(err))
		return nil, err
	}
	names, err := profile.DecodeNamesResult(result)
	if err != nil {
		return nil, err
	}
	if len(names) != len(addrs) {
		return nil, fmt.Errorf("resolver returned %d names for %d addresses", len(names), len(addrs))
	}
	return names, nil
}

// ResolveName resolves name() on the reverse name of addr under the resolver's namespace.
func (s *reverseService) ResolveName(ctx context.Context, addr common.Address) (string, error) {
	reverseName := entity.ReverseName(addr, s.resolver.CoinType())
	dnsName, err := entity.DNSEncode(reverseName)
	if err != nil {
		return "", err
	}
	call, err := profile.EncodeNameCall(entity.NameHash(reverseName))
	if err != nil {
		return "", fmt.Errorf("failed to encode name call: %w", err)
	}
	result, err := s.Resolve(ctx, dnsName, call)
	if err != nil {
		return "", err
	}
	return profile.DecodeNameResult(result)
}
