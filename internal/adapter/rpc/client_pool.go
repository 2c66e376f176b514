package rpc

import (
	"context"
	"fmt"
	"sync"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// clientPool dials each endpoint once and reuses the connection.
type clientPool struct {
	endpoints domainService.EndpointProvider
	mu        sync.Mutex
	clients   map[entity.RPCURL]*gethrpc.Client
	logger    *zap.Logger
}

func newClientPool(endpoints domainService.EndpointProvider, logger *zap.Logger) *clientPool {
	return &clientPool{
		endpoints: endpoints,
		clients:   make(map[entity.RPCURL]*gethrpc.Client),
		logger:    logger,
	}
}

// each calls fn with a client for every healthy endpoint until fn succeeds.
func (p *clientPool) each(ctx context.Context, fn func(*gethrpc.Client) error) error {
	endpoints := p.endpoints.Endpoints()
	if len(endpoints) == 0 {
		return domain.ErrNoUpstreamAvailable
	}

	var lastErr error
	for _, url := range endpoints {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		client, err := p.client(ctx, url)
		if err != nil {
			p.logger.Debug("Failed to dial upstream", zap.String("url", url.String()), zap.Error(err))
			lastErr = err
			continue
		}
		if err := fn(client); err != nil {
			p.logger.Debug("Upstream call failed", zap.String("url", url.String()), zap.Error(err))
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: all %d endpoints failed, last error: %v", domain.ErrUpstreamSourceFailure, len(endpoints), lastErr)
}

func (p *clientPool) client(ctx context.Context, url entity.RPCURL) (*gethrpc.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[url]; ok {
		return c, nil
	}
	c, err := gethrpc.DialContext(ctx, url.String())
	if err != nil {
		return nil, err
	}
	p.clients[url] = c
	return c, nil
}

// Close drops every dialed connection.
func (p *clientPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for url, c := range p.clients {
		c.Close()
		delete(p.clients, url)
	}
}

// staticEndpoints serves a fixed endpoint list.
type staticEndpoints []entity.RPCURL

func (s staticEndpoints) Endpoints() []entity.RPCURL {
	return s
}

// StaticEndpoints wraps fixed urls as an endpoint provider.
func StaticEndpoints(urls ...entity.RPCURL) domainService.EndpointProvider {
	return staticEndpoints(urls)
}
