package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/domain/entity"
)

type fakeChecker struct {
	mu      sync.Mutex
	latency map[entity.RPCURL]time.Duration
	down    map[entity.RPCURL]bool
	chainID uint64
}

func (c *fakeChecker) CheckRPC(_ context.Context, url entity.RPCURL, chainID uint64) (bool, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chainID = chainID
	if c.down[url] {
		return false, 0, errors.New("down")
	}
	return true, c.latency[url], nil
}

func (c *fakeChecker) setDown(url entity.RPCURL, down bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.down[url] = down
}

func TestUpstreamPoolRefresh(t *testing.T) {
	fast, slow, dead := entity.RPCURL("https://fast.test"), entity.RPCURL("wss://slow.test"), entity.RPCURL("https://dead.test")
	checker := &fakeChecker{
		latency: map[entity.RPCURL]time.Duration{fast: 5 * time.Millisecond, slow: 50 * time.Millisecond},
		down:    map[entity.RPCURL]bool{dead: true},
	}
	cfg := config.UpstreamConfig{CheckTimeout: time.Second, MaxWorkers: 2}
	pool := NewUpstreamPool(context.Background(), testChainID, []entity.RPCURL{slow, dead, fast}, checker, zap.NewNop(), cfg)

	assert.Equal(t, []entity.RPCURL{slow, dead, fast}, pool.Endpoints())

	pool.Refresh(context.Background())
	assert.Equal(t, []entity.RPCURL{fast, slow}, pool.Endpoints())
	assert.Equal(t, uint64(testChainID), checker.chainID)

	details := pool.CheckedRPCs()
	require.Len(t, details, 3)
	assert.False(t, details[1].Working())
	assert.Equal(t, entity.ProtocolWSS, details[0].Protocol)

	// With every endpoint down the previous set is kept.
	for _, url := range []entity.RPCURL{fast, slow} {
		checker.setDown(url, true)
	}
	pool.Refresh(context.Background())
	assert.Equal(t, []entity.RPCURL{fast, slow}, pool.Endpoints())

	checker.setDown(slow, false)
	pool.Refresh(context.Background())
	assert.Equal(t, []entity.RPCURL{slow}, pool.Endpoints())
}

func TestUpstreamPoolSkipsUnknownProtocol(t *testing.T) {
	checker := &fakeChecker{latency: map[entity.RPCURL]time.Duration{}, down: map[entity.RPCURL]bool{}}
	pool := NewUpstreamPool(context.Background(), testChainID, []entity.RPCURL{"ftp://x.test"}, checker,
		zap.NewNop(), config.UpstreamConfig{CheckTimeout: time.Second})

	pool.Refresh(context.Background())
	details := pool.CheckedRPCs()
	require.Len(t, details, 1)
	assert.False(t, details[0].Working())
	assert.Zero(t, checker.chainID)
}

func TestUpstreamPoolStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	good, bad := entity.RPCURL("https://good.test"), entity.RPCURL("https://bad.test")
	checker := &fakeChecker{
		latency: map[entity.RPCURL]time.Duration{good: time.Millisecond},
		down:    map[entity.RPCURL]bool{bad: true},
	}
	pool := NewUpstreamPool(ctx, testChainID, []entity.RPCURL{bad, good}, checker, zap.NewNop(), config.UpstreamConfig{
		CheckInterval: 10 * time.Millisecond,
		CheckTimeout:  time.Second,
		RunOnStartup:  true,
	})

	pool.Start()
	assert.Equal(t, []entity.RPCURL{good}, pool.Endpoints())

	checker.setDown(bad, false)
	assert.Eventually(t, func() bool {
		return len(pool.Endpoints()) == 2
	}, time.Second, 5*time.Millisecond)
}
