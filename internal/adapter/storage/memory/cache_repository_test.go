package memory

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
)

func newTestCache(enabled bool) *CacheRepository {
	return NewCacheRepository(config.CacheConfig{
		Enabled:           enabled,
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	}, zap.NewNop())
}

func testKey(slot string) domainRepo.ProofKey {
	return domainRepo.ProofKey{
		ChainID:   8453,
		StateRoot: common.HexToHash("0xabc"),
		Account:   common.HexToAddress("0xaa"),
		Slot:      common.HexToHash(slot),
	}
}

func TestCacheStorageProof(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)
	proof := entity.StorageProof{Slot: common.HexToHash("0x01"), Value: common.HexToHash("0x02"), Proof: [][]byte{{1}}}

	_, found, err := c.GetStorageProof(ctx, testKey("0x01"))
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetStorageProof(ctx, testKey("0x01"), proof))
	got, found, err := c.GetStorageProof(ctx, testKey("0x01"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, proof, got)

	otherRoot := testKey("0x01")
	otherRoot.StateRoot = common.HexToHash("0xdef")
	_, found, _ = c.GetStorageProof(ctx, otherRoot)
	assert.False(t, found)
}

func TestCacheAccountProofIgnoresSlot(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)
	proof := entity.AccountProof{Proof: [][]byte{{0xc0}}}

	require.NoError(t, c.SetAccountProof(ctx, testKey("0x01"), proof))
	got, found, err := c.GetAccountProof(ctx, testKey("0x02"))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, proof, got)

	// Account and storage entries never collide.
	_, found, _ = c.GetStorageProof(ctx, testKey("0x00"))
	assert.False(t, found)
}

func TestCacheDisableFlushes(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)
	require.NoError(t, c.SetStorageProof(ctx, testKey("0x01"), entity.StorageProof{}))
	require.NoError(t, c.SetAccountProof(ctx, testKey("0x01"), entity.AccountProof{}))
	assert.Equal(t, 2, c.ItemCount())

	c.SetEnabled(false)
	assert.False(t, c.Enabled())
	assert.Zero(t, c.ItemCount())

	require.NoError(t, c.SetStorageProof(ctx, testKey("0x01"), entity.StorageProof{}))
	assert.Zero(t, c.ItemCount())

	c.SetEnabled(true)
	_, found, _ := c.GetStorageProof(ctx, testKey("0x01"))
	assert.False(t, found)
}

func TestCacheStartsDisabled(t *testing.T) {
	c := newTestCache(false)
	require.NoError(t, c.SetAccountProof(context.Background(), testKey("0x01"), entity.AccountProof{}))
	assert.Zero(t, c.ItemCount())
}

func TestCacheTypeMismatchEvicts(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(true)
	c.cache.SetDefault(storageProofKeyPrefix+testKey("0x01").String(), "junk")

	_, found, err := c.GetStorageProof(ctx, testKey("0x01"))
	assert.False(t, found)
	assert.ErrorIs(t, err, domain.ErrCacheFailure)
	assert.Zero(t, c.ItemCount())
}
