package memory

import (
	"context"
	"fmt"
	"sync/atomic"

	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Compile-time check
var _ domainRepo.ProofCache = (*CacheRepository)(nil)

// Cache key prefixes
const (
	storageProofKeyPrefix = "storage_proof_v1_"
	accountProofKeyPrefix = "account_proof_v1_"
)

// CacheRepository implements domainRepo.ProofCache using the go-cache in-memory library.
type CacheRepository struct {
	cache   *cache.Cache
	enabled atomic.Bool
	logger  *zap.Logger
}

// NewCacheRepository creates a new in-memory proof cache.
func NewCacheRepository(cfg config.CacheConfig, logger *zap.Logger) *CacheRepository {
	defaultExpiration := cfg.GetDefaultExpiration()
	cleanupInterval := cfg.GetCleanupInterval()

	c := cache.New(defaultExpiration, cleanupInterval)
	logger.Info(
		"Initialized go-cache for proof storage",
		zap.Bool("enabled", cfg.Enabled),
		zap.Duration("defaultExpiration", defaultExpiration),
		zap.Duration("cleanupInterval", cleanupInterval),
	)

	r := &CacheRepository{
		cache:  c,
		logger: logger.Named("MemoryProofCache"),
	}
	r.enabled.Store(cfg.Enabled)
	return r
}

// GetStorageProof retrieves a cached storage proof, returning found status.
func (r *CacheRepository) GetStorageProof(_ context.Context, key domainRepo.ProofKey) (entity.StorageProof, bool, error) {
	if !r.Enabled() {
		return entity.StorageProof{}, false, nil
	}
	cacheKey := storageProofKeyPrefix + key.String()
	if x, found := r.cache.Get(cacheKey); found {
		if proof, ok := x.(entity.StorageProof); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", cacheKey))
			return proof, true, nil
		}
		r.cache.Delete(cacheKey)
		return entity.StorageProof{}, false, fmt.Errorf("%w: key %s holds %T", domain.ErrCacheFailure, cacheKey, x)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", cacheKey))
	return entity.StorageProof{}, false, nil
}

// SetStorageProof caches a storage proof with the default expiration.
func (r *CacheRepository) SetStorageProof(_ context.Context, key domainRepo.ProofKey, proof entity.StorageProof) error {
	if !r.Enabled() {
		return nil
	}
	cacheKey := storageProofKeyPrefix + key.String()
	r.cache.SetDefault(cacheKey, proof)
	r.logger.Debug("Memory cache set", zap.String("key", cacheKey))
	return nil
}

// GetAccountProof retrieves a cached account proof, returning found status.
func (r *CacheRepository) GetAccountProof(_ context.Context, key domainRepo.ProofKey) (entity.AccountProof, bool, error) {
	if !r.Enabled() {
		return entity.AccountProof{}, false, nil
	}
	cacheKey := r.accountKey(key)
	if x, found := r.cache.Get(cacheKey); found {
		if proof, ok := x.(entity.AccountProof); ok {
			r.logger.Debug("Memory cache hit", zap.String("key", cacheKey))
			return proof, true, nil
		}
		r.cache.Delete(cacheKey)
		return entity.AccountProof{}, false, fmt.Errorf("%w: key %s holds %T", domain.ErrCacheFailure, cacheKey, x)
	}
	r.logger.Debug("Memory cache miss", zap.String("key", cacheKey))
	return entity.AccountProof{}, false, nil
}

// SetAccountProof caches an account proof with the default expiration.
func (r *CacheRepository) SetAccountProof(_ context.Context, key domainRepo.ProofKey, proof entity.AccountProof) error {
	if !r.Enabled() {
		return nil
	}
	cacheKey := r.accountKey(key)
	r.cache.SetDefault(cacheKey, proof)
	r.logger.Debug("Memory cache set", zap.String("key", cacheKey))
	return nil
}

// SetEnabled switches the cache on or off. Disabling flushes every entry.
func (r *CacheRepository) SetEnabled(enabled bool) {
	if !r.enabled.Swap(enabled) || enabled {
		return
	}
	r.cache.Flush()
	r.logger.Info("Proof cache disabled and flushed")
}

// Enabled reports whether the cache is serving entries.
func (r *CacheRepository) Enabled() bool {
	return r.enabled.Load()
}

// ItemCount returns the number of cached proofs, including expired ones not yet cleaned up.
func (r *CacheRepository) ItemCount() int {
	return r.cache.ItemCount()
}

// accountKey ignores the slot so every slot of one account shares the account proof.
func (r *CacheRepository) accountKey(key domainRepo.ProofKey) string {
	key.Slot = [32]byte{}
	return accountProofKeyPrefix + key.String()
}
