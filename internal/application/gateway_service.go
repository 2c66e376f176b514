package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/application/port"
	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/domain/profile"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
)

// Compile-time check
var _ port.GatewayService = (*gatewayService)(nil)

// Prover defaults.
const (
	DefaultMaxUniqueProofs = 128
	DefaultProverWorkers   = 8
)

// ProverConfig bounds the work done for one commit.
type ProverConfig struct {
	// MaxUniqueProofs caps the storage proofs of one commit, heads and data slots together.
	MaxUniqueProofs int
	// Workers is the number of concurrent upstream proof requests per commit.
	Workers int
	// Configure, when set, may adjust the configuration for a single commit.
	Configure func(commit *entity.ProofCommit, cfg *ProverConfig)
}

// Prover builds proof bundles for commits against one target chain.
type Prover struct {
	chainID uint64
	source  domainRepo.StateSource
	cache   domainRepo.ProofCache
	cfgMu   sync.RWMutex
	cfg     ProverConfig
	logger  *zap.Logger
}

// NewProver creates a prover for chainID. cache may be nil.
func NewProver(
	chainID uint64,
	source domainRepo.StateSource,
	cache domainRepo.ProofCache,
	cfg ProverConfig,
	logger *zap.Logger,
) *Prover {
	if cfg.MaxUniqueProofs <= 0 {
		cfg.MaxUniqueProofs = DefaultMaxUniqueProofs
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultProverWorkers
	}
	return &Prover{
		chainID: chainID,
		source:  source,
		cache:   cache,
		cfg:     cfg,
		logger:  logger.Named("Prover"),
	}
}

// SetConfigure installs a per-commit configuration hook.
func (p *Prover) SetConfigure(fn func(commit *entity.ProofCommit, cfg *ProverConfig)) {
	p.cfgMu.Lock()
	defer p.cfgMu.Unlock()
	p.cfg.Configure = fn
}

// config returns a copy of the prover configuration.
func (p *Prover) config() ProverConfig {
	p.cfgMu.RLock()
	defer p.cfgMu.RUnlock()
	return p.cfg
}

// SetCacheEnabled switches the proof cache on or off.
func (p *Prover) SetCacheEnabled(enabled bool) {
	if p.cache != nil {
		p.cache.SetEnabled(enabled)
	}
}

// Prove builds the complete bundle for commit. If the commit needs more unique proofs than
// allowed, no proof is returned at all.
func (p *Prover) Prove(ctx context.Context, commit *entity.ProofCommit) (*entity.ProofBundle, error) {
	if commit.ChainID != p.chainID {
		return nil, fmt.Errorf("%w: got %d, serving %d", domain.ErrChainMismatch, commit.ChainID, p.chainID)
	}

	cfg := p.config()
	if cfg.Configure != nil {
		cfg.Configure(commit, &cfg)
	}
	limit := cfg.MaxUniqueProofs

	requests := commit.UniqueRequests()
	if len(requests) > limit {
		return nil, fmt.Errorf("%w: %d slots requested, max %d", domain.ErrTooManyProofs, len(requests), limit)
	}

	heads := make([]common.Hash, len(requests))
	seen := make(map[common.Hash]struct{}, len(requests))
	for i, req := range requests {
		heads[i] = req.Slot
		seen[req.Slot] = struct{}{}
	}

	headProofs, account, err := p.proveSlots(ctx, commit, heads, cfg.Workers)
	if err != nil {
		return nil, err
	}

	var dataSlots []common.Hash
	for i, req := range requests {
		if !req.Dynamic {
			continue
		}
		count, err := entity.DataSlotCount(headProofs[i].Value)
		if err != nil {
			return nil, fmt.Errorf("slot %s: %w", req.Slot, err)
		}
		if count > uint64(limit) {
			return nil, fmt.Errorf("%w: slot %s spans %d data slots, max %d", domain.ErrTooManyProofs, req.Slot, count, limit)
		}
		for _, slot := range entity.DataSlots(req.Slot, count) {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			dataSlots = append(dataSlots, slot)
		}
		if len(seen) > limit {
			return nil, fmt.Errorf("%w: %d unique slots, max %d", domain.ErrTooManyProofs, len(seen), limit)
		}
	}

	dataProofs, dataAccount, err := p.proveSlots(ctx, commit, dataSlots, cfg.Workers)
	if err != nil {
		return nil, err
	}
	if account == nil {
		account = dataAccount
	}
	if account == nil {
		if account, err = p.accountProof(ctx, commit); err != nil {
			return nil, err
		}
	}

	p.logger.Debug("Built proof bundle",
		zap.Uint64("chainId", commit.ChainID),
		zap.Uint64("block", commit.Commitment.BlockNumber),
		zap.Int("heads", len(headProofs)),
		zap.Int("dataSlots", len(dataProofs)),
	)

	return &entity.ProofBundle{
		Commit:  *commit,
		Account: *account,
		Storage: append(headProofs, dataProofs...),
	}, nil
}

// proveSlots fetches a proof for every slot with a bounded worker pool. Results keep the order
// of slots. The returned account proof is nil when every slot came from the cache.
func (p *Prover) proveSlots(
	ctx context.Context,
	commit *entity.ProofCommit,
	slots []common.Hash,
	workers int,
) ([]entity.StorageProof, *entity.AccountProof, error) {
	if len(slots) == 0 {
		return nil, nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	proofs := make([]entity.StorageProof, len(slots))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		account  *entity.AccountProof
	)

	if workers > len(slots) {
		workers = len(slots)
	}
	jobChan := make(chan int, len(slots))

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for index := range jobChan {
				if ctx.Err() != nil {
					return
				}
				proof, acc, err := p.proveSlot(ctx, commit, slots[index])

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
						cancel()
					}
				} else {
					proofs[index] = proof
					if account == nil && acc != nil {
						account = acc
					}
				}
				mu.Unlock()
			}
			p.logger.Debug("Proof worker finished", zap.Int("workerID", workerID))
		}(w)
	}

	for i := range slots {
		jobChan <- i
	}
	close(jobChan)
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return proofs, account, nil
}

// proveSlot returns one storage proof, from the cache when possible.
func (p *Prover) proveSlot(
	ctx context.Context,
	commit *entity.ProofCommit,
	slot common.Hash,
) (entity.StorageProof, *entity.AccountProof, error) {
	key := p.key(commit, slot)
	if p.cacheEnabled() {
		cached, found, err := p.cache.GetStorageProof(ctx, key)
		if err != nil {
			p.logger.Warn("Cache error when getting storage proof", zap.String("key", key.String()), zap.Error(err))
		}
		if found {
			return cached, nil, nil
		}
	}

	account, storage, err := p.source.GetProof(ctx, commit.Target, []common.Hash{slot}, commit.Commitment)
	if err != nil {
		return entity.StorageProof{}, nil, fmt.Errorf("prove slot %s: %w", slot, err)
	}
	var proof *entity.StorageProof
	for i := range storage {
		if storage[i].Slot == slot {
			proof = &storage[i]
			break
		}
	}
	if proof == nil || account == nil {
		return entity.StorageProof{}, nil, fmt.Errorf("%w: source returned no proof for slot %s",
			domain.ErrUpstreamSourceFailure, slot)
	}

	if p.cacheEnabled() {
		if err := p.cache.SetStorageProof(ctx, key, *proof); err != nil {
			p.logger.Error("Failed to cache storage proof", zap.String("key", key.String()), zap.Error(err))
		}
		if err := p.cache.SetAccountProof(ctx, p.key(commit, common.Hash{}), *account); err != nil {
			p.logger.Error("Failed to cache account proof", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return *proof, account, nil
}

// accountProof returns the account proof alone, for commits whose storage came from the cache.
func (p *Prover) accountProof(ctx context.Context, commit *entity.ProofCommit) (*entity.AccountProof, error) {
	key := p.key(commit, common.Hash{})
	if p.cacheEnabled() {
		cached, found, err := p.cache.GetAccountProof(ctx, key)
		if err != nil {
			p.logger.Warn("Cache error when getting account proof", zap.String("key", key.String()), zap.Error(err))
		}
		if found {
			return &cached, nil
		}
	}

	account, _, err := p.source.GetProof(ctx, commit.Target, nil, commit.Commitment)
	if err != nil {
		return nil, fmt.Errorf("prove account %s: %w", commit.Target.Hex(), err)
	}
	if account == nil {
		return nil, fmt.Errorf("%w: source returned no account proof", domain.ErrUpstreamSourceFailure)
	}
	if p.cacheEnabled() {
		if err := p.cache.SetAccountProof(ctx, key, *account); err != nil {
			p.logger.Error("Failed to cache account proof", zap.String("key", key.String()), zap.Error(err))
		}
	}
	return account, nil
}

func (p *Prover) key(commit *entity.ProofCommit, slot common.Hash) domainRepo.ProofKey {
	return domainRepo.ProofKey{
		ChainID:   commit.ChainID,
		StateRoot: commit.Commitment.StateRoot,
		Account:   commit.Target,
		Slot:      slot,
	}
}

func (p *Prover) cacheEnabled() bool {
	return p.cache != nil && p.cache.Enabled()
}

// gatewayService implements port.GatewayService on top of a Prover.
type gatewayService struct {
	prover *Prover
	logger *zap.Logger
}

// NewGatewayService creates a new gateway service.
func NewGatewayService(prover *Prover, logger *zap.Logger) port.GatewayService {
	return &gatewayService{
		prover: prover,
		logger: logger.Named("GatewayService"),
	}
}

// Handle decodes proveCommit(bytes) and returns the encoded proof bundle.
func (s *gatewayService) Handle(ctx context.Context, sender common.Address, callData []byte) ([]byte, error) {
	encoded, err := profile.DecodeProveCommit(callData)
	if err != nil {
		return nil, err
	}
	commit, err := entity.DecodeProofCommit(encoded)
	if err != nil {
		return nil, err
	}

	bundle, err := s.prover.Prove(ctx, commit)
	if err != nil {
		s.logger.Warn("Failed to prove commit",
			zap.String("sender", sender.Hex()),
			zap.Uint64("chainId", commit.ChainID),
			zap.Int("requests", len(commit.Requests)),
			zap.Error(err),
		)
		return nil, err
	}

	out, err := bundle.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode proof bundle: %w", err)
	}
	return out, nil
}

func (s *gatewayService) SetCacheEnabled(enabled bool) {
	s.prover.SetCacheEnabled(enabled)
}
