package verifier

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time check
var _ domainService.Verifier = (*Trie)(nil)

// TrustedCommitments is how many recently issued commitments a Trie verifier accepts.
const TrustedCommitments = 256

// Trie verifies Merkle-Patricia proofs of the target account and its storage against the
// commitment's state root. Only commitments this verifier handed out through LatestCommitment
// are trusted.
type Trie struct {
	head   domainService.HeadSource
	issued *lru.Cache[entity.Commitment, struct{}]
	logger *zap.Logger
}

// NewTrie creates a state proof verifier binding commits to head.
func NewTrie(head domainService.HeadSource, logger *zap.Logger) *Trie {
	// Can't fail because the size is positive
	issued, _ := lru.New[entity.Commitment, struct{}](TrustedCommitments)
	return &Trie{head: head, issued: issued, logger: logger.Named("TrieVerifier")}
}

// LatestCommitment returns the trusted head and remembers it as issued.
func (v *Trie) LatestCommitment(ctx context.Context) (entity.Commitment, error) {
	commitment, err := v.head.Head(ctx)
	if err != nil {
		return entity.Commitment{}, err
	}
	v.issued.Add(commitment, struct{}{})
	return commitment, nil
}

// Verify checks every proof of bundle. One failing proof rejects the bundle.
func (v *Trie) Verify(commit *entity.ProofCommit, bundle *entity.ProofBundle) (entity.StorageValues, error) {
	if !v.issued.Contains(commit.Commitment) {
		return nil, fmt.Errorf("%w: commitment %s at block %d was not issued by this verifier",
			domain.ErrVerification, commit.Commitment.StateRoot, commit.Commitment.BlockNumber)
	}
	values, err := checkShape(commit, bundle)
	if err != nil {
		return nil, err
	}

	storageRoot, err := v.verifyAccount(commit.Commitment.StateRoot, commit.Target, bundle.Account.Proof)
	if err != nil {
		return nil, err
	}

	for _, sp := range bundle.Storage {
		proven, err := verifySlot(storageRoot, sp)
		if err != nil {
			return nil, err
		}
		if proven != sp.Value {
			return nil, fmt.Errorf("%w: slot %s claims %s, proof gives %s",
				domain.ErrVerification, sp.Slot, sp.Value, proven)
		}
	}

	v.logger.Debug("Verified bundle",
		zap.Uint64("block", commit.Commitment.BlockNumber),
		zap.Int("slots", len(bundle.Storage)),
	)
	return values, nil
}

// verifyAccount returns the storage root of account. An absent account has empty storage.
func (v *Trie) verifyAccount(stateRoot common.Hash, account common.Address, proof [][]byte) (common.Hash, error) {
	if stateRoot == types.EmptyRootHash {
		return types.EmptyRootHash, nil
	}
	raw, err := trie.VerifyProof(stateRoot, crypto.Keccak256(account[:]), proofDB(proof))
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: account proof: %v", domain.ErrVerification, err)
	}
	if len(raw) == 0 {
		return types.EmptyRootHash, nil
	}
	var acc types.StateAccount
	if err := rlp.DecodeBytes(raw, &acc); err != nil {
		return common.Hash{}, fmt.Errorf("%w: account encoding: %v", domain.ErrVerification, err)
	}
	return acc.Root, nil
}

// verifySlot returns the storage word the proof of sp commits to under storageRoot.
func verifySlot(storageRoot common.Hash, sp entity.StorageProof) (common.Hash, error) {
	if storageRoot == types.EmptyRootHash {
		return common.Hash{}, nil
	}
	raw, err := trie.VerifyProof(storageRoot, crypto.Keccak256(sp.Slot[:]), proofDB(sp.Proof))
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: storage proof of %s: %v", domain.ErrVerification, sp.Slot, err)
	}
	if len(raw) == 0 {
		return common.Hash{}, nil
	}
	_, content, _, err := rlp.Split(raw)
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: storage encoding of %s: %v", domain.ErrVerification, sp.Slot, err)
	}
	if len(content) > common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: storage word of %s too long", domain.ErrVerification, sp.Slot)
	}
	return common.BytesToHash(content), nil
}

func proofDB(nodes [][]byte) *memorydb.Database {
	db := memorydb.New()
	for _, node := range nodes {
		_ = db.Put(crypto.Keccak256(node), node)
	}
	return db
}
