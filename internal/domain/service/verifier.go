package service

import (
	"context"

	"chain-reverse-resolver/internal/domain/entity"
)

// HeadSource reports the state of the target chain that new commits bind to.
type HeadSource interface {
	Head(ctx context.Context) (entity.Commitment, error)
}

// Verifier checks a proof bundle against the commit it answers and returns the proven storage.
// A bundle is accepted whole or not at all.
type Verifier interface {
	// LatestCommitment returns the binding new commits should request proofs against.
	LatestCommitment(ctx context.Context) (entity.Commitment, error)

	// Verify checks bundle against commit. Every error wraps domain.ErrVerification.
	Verify(commit *entity.ProofCommit, bundle *entity.ProofBundle) (entity.StorageValues, error)
}
