package verifier

import (
	"context"

	"chain-reverse-resolver/internal/domain/entity"
	domainService "chain-reverse-resolver/internal/domain/service"
)

// Compile-time check
var _ domainService.Verifier = (*Unchecked)(nil)

// Unchecked trusts the gateway's values. Only the bundle's shape is checked. For development.
type Unchecked struct {
	head domainService.HeadSource
}

// NewUnchecked creates a passthrough verifier binding commits to head.
func NewUnchecked(head domainService.HeadSource) *Unchecked {
	return &Unchecked{head: head}
}

// LatestCommitment returns the current head.
func (v *Unchecked) LatestCommitment(ctx context.Context) (entity.Commitment, error) {
	return v.head.Head(ctx)
}

// Verify returns the claimed values of a well-formed bundle.
func (v *Unchecked) Verify(commit *entity.ProofCommit, bundle *entity.ProofBundle) (entity.StorageValues, error) {
	return checkShape(commit, bundle)
}
