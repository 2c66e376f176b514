// Package verifier holds the proof verifiers a resolver can be deployed with.
package verifier

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
)

// checkShape makes sure bundle answers exactly commit: the echoed commit is unchanged, every
// requested slot and every data slot of a dynamic value is present once, and nothing else is.
// It returns the claimed storage values.
func checkShape(commit *entity.ProofCommit, bundle *entity.ProofBundle) (entity.StorageValues, error) {
	if !bundle.Commit.Equal(commit) {
		return nil, fmt.Errorf("%w: bundle answers a different commit", domain.ErrVerification)
	}

	values := make(entity.StorageValues, len(bundle.Storage))
	for _, sp := range bundle.Storage {
		if _, dup := values[sp.Slot]; dup {
			return nil, fmt.Errorf("%w: slot %s proven twice", domain.ErrVerification, sp.Slot)
		}
		values[sp.Slot] = sp.Value
	}

	expected := make(map[common.Hash]struct{}, len(values))
	for _, req := range commit.UniqueRequests() {
		head, ok := values[req.Slot]
		if !ok {
			return nil, fmt.Errorf("%w: requested slot %s missing", domain.ErrVerification, req.Slot)
		}
		expected[req.Slot] = struct{}{}
		if !req.Dynamic {
			continue
		}
		count, err := entity.DataSlotCount(head)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %s: %v", domain.ErrVerification, req.Slot, err)
		}
		if count > uint64(len(values)) {
			return nil, fmt.Errorf("%w: slot %s needs %d data slots, bundle has %d proofs",
				domain.ErrVerification, req.Slot, count, len(values))
		}
		for _, slot := range entity.DataSlots(req.Slot, count) {
			if _, ok := values[slot]; !ok {
				return nil, fmt.Errorf("%w: data slot %s missing", domain.ErrVerification, slot)
			}
			expected[slot] = struct{}{}
		}
	}

	if len(expected) != len(values) {
		return nil, fmt.Errorf("%w: bundle has %d unrequested proofs", domain.ErrVerification, len(values)-len(expected))
	}
	return values, nil
}
