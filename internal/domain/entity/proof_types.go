package entity

import (
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"chain-reverse-resolver/internal/pkg/apperrors"
)

// Commitment binds a proof request to one state of the target chain.
type Commitment struct {
	BlockNumber uint64
	StateRoot   common.Hash
}

// SlotRequest names one storage slot of the commit's target account. A dynamic request
// points at the head slot of a Solidity bytes/string value; the prover also proves
// whatever data slots the head refers to.
type SlotRequest struct {
	Slot    common.Hash
	Dynamic bool
}

// ProofCommit describes which storage of which account, at which state, must be proven.
type ProofCommit struct {
	ChainID    uint64
	Target     common.Address
	Commitment Commitment
	Requests   []SlotRequest
}

// AccountProof is the Merkle-Patricia proof of the target account in the state trie.
type AccountProof struct {
	Proof [][]byte
}

// StorageProof proves one storage word of the target account.
type StorageProof struct {
	Slot  common.Hash
	Value common.Hash
	Proof [][]byte
}

// ProofBundle is the gateway's answer to a ProofCommit.
type ProofBundle struct {
	Commit  ProofCommit
	Account AccountProof
	Storage []StorageProof
}

// StorageValues maps proven slots to their storage words.
type StorageValues map[common.Hash]common.Hash

// Encode returns the RLP wire form of the commit.
func (c *ProofCommit) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(c)
}

// Equal compares two commits by their wire form.
func (c *ProofCommit) Equal(other *ProofCommit) bool {
	a, errA := c.Encode()
	b, errB := other.Encode()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// UniqueRequests returns the requests with repeated slots removed, keeping first occurrence order.
func (c *ProofCommit) UniqueRequests() []SlotRequest {
	seen := make(map[common.Hash]struct{}, len(c.Requests))
	unique := make([]SlotRequest, 0, len(c.Requests))
	for _, req := range c.Requests {
		if _, ok := seen[req.Slot]; ok {
			continue
		}
		seen[req.Slot] = struct{}{}
		unique = append(unique, req)
	}
	return unique
}

// DecodeProofCommit parses the RLP wire form of a commit.
func DecodeProofCommit(data []byte) (*ProofCommit, error) {
	var commit ProofCommit
	if err := rlp.DecodeBytes(data, &commit); err != nil {
		return nil, fmt.Errorf("%w: decode proof commit: %v", apperrors.ErrInvalidInput, err)
	}
	return &commit, nil
}

// Encode returns the RLP wire form of the bundle.
func (b *ProofBundle) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(b)
}

// DecodeProofBundle parses the RLP wire form of a bundle.
func DecodeProofBundle(data []byte) (*ProofBundle, error) {
	var bundle ProofBundle
	if err := rlp.DecodeBytes(data, &bundle); err != nil {
		return nil, fmt.Errorf("%w: decode proof bundle: %v", apperrors.ErrInvalidInput, err)
	}
	return &bundle, nil
}
