package entity

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"chain-reverse-resolver/internal/domain"
)

// NamesSlot returns the storage slot of names[addr] for a mapping(address => string)
// declared at mappingSlot.
func NamesSlot(addr common.Address, mappingSlot uint64) common.Hash {
	slot := uint256.NewInt(mappingSlot).Bytes32()
	return crypto.Keccak256Hash(common.LeftPadBytes(addr[:], 32), slot[:])
}

// DataSlotCount returns how many data slots follow the head word of a dynamic value.
// Short values (< 32 bytes) live in the head and need none.
func DataSlotCount(head common.Hash) (uint64, error) {
	if head[31]&1 == 0 {
		if head[31]/2 > 31 {
			return 0, fmt.Errorf("%w: short length %d", domain.ErrMalformedStorage, head[31]/2)
		}
		return 0, nil
	}
	length, err := longLength(head)
	if err != nil {
		return 0, err
	}
	return (length + 31) / 32, nil
}

// DataSlots returns the first count data slots of the dynamic value whose head is at slot.
// Slot arithmetic wraps modulo 2^256 like the EVM.
func DataSlots(slot common.Hash, count uint64) []common.Hash {
	base := new(uint256.Int).SetBytes32(crypto.Keccak256(slot[:]))
	out := make([]common.Hash, count)
	for i := uint64(0); i < count; i++ {
		out[i] = new(uint256.Int).AddUint64(base, i).Bytes32()
	}
	return out
}

// DecodeStorageString rebuilds the string stored at slot from proven storage words.
// Every data slot the head refers to must be present in values.
func DecodeStorageString(slot common.Hash, values StorageValues) (string, error) {
	head, ok := values[slot]
	if !ok {
		return "", fmt.Errorf("%w: head slot %s not proven", domain.ErrMalformedStorage, slot)
	}
	if head[31]&1 == 0 {
		length := int(head[31] / 2)
		if length > 31 {
			return "", fmt.Errorf("%w: short length %d", domain.ErrMalformedStorage, length)
		}
		return string(head[:length]), nil
	}
	length, err := longLength(head)
	if err != nil {
		return "", err
	}
	count := (length + 31) / 32
	if count > uint64(len(values)) {
		return "", fmt.Errorf("%w: %d data slots but only %d values", domain.ErrMalformedStorage, count, len(values))
	}
	out := make([]byte, 0, count*32)
	for _, dataSlot := range DataSlots(slot, count) {
		word, ok := values[dataSlot]
		if !ok {
			return "", fmt.Errorf("%w: data slot %s not proven", domain.ErrMalformedStorage, dataSlot)
		}
		out = append(out, word[:]...)
	}
	return string(out[:length]), nil
}

// EncodeStorageString lays out s the way Solidity stores a string at slot.
// The empty string clears the head.
func EncodeStorageString(slot common.Hash, s string) StorageValues {
	values := StorageValues{}
	data := []byte(s)
	if len(data) < 32 {
		var head common.Hash
		copy(head[:], data)
		head[31] = byte(len(data) * 2)
		values[slot] = head
		return values
	}
	values[slot] = uint256.NewInt(uint64(len(data))*2 + 1).Bytes32()
	for i, dataSlot := range DataSlots(slot, uint64(len(data)+31)/32) {
		var word common.Hash
		copy(word[:], data[i*32:])
		values[dataSlot] = word
	}
	return values
}

func longLength(head common.Hash) (uint64, error) {
	n := new(uint256.Int).SetBytes32(head[:])
	n.Rsh(n, 1)
	if !n.IsUint64() {
		return 0, fmt.Errorf("%w: length overflows", domain.ErrMalformedStorage)
	}
	length := n.Uint64()
	if length < 32 {
		return 0, fmt.Errorf("%w: long form with length %d", domain.ErrMalformedStorage, length)
	}
	return length, nil
}
