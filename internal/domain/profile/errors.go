package profile

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"chain-reverse-resolver/internal/pkg/apperrors"
)

// Reverter is an error that carries ABI-encoded revert data.
type Reverter interface {
	error
	Revert() ([]byte, error)
}

// UnsupportedResolverProfileError is raised for any profile call the resolver does not answer.
type UnsupportedResolverProfileError struct {
	Selector Selector
}

func (e *UnsupportedResolverProfileError) Error() string {
	return fmt.Sprintf("unsupported resolver profile %s", e.Selector)
}

// Revert encodes UnsupportedResolverProfile(bytes4).
func (e *UnsupportedResolverProfileError) Revert() ([]byte, error) {
	return packError("UnsupportedResolverProfile", [4]byte(e.Selector))
}

// UnreachableNameError is raised when a DNS-encoded name is not a reverse name this resolver serves.
type UnreachableNameError struct {
	Name []byte
}

func (e *UnreachableNameError) Error() string {
	return fmt.Sprintf("unreachable name %s", hexutil.Encode(e.Name))
}

// Revert encodes UnreachableName(bytes).
func (e *UnreachableNameError) Revert() ([]byte, error) {
	return packError("UnreachableName", e.Name)
}

// DecodeRevert maps revert data back to one of the resolver's typed errors.
func DecodeRevert(data []byte) (Reverter, bool) {
	for name, abiErr := range ResolverABI.Errors {
		if len(data) < 4 || !bytes.Equal(data[:4], abiErr.ID[:4]) {
			continue
		}
		args, err := abiErr.Inputs.Unpack(data[4:])
		if err != nil || len(args) != 1 {
			return nil, false
		}
		switch name {
		case "UnsupportedResolverProfile":
			sel, ok := args[0].([4]byte)
			if !ok {
				return nil, false
			}
			return &UnsupportedResolverProfileError{Selector: sel}, true
		case "UnreachableName":
			raw, ok := args[0].([]byte)
			if !ok {
				return nil, false
			}
			return &UnreachableNameError{Name: raw}, true
		}
	}
	return nil, false
}

// IsRevert reports whether err (or anything it wraps) carries revert data.
func IsRevert(err error) bool {
	var r Reverter
	return errors.As(err, &r)
}

func packError(name string, args ...interface{}) ([]byte, error) {
	abiErr, ok := ResolverABI.Errors[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown error %s", apperrors.ErrInternal, name)
	}
	packed, err := abiErr.Inputs.Pack(args...)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", apperrors.ErrInternal, name, err)
	}
	return append(append([]byte{}, abiErr.ID[:4]...), packed...), nil
}
