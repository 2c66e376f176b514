// Package ccip models the EIP-3668 offchain lookup exchange: the revert that asks the caller to
// fetch data from a gateway, and the loop that answers it.
package ccip

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"chain-reverse-resolver/internal/pkg/apperrors"
)

const lookupABIJSON = `[
	{"type":"error","name":"OffchainLookup","inputs":[
		{"name":"sender","type":"address"},
		{"name":"urls","type":"string[]"},
		{"name":"callData","type":"bytes"},
		{"name":"callbackFunction","type":"bytes4"},
		{"name":"extraData","type":"bytes"}
	]}
]`

var lookupError = func() abi.Error {
	parsed, err := abi.JSON(strings.NewReader(lookupABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed.Errors["OffchainLookup"]
}()

// OffchainLookupSelector is the 4-byte id of OffchainLookup(address,string[],bytes,bytes4,bytes).
var OffchainLookupSelector = [4]byte(lookupError.ID[:4])

// OffchainLookup is the revert a contract raises when it needs data from a gateway.
type OffchainLookup struct {
	Sender           common.Address
	URLs             []string
	CallData         []byte
	CallbackFunction [4]byte
	ExtraData        []byte
}

func (l *OffchainLookup) Error() string {
	return fmt.Sprintf("offchain lookup from %s to %d url(s), callback %s",
		l.Sender.Hex(), len(l.URLs), hexutil.Encode(l.CallbackFunction[:]))
}

// Revert encodes the lookup as revert data.
func (l *OffchainLookup) Revert() ([]byte, error) {
	packed, err := lookupError.Inputs.Pack(l.Sender, l.URLs, l.CallData, l.CallbackFunction, l.ExtraData)
	if err != nil {
		return nil, fmt.Errorf("%w: pack offchain lookup: %v", apperrors.ErrInternal, err)
	}
	return append(OffchainLookupSelector[:], packed...), nil
}

// DecodeOffchainLookup parses OffchainLookup revert data.
func DecodeOffchainLookup(data []byte) (*OffchainLookup, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], OffchainLookupSelector[:]) {
		return nil, fmt.Errorf("%w: not an offchain lookup revert", apperrors.ErrInvalidInput)
	}
	var decoded struct {
		Sender           common.Address
		Urls             []string
		CallData         []byte
		CallbackFunction [4]byte
		ExtraData        []byte
	}
	args, err := lookupError.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: decode offchain lookup: %v", apperrors.ErrInvalidInput, err)
	}
	if err := lookupError.Inputs.Copy(&decoded, args); err != nil {
		return nil, fmt.Errorf("%w: decode offchain lookup: %v", apperrors.ErrInvalidInput, err)
	}
	return &OffchainLookup{
		Sender:           decoded.Sender,
		URLs:             decoded.Urls,
		CallData:         decoded.CallData,
		CallbackFunction: decoded.CallbackFunction,
		ExtraData:        decoded.ExtraData,
	}, nil
}
