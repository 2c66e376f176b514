package rpc

import (
	"context"
	"errors"
	"math/big"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/adapter/storage/memstate"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/domain/profile"
)

// testNode answers the handful of eth_ methods the adapters use, backed by a memstate chain.
type testNode struct {
	chain     *memstate.Chain
	registrar *memstate.L2Registrar
	finalized entity.Commitment
}

type storageResult struct {
	Key   string       `json:"key"`
	Value *hexutil.Big `json:"value"`
	Proof []string     `json:"proof"`
}

type proofResult struct {
	Address      common.Address  `json:"address"`
	AccountProof []string        `json:"accountProof"`
	Balance      *hexutil.Big    `json:"balance"`
	CodeHash     common.Hash     `json:"codeHash"`
	Nonce        hexutil.Uint64  `json:"nonce"`
	StorageHash  common.Hash     `json:"storageHash"`
	StorageProof []storageResult `json:"storageProof"`
}

func (n *testNode) ChainId() hexutil.Uint64 {
	return hexutil.Uint64(n.chain.ChainID())
}

func (n *testNode) GetBlockByNumber(ctx context.Context, number gethrpc.BlockNumber, _ bool) (*types.Header, error) {
	head, err := n.chain.Head(ctx)
	if err != nil {
		return nil, err
	}
	if number == gethrpc.FinalizedBlockNumber {
		head = n.finalized
	}
	return &types.Header{
		Number:     new(big.Int).SetUint64(head.BlockNumber),
		Root:       head.StateRoot,
		Difficulty: new(big.Int),
	}, nil
}

func (n *testNode) GetProof(ctx context.Context, address common.Address, keys []string, number gethrpc.BlockNumber) (*proofResult, error) {
	head, err := n.chain.Head(ctx)
	if err != nil {
		return nil, err
	}
	if number.Int64() != int64(head.BlockNumber) {
		return nil, errors.New("only the head block is served")
	}
	slots := make([]common.Hash, len(keys))
	for i, k := range keys {
		slots[i] = common.HexToHash(k)
	}
	account, storage, err := n.chain.GetProof(ctx, address, slots, head)
	if err != nil {
		return nil, err
	}

	res := &proofResult{
		Address:      address,
		AccountProof: encodeNodes(account.Proof),
		Balance:      (*hexutil.Big)(new(big.Int)),
		CodeHash:     types.EmptyCodeHash,
	}
	for _, sp := range storage {
		res.StorageProof = append(res.StorageProof, storageResult{
			Key:   sp.Slot.Hex(),
			Value: (*hexutil.Big)(new(big.Int).SetBytes(sp.Value[:])),
			Proof: encodeNodes(sp.Proof),
		})
	}
	return res, nil
}

func (n *testNode) Call(ctx context.Context, args map[string]interface{}, _ string) (hexutil.Bytes, error) {
	input, _ := args["input"].(string)
	if input == "" {
		input, _ = args["data"].(string)
	}
	data, err := hexutil.Decode(input)
	if err != nil {
		return nil, err
	}
	method, err := profile.RegistrarABI.MethodById(data)
	if err != nil {
		return nil, err
	}
	in, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	name, err := n.registrar.NameForAddr(ctx, in[0].(common.Address))
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(name)
}

func encodeNodes(nodes [][]byte) []string {
	out := make([]string, len(nodes))
	for i, node := range nodes {
		out[i] = hexutil.Encode(node)
	}
	return out
}

// startTestNode serves a chain with alice named over HTTP and websocket.
func startTestNode(t *testing.T) (node *testNode, httpURL, wsURL entity.RPCURL) {
	t.Helper()
	chain, registrar, err := memstate.FromSeed(&entity.DevSeed{
		ChainID:     8453,
		L2Registrar: common.HexToAddress("0xaa"),
		L2Names:     map[common.Address]string{common.HexToAddress("0x01"): "alice.base.eth"},
	}, zap.NewNop())
	require.NoError(t, err)
	genesis := entity.Commitment{StateRoot: types.EmptyRootHash}
	node = &testNode{chain: chain, registrar: registrar, finalized: genesis}

	server := gethrpc.NewServer()
	require.NoError(t, server.RegisterName("eth", node))
	httpSrv := httptest.NewServer(server)
	wsSrv := httptest.NewServer(server.WebsocketHandler([]string{"*"}))
	t.Cleanup(func() {
		httpSrv.Close()
		wsSrv.Close()
		server.Stop()
	})

	return node, entity.RPCURL(httpSrv.URL), entity.RPCURL("ws" + strings.TrimPrefix(wsSrv.URL, "http"))
}
