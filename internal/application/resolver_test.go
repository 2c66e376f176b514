package application

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/adapter/storage/memstate"
	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/ccip"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/domain/profile"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

func dnsName(t *testing.T, name string) []byte {
	t.Helper()
	encoded, err := entity.DNSEncode(name)
	require.NoError(t, err)
	return encoded
}

func TestResolverIdentity(t *testing.T) {
	f := newFixture(t, ProverConfig{})

	assert.Equal(t, entity.CoinType(0x80002105), f.service.CoinType())
	chainID, err := f.service.ChainID()
	require.NoError(t, err)
	assert.Equal(t, uint64(testChainID), chainID)

	assert.True(t, f.service.SupportsInterface(profile.InterfaceERC165))
	assert.True(t, f.service.SupportsInterface(profile.InterfaceExtendedResolver))
	assert.True(t, f.service.SupportsInterface(profile.InterfaceNameReverser))
	assert.False(t, f.service.SupportsInterface(profile.SelectorText))
	assert.False(t, f.service.SupportsInterface([4]byte{0xff, 0xff, 0xff, 0xff}))
}

func TestResolveNamesAppliesFallback(t *testing.T) {
	f := newFixture(t, ProverConfig{})

	names, err := f.service.ResolveNames(context.Background(), []common.Address{alice, bob, carol, dave})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.base.eth", bobName, "carol.eth", ""}, names)
	assert.Equal(t, 1, f.fetcher.fetches())
}

func TestResolveNamesPositional(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	w0, w1, w2 := common.HexToAddress("0x10"), common.HexToAddress("0x11"), common.HexToAddress("0x12")
	_, err := f.l2.SetName(w0, "A")
	require.NoError(t, err)
	f.defaults.SetName(w1, "B")

	names, err := f.service.ResolveNames(context.Background(), []common.Address{w0, w1, w2})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", ""}, names)

	again, err := f.service.ResolveNames(context.Background(), []common.Address{w0, w1, w2})
	require.NoError(t, err)
	assert.Equal(t, names, again)
}

func TestResolveNamesEmpty(t *testing.T) {
	f := newFixture(t, ProverConfig{})

	names, err := f.service.ResolveNames(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, names)

	direct, err := f.resolver.ResolveNames(context.Background(), []common.Address{})
	require.NoError(t, err)
	assert.Equal(t, []string{}, direct)
	assert.Zero(t, f.fetcher.fetches())
}

func TestResolveNamesDuplicates(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	f.prover.SetCacheEnabled(false)

	names, err := f.service.ResolveNames(context.Background(), []common.Address{alice, alice, dave, alice})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.base.eth", "alice.base.eth", "", "alice.base.eth"}, names)
	// Two unique head slots, both short.
	assert.Equal(t, 2, f.source.provenSlots())
}

func TestResolveNamesRaisesLookup(t *testing.T) {
	f := newFixture(t, ProverConfig{})

	_, err := f.resolver.ResolveNames(context.Background(), []common.Address{alice, alice, bob})
	var lookup *ccip.OffchainLookup
	require.ErrorAs(t, err, &lookup)
	assert.Equal(t, resolverAddr, lookup.Sender)
	assert.Equal(t, []string{"http://gateway.test/lookup"}, lookup.URLs)
	assert.Equal(t, [4]byte(profile.SelectorResolveNamesCallback), lookup.CallbackFunction)

	encoded, err := profile.DecodeProveCommit(lookup.CallData)
	require.NoError(t, err)
	commit, err := entity.DecodeProofCommit(encoded)
	require.NoError(t, err)
	assert.Equal(t, uint64(testChainID), commit.ChainID)
	assert.Equal(t, registrarAddr, commit.Target)
	head, _ := f.chain.Head(context.Background())
	assert.Equal(t, head, commit.Commitment)
	require.Len(t, commit.Requests, 2)
	assert.Equal(t, entity.SlotRequest{Slot: entity.NamesSlot(alice, 0), Dynamic: true}, commit.Requests[0])
	assert.Equal(t, entity.SlotRequest{Slot: entity.NamesSlot(bob, 0), Dynamic: true}, commit.Requests[1])
}

func TestResolveName(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()

	tests := []struct {
		addr common.Address
		want string
	}{
		{addr: alice, want: "alice.base.eth"},
		{addr: bob, want: bobName},
		{addr: carol, want: "carol.eth"},
		{addr: dave, want: ""},
	}
	for _, tt := range tests {
		name, err := f.service.ResolveName(ctx, tt.addr)
		require.NoError(t, err)
		assert.Equal(t, tt.want, name, tt.addr.Hex())
	}
}

func TestResolveNameChangesWithChain(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()

	_, err := f.l2.SetName(alice, "")
	require.NoError(t, err)
	name, err := f.service.ResolveName(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "alice.eth", name)

	f.defaults.SetName(dave, "dave.eth")
	name, err = f.service.ResolveName(ctx, dave)
	require.NoError(t, err)
	assert.Equal(t, "dave.eth", name)
}

func TestResolveAddrOfNamespace(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()
	namespace := entity.ReverseNamespace(f.coinType)
	node := entity.NameHash(namespace)

	call, err := profile.EncodeAddrCall(node, new(big.Int).SetUint64(uint64(f.coinType)))
	require.NoError(t, err)
	out, err := f.service.Resolve(ctx, dnsName(t, namespace), call)
	require.NoError(t, err)
	value, err := profile.DecodeAddrResult(out)
	require.NoError(t, err)
	assert.Equal(t, registrarAddr.Bytes(), value)

	call, err = profile.EncodeAddrCall(node, new(big.Int).SetUint64(uint64(f.coinType)+1))
	require.NoError(t, err)
	out, err = f.service.Resolve(ctx, dnsName(t, namespace), call)
	require.NoError(t, err)
	value, err = profile.DecodeAddrResult(out)
	require.NoError(t, err)
	assert.Empty(t, value)

	call, err = profile.EncodeAddrCall(node, new(big.Int).SetUint64(uint64(f.coinType)))
	require.NoError(t, err)
	out, err = f.service.Resolve(ctx, dnsName(t, strings.ToUpper(namespace)), call)
	require.NoError(t, err)
	value, err = profile.DecodeAddrResult(out)
	require.NoError(t, err)
	assert.Equal(t, registrarAddr.Bytes(), value)
	assert.Zero(t, f.fetcher.fetches())
}

func TestResolveUnknownProfileIgnoresName(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	textCall, err := profile.EncodeTextCall(common.Hash{}, "avatar")
	require.NoError(t, err)

	for _, name := range [][]byte{{0xff}, {5, 'x'}, nil} {
		_, err = f.resolver.Resolve(context.Background(), name, textCall)
		var unsupported *profile.UnsupportedResolverProfileError
		require.ErrorAs(t, err, &unsupported)
		assert.Equal(t, profile.SelectorText, unsupported.Selector)
	}
}

func TestResolveRejects(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()
	reverse := entity.ReverseName(alice, f.coinType)
	node := entity.NameHash(reverse)

	textCall, err := profile.EncodeTextCall(node, "avatar")
	require.NoError(t, err)
	_, err = f.service.Resolve(ctx, dnsName(t, reverse), textCall)
	var unsupported *profile.UnsupportedResolverProfileError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, profile.SelectorText, unsupported.Selector)

	// addr() of anything but the namespace itself is not answered.
	addrCall, err := profile.EncodeAddrCall(node, big.NewInt(60))
	require.NoError(t, err)
	_, err = f.service.Resolve(ctx, dnsName(t, reverse), addrCall)
	require.ErrorAs(t, err, &unsupported)

	nameCall, err := profile.EncodeNameCall(node)
	require.NoError(t, err)
	for _, name := range []string{
		entity.ReverseName(alice, entity.CoinTypeDefault),
		entity.ReverseNamespace(f.coinType),
		"alice.eth",
	} {
		_, err = f.service.Resolve(ctx, dnsName(t, name), nameCall)
		var unreachable *profile.UnreachableNameError
		require.ErrorAs(t, err, &unreachable, name)
		assert.Equal(t, dnsName(t, name), unreachable.Name)
	}

	_, err = f.service.Resolve(ctx, []byte{5, 'x'}, nameCall)
	var unreachable *profile.UnreachableNameError
	require.ErrorAs(t, err, &unreachable)
	assert.Zero(t, f.fetcher.fetches())
}

func TestResolveRejectsTamperedResponse(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	f.fetcher.tamper = func(response []byte) []byte {
		bundle, err := entity.DecodeProofBundle(response)
		require.NoError(t, err)
		slot := bundle.Storage[0].Slot
		bundle.Storage[0].Value = entity.EncodeStorageString(slot, "mallory.eth")[slot]
		out, err := bundle.Encode()
		require.NoError(t, err)
		return out
	}

	_, err := f.service.ResolveNames(context.Background(), []common.Address{alice})
	assert.ErrorIs(t, err, domain.ErrVerification)

	f.fetcher.tamper = func([]byte) []byte { return []byte{0x01} }
	_, err = f.service.ResolveName(context.Background(), alice)
	assert.ErrorIs(t, err, domain.ErrVerification)
}

func TestCallbackRejectsMismatchedSelector(t *testing.T) {
	f := newFixture(t, ProverConfig{})

	_, err := f.resolver.ResolveNames(context.Background(), []common.Address{alice})
	var lookup *ccip.OffchainLookup
	require.ErrorAs(t, err, &lookup)

	_, err = f.resolver.Callback(context.Background(), profile.SelectorResolveCallback, nil, lookup.ExtraData)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = f.resolver.Callback(context.Background(), profile.SelectorResolveNamesCallback, nil, []byte{0xff})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// craftCallback proves the names slot of addr on chain and hands the bundle to the resolver's
// callback as if it came back from a gateway. mutate may alter the commit before proving.
func craftCallback(
	t *testing.T,
	f *fixture,
	chain *memstate.Chain,
	addr common.Address,
	mutate func(commit *entity.ProofCommit),
) (string, error) {
	t.Helper()
	ctx := context.Background()
	head, err := chain.Head(ctx)
	require.NoError(t, err)

	slot := entity.NamesSlot(addr, 0)
	commit := entity.ProofCommit{
		ChainID:    testChainID,
		Target:     registrarAddr,
		Commitment: head,
		Requests:   []entity.SlotRequest{{Slot: slot, Dynamic: true}},
	}
	if mutate != nil {
		mutate(&commit)
	}
	account, storage, err := chain.GetProof(ctx, commit.Target, []common.Hash{commit.Requests[0].Slot}, head)
	require.NoError(t, err)
	bundle := entity.ProofBundle{Commit: commit, Account: *account, Storage: storage}
	response, err := bundle.Encode()
	require.NoError(t, err)

	encodedCommit, err := commit.Encode()
	require.NoError(t, err)
	extra, err := rlp.EncodeToBytes(&lookupContext{Kind: lookupName, Commit: encodedCommit, Addrs: []common.Address{addr}})
	require.NoError(t, err)

	out, err := f.resolver.Callback(ctx, profile.SelectorResolveCallback, response, extra)
	if err != nil {
		return "", err
	}
	return profile.DecodeNameResult(out)
}

func TestCallbackTrustsOnlyIssuedCommitments(t *testing.T) {
	f := newFixture(t, ProverConfig{})

	_, err := f.service.ResolveName(context.Background(), alice)
	require.NoError(t, err)
	name, err := craftCallback(t, f, f.chain, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice.base.eth", name)

	forged, _, err := memstate.FromSeed(&entity.DevSeed{
		ChainID:     testChainID,
		L2Registrar: registrarAddr,
		L2Names:     map[common.Address]string{alice: "mallory.eth"},
	}, zap.NewNop())
	require.NoError(t, err)
	honestHead, err := f.chain.Head(context.Background())
	require.NoError(t, err)
	forgedHead, err := forged.Head(context.Background())
	require.NoError(t, err)
	require.NotEqual(t, honestHead.StateRoot, forgedHead.StateRoot)

	_, err = craftCallback(t, f, forged, alice, nil)
	assert.ErrorIs(t, err, domain.ErrVerification)
}

func TestCallbackRejectsForeignCommit(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	_, err := f.service.ResolveName(context.Background(), alice)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(commit *entity.ProofCommit)
	}{
		{name: "other chain", mutate: func(c *entity.ProofCommit) { c.ChainID = 10 }},
		{name: "other target", mutate: func(c *entity.ProofCommit) { c.Target = carol }},
		{name: "other slot", mutate: func(c *entity.ProofCommit) { c.Requests[0].Slot = entity.NamesSlot(bob, 0) }},
		{name: "static slot", mutate: func(c *entity.ProofCommit) { c.Requests[0].Dynamic = false }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := craftCallback(t, f, f.chain, alice, tt.mutate)
			assert.ErrorIs(t, err, domain.ErrVerification)
		})
	}
}
