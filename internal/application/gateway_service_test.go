package application

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/domain/profile"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// namedAddrs returns n addresses that all have short L2 names.
func namedAddrs(t *testing.T, f *fixture, n int) []common.Address {
	t.Helper()
	addrs := make([]common.Address, n)
	names := make(map[common.Address]string, n)
	for i := range addrs {
		addrs[i] = common.BigToAddress(big.NewInt(int64(0x1000 + i)))
		names[addrs[i]] = fmt.Sprintf("user%d.base.eth", i)
	}
	_, err := f.l2.SetNames(names)
	require.NoError(t, err)
	return addrs
}

func TestMaxUniqueProofs(t *testing.T) {
	f := newFixture(t, ProverConfig{MaxUniqueProofs: 10})
	addrs := namedAddrs(t, f, 11)

	names, err := f.service.ResolveNames(context.Background(), addrs[:10])
	require.NoError(t, err)
	assert.Equal(t, "user9.base.eth", names[9])

	before := f.source.provenSlots()
	_, err = f.service.ResolveNames(context.Background(), addrs)
	require.ErrorIs(t, err, domain.ErrTooManyProofs)
	assert.Equal(t, before, f.source.provenSlots(), "nothing is proven for a rejected commit")

	// Duplicates do not count against the bound.
	_, err = f.service.ResolveNames(context.Background(), append(addrs[:10:10], addrs[0], addrs[1]))
	require.NoError(t, err)
}

func TestMaxUniqueProofsCountsDataSlots(t *testing.T) {
	f := newFixture(t, ProverConfig{MaxUniqueProofs: 3})
	f.prover.SetCacheEnabled(false)

	// bob's head plus two data slots fit exactly.
	names, err := f.service.ResolveNames(context.Background(), []common.Address{bob})
	require.NoError(t, err)
	assert.Equal(t, []string{bobName}, names)
	assert.Equal(t, 3, f.source.provenSlots())

	_, err = f.service.ResolveNames(context.Background(), []common.Address{bob, alice})
	require.ErrorIs(t, err, domain.ErrTooManyProofs)

	_, err = f.l2.SetName(carol, strings.Repeat("c", 200))
	require.NoError(t, err)
	_, err = f.service.ResolveNames(context.Background(), []common.Address{carol})
	require.ErrorIs(t, err, domain.ErrTooManyProofs)
}

func TestConfigureHook(t *testing.T) {
	f := newFixture(t, ProverConfig{MaxUniqueProofs: 1})
	var seen int
	f.prover.SetConfigure(func(commit *entity.ProofCommit, cfg *ProverConfig) {
		seen = len(commit.Requests)
		cfg.MaxUniqueProofs = 16
		cfg.Workers = 1
	})

	names, err := f.service.ResolveNames(context.Background(), []common.Address{alice, bob, carol})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice.base.eth", bobName, "carol.eth"}, names)
	assert.Equal(t, 3, seen)
}

func TestConfigureHookSwappedWhileProving(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.service.ResolveNames(ctx, []common.Address{alice, carol})
			errs <- err
		}()
		go func(workers int) {
			defer wg.Done()
			f.prover.SetConfigure(func(_ *entity.ProofCommit, cfg *ProverConfig) {
				cfg.Workers = workers
			})
		}(i + 1)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestProverUsesCache(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()
	addrs := []common.Address{alice, bob, dave}

	first, err := f.service.ResolveNames(ctx, addrs)
	require.NoError(t, err)
	proven := f.source.provenSlots()
	assert.Equal(t, 5, proven)
	assert.Positive(t, f.cache.ItemCount())

	second, err := f.service.ResolveNames(ctx, addrs)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, proven, f.source.provenSlots())

	f.gateway.SetCacheEnabled(false)
	assert.Zero(t, f.cache.ItemCount())
	_, err = f.service.ResolveNames(ctx, addrs)
	require.NoError(t, err)
	assert.Equal(t, 2*proven, f.source.provenSlots())
}

func TestProverAccountProofFromCache(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()
	head, err := f.chain.Head(ctx)
	require.NoError(t, err)

	commit := &entity.ProofCommit{
		ChainID:    testChainID,
		Target:     registrarAddr,
		Commitment: head,
		Requests:   []entity.SlotRequest{{Slot: entity.NamesSlot(alice, 0), Dynamic: true}},
	}
	first, err := f.prover.Prove(ctx, commit)
	require.NoError(t, err)

	second, err := f.prover.Prove(ctx, commit)
	require.NoError(t, err)
	assert.Equal(t, first.Account, second.Account)
	assert.Equal(t, first.Storage, second.Storage)
	assert.Equal(t, 1, f.source.provenSlots())
}

func TestProverEmptyCommit(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	head, err := f.chain.Head(context.Background())
	require.NoError(t, err)

	bundle, err := f.prover.Prove(context.Background(), &entity.ProofCommit{
		ChainID:    testChainID,
		Target:     registrarAddr,
		Commitment: head,
	})
	require.NoError(t, err)
	assert.Empty(t, bundle.Storage)
	assert.NotEmpty(t, bundle.Account.Proof)
}

func TestProverRejectsOtherChain(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	head, err := f.chain.Head(context.Background())
	require.NoError(t, err)

	_, err = f.prover.Prove(context.Background(), &entity.ProofCommit{ChainID: 1, Target: registrarAddr, Commitment: head})
	assert.ErrorIs(t, err, domain.ErrChainMismatch)
}

func TestProverUnknownState(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	_, err := f.prover.Prove(context.Background(), &entity.ProofCommit{
		ChainID:    testChainID,
		Target:     registrarAddr,
		Commitment: entity.Commitment{BlockNumber: 99, StateRoot: common.HexToHash("0x99")},
		Requests:   []entity.SlotRequest{{Slot: common.HexToHash("0x01")}, {Slot: common.HexToHash("0x02")}},
	})
	assert.ErrorIs(t, err, domain.ErrUpstreamSourceFailure)
}

type failingSource struct{ err error }

func (s failingSource) GetProof(context.Context, common.Address, []common.Hash, entity.Commitment) (*entity.AccountProof, []entity.StorageProof, error) {
	return nil, nil, s.err
}

func TestProverWithoutCache(t *testing.T) {
	boom := errors.New("boom")
	prover := NewProver(testChainID, failingSource{err: boom}, nil, ProverConfig{}, zap.NewNop())
	prover.SetCacheEnabled(true)

	_, err := prover.Prove(context.Background(), &entity.ProofCommit{
		ChainID:  testChainID,
		Requests: []entity.SlotRequest{{Slot: common.HexToHash("0x01")}},
	})
	assert.ErrorIs(t, err, boom)
}

func TestGatewayHandleRejectsMalformedCalls(t *testing.T) {
	f := newFixture(t, ProverConfig{})
	ctx := context.Background()

	nameCall, err := profile.EncodeNameCall(common.Hash{})
	require.NoError(t, err)
	_, err = f.gateway.Handle(ctx, resolverAddr, nameCall)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	garbage, err := profile.EncodeProveCommit([]byte{0xff, 0xff})
	require.NoError(t, err)
	_, err = f.gateway.Handle(ctx, resolverAddr, garbage)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
