package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/adapter/storage/memory"
	"chain-reverse-resolver/internal/adapter/storage/memstate"
	"chain-reverse-resolver/internal/adapter/verifier"
	"chain-reverse-resolver/internal/application/port"
	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/domain/ccip"
	"chain-reverse-resolver/internal/domain/entity"
)

const testChainID = 8453

var (
	resolverAddr  = common.HexToAddress("0x00000000000000000000000000000000000000f0")
	registrarAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	alice         = common.HexToAddress("0x0000000000000000000000000000000000000001")
	bob           = common.HexToAddress("0x0000000000000000000000000000000000000002")
	carol         = common.HexToAddress("0x0000000000000000000000000000000000000003")
	dave          = common.HexToAddress("0x0000000000000000000000000000000000000004")

	bobName = strings.Repeat("bob", 15) + ".base.eth"
)

// countingSource counts the slots proven by the wrapped source.
type countingSource struct {
	*memstate.Chain
	mu    sync.Mutex
	slots int
}

func (s *countingSource) GetProof(
	ctx context.Context,
	account common.Address,
	slots []common.Hash,
	commitment entity.Commitment,
) (*entity.AccountProof, []entity.StorageProof, error) {
	s.mu.Lock()
	s.slots += len(slots)
	s.mu.Unlock()
	return s.Chain.GetProof(ctx, account, slots, commitment)
}

func (s *countingSource) provenSlots() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots
}

// gatewayFetcher hands lookups straight to a gateway service.
type gatewayFetcher struct {
	gateway port.GatewayService
	tamper  func(response []byte) []byte
	mu      sync.Mutex
	calls   int
}

func (f *gatewayFetcher) Fetch(ctx context.Context, sender common.Address, _ []string, callData []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	response, err := f.gateway.Handle(ctx, sender, callData)
	if err != nil {
		return nil, err
	}
	if f.tamper != nil {
		response = f.tamper(response)
	}
	return response, nil
}

func (f *gatewayFetcher) fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixture struct {
	chain    *memstate.Chain
	l2       *memstate.L2Registrar
	source   *countingSource
	cache    *memory.CacheRepository
	prover   *Prover
	gateway  port.GatewayService
	fetcher  *gatewayFetcher
	defaults *memory.Registrar
	resolver *ChainReverseResolver
	service  port.ReverseService
	coinType entity.CoinType
}

// newFixture wires a resolver to an in-process gateway proving a memstate chain where alice
// and bob have L2 names and alice and carol have default names.
func newFixture(t *testing.T, proverCfg ProverConfig) *fixture {
	t.Helper()
	logger := zap.NewNop()

	chain, l2, err := memstate.FromSeed(&entity.DevSeed{
		ChainID:     testChainID,
		L2Registrar: registrarAddr,
		L2Names:     map[common.Address]string{alice: "alice.base.eth", bob: bobName},
	}, logger)
	require.NoError(t, err)

	source := &countingSource{Chain: chain}
	cache := memory.NewCacheRepository(config.CacheConfig{
		Enabled:           true,
		DefaultExpiration: time.Minute,
		CleanupInterval:   time.Minute,
	}, logger)
	prover := NewProver(testChainID, source, cache, proverCfg, logger)
	gateway := NewGatewayService(prover, logger)
	fetcher := &gatewayFetcher{gateway: gateway}

	defaults := memory.NewRegistrar(map[common.Address]string{alice: "alice.eth", carol: "carol.eth"})
	coinType, err := entity.CoinTypeFromChain(testChainID)
	require.NoError(t, err)

	resolver := NewChainReverseResolver(ResolverConfig{
		Address:     resolverAddr,
		CoinType:    coinType,
		L2Registrar: registrarAddr,
		GatewayURLs: []string{"http://gateway.test/lookup"},
	}, verifier.NewTrie(chain, logger), defaults, logger)

	return &fixture{
		chain:    chain,
		l2:       l2,
		source:   source,
		cache:    cache,
		prover:   prover,
		gateway:  gateway,
		fetcher:  fetcher,
		defaults: defaults,
		resolver: resolver,
		service:  NewReverseService(resolver, ccip.NewClient(fetcher, 0, logger), logger),
		coinType: coinType,
	}
}
