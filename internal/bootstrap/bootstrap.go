// Package bootstrap wires the gateway and the resolver from configuration.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	adapterCCIP "chain-reverse-resolver/internal/adapter/ccip"
	"chain-reverse-resolver/internal/adapter/rpc"
	"chain-reverse-resolver/internal/adapter/storage/memory"
	"chain-reverse-resolver/internal/adapter/storage/memstate"
	"chain-reverse-resolver/internal/adapter/storage/seed"
	"chain-reverse-resolver/internal/adapter/verifier"
	"chain-reverse-resolver/internal/application"
	"chain-reverse-resolver/internal/application/port"
	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/domain/ccip"
	"chain-reverse-resolver/internal/domain/entity"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
	domainService "chain-reverse-resolver/internal/domain/service"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// Gateway is a wired proving gateway.
type Gateway struct {
	Service port.GatewayService
	Prover  *application.Prover
	Cache   *memory.CacheRepository
	Pool    *application.UpstreamPool
	closers []func()
}

// Close releases upstream connections.
func (g *Gateway) Close() {
	for _, c := range g.closers {
		c()
	}
}

// Resolver is a wired chain reverse resolver.
type Resolver struct {
	Service  port.ReverseService
	Resolver *application.ChainReverseResolver
	closers  []func()
}

// Close releases upstream connections.
func (r *Resolver) Close() {
	for _, c := range r.closers {
		c()
	}
}

// Option adjusts wiring, mostly for tests.
type Option func(*options)

type options struct {
	httpClient *fasthttp.Client
}

// WithHTTPClient makes the resolver reach gateways through client.
func WithHTTPClient(client *fasthttp.Client) Option {
	return func(o *options) { o.httpClient = client }
}

// NewGateway wires a gateway. With a dev seed, state comes from the in-memory chain;
// otherwise from the upstream RPC pool, which is started here and stops with ctx.
func NewGateway(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Gateway, error) {
	gw := &Gateway{Cache: memory.NewCacheRepository(cfg.Cache, logger)}
	chainID := cfg.Gateway.ChainID

	var source domainRepo.StateSource
	if cfg.UsesDevChain() {
		devSeed, err := seed.NewRepository(logger).Load(ctx, cfg.Dev.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load dev seed: %w", err)
		}
		if chainID == 0 {
			chainID = devSeed.ChainID
		}
		if chainID != devSeed.ChainID {
			return nil, fmt.Errorf("%w: gateway chain %d, seed chain %d", apperrors.ErrInvalidInput, chainID, devSeed.ChainID)
		}
		chain, _, err := memstate.FromSeed(devSeed, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build dev chain: %w", err)
		}
		source = chain
	} else {
		urls := parseRPCURLs(cfg.Upstream.RPCURLs, logger)
		if len(urls) == 0 {
			return nil, fmt.Errorf("%w: no upstream rpc urls configured", apperrors.ErrInvalidInput)
		}
		gw.Pool = application.NewUpstreamPool(ctx, chainID, urls, rpc.NewChecker(logger), logger, cfg.Upstream)
		gw.Pool.Start()
		stateSource := rpc.NewStateSource(gw.Pool, logger)
		gw.closers = append(gw.closers, stateSource.Close)
		source = stateSource
	}

	gw.Prover = application.NewProver(chainID, source, gw.Cache, application.ProverConfig{
		MaxUniqueProofs: cfg.Gateway.MaxUniqueProofs,
		Workers:         cfg.Gateway.Workers,
	}, logger)
	gw.Service = application.NewGatewayService(gw.Prover, logger)

	logger.Info("Gateway wired",
		zap.Uint64("chainId", chainID),
		zap.Bool("devChain", cfg.UsesDevChain()),
		zap.Int("maxUniqueProofs", cfg.Gateway.MaxUniqueProofs),
		zap.Bool("cache", gw.Cache.Enabled()),
	)
	return gw, nil
}

// NewResolver wires a resolver and the lookup client that drives it.
func NewResolver(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*Resolver, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	rc := cfg.Resolver
	res := &Resolver{}
	resolverCfg := application.ResolverConfig{
		GatewayURLs: rc.GatewayURLs,
		NamesSlot:   rc.NamesSlot,
	}
	if rc.Address != "" {
		if !common.IsHexAddress(rc.Address) {
			return nil, fmt.Errorf("%w: resolver address %q", apperrors.ErrInvalidInput, rc.Address)
		}
		resolverCfg.Address = common.HexToAddress(rc.Address)
	}
	chainID := rc.ChainID

	var (
		head             domainService.HeadSource
		defaultRegistrar domainRepo.NameRegistrar
	)
	if cfg.UsesDevChain() {
		devSeed, err := seed.NewRepository(logger).Load(ctx, cfg.Dev.SeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load dev seed: %w", err)
		}
		chain, l2, err := memstate.FromSeed(devSeed, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build dev chain: %w", err)
		}
		head = chain
		defaultRegistrar = memory.NewRegistrar(devSeed.DefaultNames)
		resolverCfg.L2Registrar = l2.Address()
		resolverCfg.NamesSlot = devSeed.NamesSlot
		if chainID == 0 {
			chainID = devSeed.ChainID
		}
	} else {
		if !common.IsHexAddress(rc.L2Registrar) || !common.IsHexAddress(rc.DefaultRegistrar) {
			return nil, fmt.Errorf("%w: registrar addresses are required", apperrors.ErrInvalidInput)
		}
		verifierURL, err := entity.NewRPCURL(rc.VerifierRPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: verifier rpc url: %v", apperrors.ErrInvalidInput, err)
		}
		originURL, err := entity.NewRPCURL(rc.OriginRPCURL)
		if err != nil {
			return nil, fmt.Errorf("%w: origin rpc url: %v", apperrors.ErrInvalidInput, err)
		}
		headSource := rpc.NewHeadSource(rpc.StaticEndpoints(verifierURL), rc.Finalized, logger)
		registrar := rpc.NewContractRegistrar(common.HexToAddress(rc.DefaultRegistrar), rpc.StaticEndpoints(originURL), logger)
		res.closers = append(res.closers, headSource.Close, registrar.Close)
		head = headSource
		defaultRegistrar = registrar
		resolverCfg.L2Registrar = common.HexToAddress(rc.L2Registrar)
	}

	if rc.CoinType != 0 {
		resolverCfg.CoinType = entity.CoinType(rc.CoinType)
	} else {
		coinType, err := entity.CoinTypeFromChain(chainID)
		if err != nil {
			return nil, err
		}
		resolverCfg.CoinType = coinType
	}

	var v domainService.Verifier
	switch rc.Verifier {
	case config.VerifierUnchecked, "":
		v = verifier.NewUnchecked(head)
	case config.VerifierTrie:
		v = verifier.NewTrie(head, logger)
	default:
		return nil, fmt.Errorf("%w: unknown verifier %q", apperrors.ErrInvalidInput, rc.Verifier)
	}

	res.Resolver = application.NewChainReverseResolver(resolverCfg, v, defaultRegistrar, logger)
	fetcher := adapterCCIP.NewHTTPFetcher(o.httpClient, rc.RequestTimeout, logger)
	client := ccip.NewClient(fetcher, rc.MaxLookups, logger)
	res.Service = application.NewReverseService(res.Resolver, client, logger)

	logger.Info("Resolver wired",
		zap.String("coinType", resolverCfg.CoinType.String()),
		zap.String("namespace", entity.ReverseNamespace(resolverCfg.CoinType)),
		zap.String("verifier", rc.Verifier),
		zap.Strings("gateways", rc.GatewayURLs),
	)
	return res, nil
}

// parseRPCURLs keeps the valid urls.
func parseRPCURLs(raw []string, logger *zap.Logger) []entity.RPCURL {
	urls := make([]entity.RPCURL, 0, len(raw))
	for _, s := range raw {
		u, err := entity.NewRPCURL(s)
		if err != nil {
			logger.Warn("Skipping invalid RPC URL", zap.String("rawUrl", s), zap.Error(err))
			continue
		}
		urls = append(urls, u)
	}
	return urls
}
