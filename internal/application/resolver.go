package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/ccip"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/domain/profile"
	domainRepo "chain-reverse-resolver/internal/domain/repository"
	domainService "chain-reverse-resolver/internal/domain/service"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// Compile-time check
var _ ccip.Target = (*ChainReverseResolver)(nil)

// ResolverConfig is the deployment of one ChainReverseResolver.
type ResolverConfig struct {
	// Address is the resolver's own address, used as the sender of its lookups.
	Address common.Address
	// CoinType is the chain this resolver answers for.
	CoinType entity.CoinType
	// L2Registrar is the registrar contract on the target chain whose storage is proven.
	L2Registrar common.Address
	// NamesSlot is the storage slot of the registrar's mapping(address => string).
	NamesSlot uint64
	// GatewayURLs are handed to the transport in every lookup.
	GatewayURLs []string
}

type lookupKind uint8

const (
	lookupName lookupKind = iota + 1
	lookupNames
)

// lookupContext travels through the gateway round trip as the lookup's extra data.
type lookupContext struct {
	Kind   lookupKind
	Commit []byte
	Addrs  []common.Address
}

// ChainReverseResolver answers reverse resolution for one chain. Names set on that chain's
// registrar are read through proofs; the default registrar is the fallback.
type ChainReverseResolver struct {
	cfg              ResolverConfig
	verifier         domainService.Verifier
	defaultRegistrar domainRepo.NameRegistrar
	logger           *zap.Logger
}

// NewChainReverseResolver creates a resolver for cfg.
func NewChainReverseResolver(
	cfg ResolverConfig,
	verifier domainService.Verifier,
	defaultRegistrar domainRepo.NameRegistrar,
	logger *zap.Logger,
) *ChainReverseResolver {
	return &ChainReverseResolver{
		cfg:              cfg,
		verifier:         verifier,
		defaultRegistrar: defaultRegistrar,
		logger:           logger.Named("ChainReverseResolver"),
	}
}

// Address returns the resolver's own address.
func (r *ChainReverseResolver) Address() common.Address {
	return r.cfg.Address
}

// CoinType returns the coin type this resolver answers for.
func (r *ChainReverseResolver) CoinType() entity.CoinType {
	return r.cfg.CoinType
}

// ChainID returns the chain encoded by the resolver's coin type.
func (r *ChainReverseResolver) ChainID() (uint64, error) {
	return entity.ChainFromCoinType(r.cfg.CoinType)
}

// SupportsInterface reports ERC-165, extended resolver and name reverser support.
func (r *ChainReverseResolver) SupportsInterface(id [4]byte) bool {
	switch profile.Selector(id) {
	case profile.InterfaceERC165, profile.InterfaceExtendedResolver, profile.InterfaceNameReverser:
		return true
	default:
		return false
	}
}

// Resolve answers a profile call for a DNS-encoded name. addr() is answered locally for the
// resolver's own namespace; name() raises an OffchainLookup. Any other profile is unsupported
// whatever the name.
func (r *ChainReverseResolver) Resolve(ctx context.Context, dnsName, call []byte) ([]byte, error) {
	selector := profile.SelectorOf(call)
	switch selector {
	case profile.SelectorAddrCoinType:
		name, err := decodeName(dnsName)
		if err != nil {
			return nil, err
		}
		if name != entity.ReverseNamespace(r.cfg.CoinType) {
			break
		}
		_, coinType, err := profile.DecodeAddrCall(call)
		if err != nil {
			return nil, err
		}
		if coinType.IsUint64() && entity.CoinType(coinType.Uint64()) == r.cfg.CoinType {
			return profile.EncodeAddrResult(r.cfg.L2Registrar.Bytes())
		}
		return profile.EncodeAddrResult([]byte{})

	case profile.SelectorName:
		name, err := decodeName(dnsName)
		if err != nil {
			return nil, err
		}
		addr, err := entity.ParseReverseName(name, r.cfg.CoinType)
		if err != nil {
			r.logger.Debug("Name is not a reverse name of this namespace", zap.String("name", name), zap.Error(err))
			return nil, &profile.UnreachableNameError{Name: dnsName}
		}
		return nil, r.lookup(ctx, lookupName, []common.Address{addr})
	}

	return nil, &profile.UnsupportedResolverProfileError{Selector: selector}
}

// decodeName returns the lowercased dotted form of dnsName.
func decodeName(dnsName []byte) (string, error) {
	name, err := entity.DNSDecode(dnsName)
	if err != nil {
		return "", &profile.UnreachableNameError{Name: dnsName}
	}
	return strings.ToLower(name), nil
}

// ResolveNames returns the primary name of every address, positionally. An empty batch is
// answered without a lookup.
func (r *ChainReverseResolver) ResolveNames(ctx context.Context, addrs []common.Address) ([]string, error) {
	if len(addrs) == 0 {
		return []string{}, nil
	}
	return nil, r.lookup(ctx, lookupNames, addrs)
}

// lookup builds the commit for the names of addrs and returns the OffchainLookup to raise.
func (r *ChainReverseResolver) lookup(ctx context.Context, kind lookupKind, addrs []common.Address) error {
	chainID, err := r.ChainID()
	if err != nil {
		return err
	}
	commitment, err := r.verifier.LatestCommitment(ctx)
	if err != nil {
		return fmt.Errorf("failed to get latest commitment: %w", err)
	}

	commit := entity.ProofCommit{
		ChainID:    chainID,
		Target:     r.cfg.L2Registrar,
		Commitment: commitment,
	}
	seen := make(map[common.Hash]struct{}, len(addrs))
	for _, addr := range addrs {
		slot := entity.NamesSlot(addr, r.cfg.NamesSlot)
		if _, ok := seen[slot]; ok {
			continue
		}
		seen[slot] = struct{}{}
		commit.Requests = append(commit.Requests, entity.SlotRequest{Slot: slot, Dynamic: true})
	}

	encodedCommit, err := commit.Encode()
	if err != nil {
		return fmt.Errorf("%w: encode commit: %v", apperrors.ErrInternal, err)
	}
	callData, err := profile.EncodeProveCommit(encodedCommit)
	if err != nil {
		return fmt.Errorf("%w: encode gateway call: %v", apperrors.ErrInternal, err)
	}
	extraData, err := rlp.EncodeToBytes(&lookupContext{Kind: kind, Commit: encodedCommit, Addrs: addrs})
	if err != nil {
		return fmt.Errorf("%w: encode lookup context: %v", apperrors.ErrInternal, err)
	}

	callback := profile.SelectorResolveCallback
	if kind == lookupNames {
		callback = profile.SelectorResolveNamesCallback
	}

	r.logger.Debug("Raising offchain lookup",
		zap.Int("addresses", len(addrs)),
		zap.Int("uniqueSlots", len(commit.Requests)),
		zap.Uint64("block", commitment.BlockNumber),
	)

	return &ccip.OffchainLookup{
		Sender:           r.cfg.Address,
		URLs:             r.cfg.GatewayURLs,
		CallData:         callData,
		CallbackFunction: callback,
		ExtraData:        extraData,
	}
}

// Callback verifies the gateway response and applies registrar fallback to the proven names.
// The result is encoded for the callback named by selector: string for resolveCallback and
// string[] for resolveNamesCallback.
func (r *ChainReverseResolver) Callback(ctx context.Context, selector [4]byte, response, extraData []byte) ([]byte, error) {
	var lc lookupContext
	if err := rlp.DecodeBytes(extraData, &lc); err != nil {
		return nil, fmt.Errorf("%w: decode lookup context: %v", apperrors.ErrInvalidInput, err)
	}
	switch {
	case lc.Kind == lookupName && profile.Selector(selector) == profile.SelectorResolveCallback && len(lc.Addrs) == 1:
	case lc.Kind == lookupNames && profile.Selector(selector) == profile.SelectorResolveNamesCallback:
	default:
		return nil, fmt.Errorf("%w: callback %s does not match lookup kind %d",
			apperrors.ErrInvalidInput, profile.Selector(selector), lc.Kind)
	}

	commit, err := entity.DecodeProofCommit(lc.Commit)
	if err != nil {
		return nil, err
	}
	if err := r.checkCommit(commit, lc.Addrs); err != nil {
		return nil, err
	}
	bundle, err := entity.DecodeProofBundle(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrVerification, err)
	}
	values, err := r.verifier.Verify(commit, bundle)
	if err != nil {
		return nil, err
	}

	names, err := r.applyFallback(ctx, values, lc.Addrs)
	if err != nil {
		return nil, err
	}

	if lc.Kind == lookupName {
		return profile.EncodeNameResult(names[0])
	}
	return profile.EncodeNamesResult(names)
}

// checkCommit rejects commits this resolver would not have built for addrs: another chain,
// another registrar, or a missing names slot.
func (r *ChainReverseResolver) checkCommit(commit *entity.ProofCommit, addrs []common.Address) error {
	chainID, err := r.ChainID()
	if err != nil {
		return err
	}
	if commit.ChainID != chainID || commit.Target != r.cfg.L2Registrar {
		return fmt.Errorf("%w: commit targets %s on chain %d, expected %s on chain %d",
			domain.ErrVerification, commit.Target.Hex(), commit.ChainID, r.cfg.L2Registrar.Hex(), chainID)
	}
	requested := make(map[common.Hash]bool, len(commit.Requests))
	for _, req := range commit.Requests {
		if req.Dynamic {
			requested[req.Slot] = true
		}
	}
	for _, addr := range addrs {
		if !requested[entity.NamesSlot(addr, r.cfg.NamesSlot)] {
			return fmt.Errorf("%w: commit does not request the name of %s", domain.ErrVerification, addr.Hex())
		}
	}
	return nil
}

// applyFallback resolves every address through the verified registrar first and the default
// registrar second. Repeated addresses are looked up once.
func (r *ChainReverseResolver) applyFallback(
	ctx context.Context,
	values entity.StorageValues,
	addrs []common.Address,
) ([]string, error) {
	chain := RegistrarChain{
		&verifiedRegistrar{values: values, namesSlot: r.cfg.NamesSlot},
		r.defaultRegistrar,
	}

	names := make([]string, len(addrs))
	resolved := make(map[common.Address]string, len(addrs))
	for i, addr := range addrs {
		if name, ok := resolved[addr]; ok {
			names[i] = name
			continue
		}
		name, err := chain.NameForAddr(ctx, addr)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedStorage) {
				return nil, fmt.Errorf("%w: %v", domain.ErrVerification, err)
			}
			return nil, err
		}
		resolved[addr] = name
		names[i] = name
	}
	return names, nil
}
