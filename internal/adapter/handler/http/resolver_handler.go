package http

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/application/port"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// ResolverHandler exposes the chain reverse resolver over HTTP.
type ResolverHandler struct {
	service port.ReverseService
	logger  *zap.Logger
}

func NewResolverHandler(service port.ReverseService, logger *zap.Logger) *ResolverHandler {
	return &ResolverHandler{
		service: service,
		logger:  logger.Named("ResolverHandler"),
	}
}

// ResolveRequest carries resolve(name, data). Name is a dotted name; DNSName, when set, is the
// DNS wire form and takes precedence.
type ResolveRequest struct {
	Name    string `json:"name,omitempty"`
	DNSName string `json:"dnsName,omitempty"`
	Data    string `json:"data"`
}

// ResolveResponse carries the profile answer.
type ResolveResponse struct {
	Data string `json:"data"`
}

// ResolveNamesRequest carries resolveNames(addresses).
type ResolveNamesRequest struct {
	Addresses []string `json:"addresses"`
}

// ResolveNamesResponse holds one name per requested address.
type ResolveNamesResponse struct {
	Names []string `json:"names"`
}

// NameResponse is the primary name of one address.
type NameResponse struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// CoinType handles GET /coin-type.
func (h *ResolverHandler) CoinType(ctx *fasthttp.RequestCtx) {
	coinType := h.service.CoinType()
	writeJSON(ctx, h.logger, fasthttp.StatusOK, map[string]interface{}{
		"coinType":  uint64(coinType),
		"hex":       coinType.String(),
		"namespace": entity.ReverseNamespace(coinType),
	})
}

// ChainID handles GET /chain-id.
func (h *ResolverHandler) ChainID(ctx *fasthttp.RequestCtx) {
	chainID, err := h.service.ChainID()
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, map[string]uint64{"chainId": chainID})
}

// SupportsInterface handles GET /supports-interface/{selector}.
func (h *ResolverHandler) SupportsInterface(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("selector").(string)
	decoded, err := hexutil.Decode(raw)
	if err != nil || len(decoded) != 4 {
		writeError(ctx, h.logger, fmt.Errorf("%w: selector %q is not 4 bytes of hex", apperrors.ErrInvalidInput, raw))
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, map[string]bool{
		"supported": h.service.SupportsInterface([4]byte(decoded)),
	})
}

// Name handles GET /name/{address}.
func (h *ResolverHandler) Name(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("address").(string)
	if !common.IsHexAddress(raw) {
		writeError(ctx, h.logger, fmt.Errorf("%w: %q is not an address", apperrors.ErrInvalidInput, raw))
		return
	}
	addr := common.HexToAddress(raw)
	name, err := h.service.ResolveName(ctx, addr)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, NameResponse{Address: addr.Hex(), Name: name})
}

// Resolve handles POST /resolve.
func (h *ResolverHandler) Resolve(ctx *fasthttp.RequestCtx) {
	var req ResolveRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidInput, err))
		return
	}

	var (
		dnsName []byte
		err     error
	)
	if req.DNSName != "" {
		dnsName, err = hexutil.Decode(req.DNSName)
	} else {
		dnsName, err = entity.DNSEncode(req.Name)
	}
	if err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: name: %v", apperrors.ErrInvalidInput, err))
		return
	}
	call, err := hexutil.Decode(req.Data)
	if err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: data: %v", apperrors.ErrInvalidInput, err))
		return
	}

	out, err := h.service.Resolve(ctx, dnsName, call)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, ResolveResponse{Data: hexutil.Encode(out)})
}

// ResolveNames handles POST /resolve-names.
func (h *ResolverHandler) ResolveNames(ctx *fasthttp.RequestCtx) {
	var req ResolveNamesRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidInput, err))
		return
	}

	addrs := make([]common.Address, len(req.Addresses))
	for i, raw := range req.Addresses {
		if !common.IsHexAddress(raw) {
			writeError(ctx, h.logger, fmt.Errorf("%w: %q is not an address", apperrors.ErrInvalidInput, raw))
			return
		}
		addrs[i] = common.HexToAddress(raw)
	}

	names, err := h.service.ResolveNames(ctx, addrs)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, ResolveNamesResponse{Names: names})
}
