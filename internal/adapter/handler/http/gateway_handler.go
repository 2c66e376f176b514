package http

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/adapter/ccip"
	"chain-reverse-resolver/internal/application/port"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// GatewayHandler serves EIP-3668 lookups for the proving gateway.
type GatewayHandler struct {
	service port.GatewayService
	timeout time.Duration
	logger  *zap.Logger
}

// NewGatewayHandler creates a gateway handler. timeout bounds every lookup.
func NewGatewayHandler(service port.GatewayService, timeout time.Duration, logger *zap.Logger) *GatewayHandler {
	return &GatewayHandler{
		service: service,
		timeout: timeout,
		logger:  logger.Named("GatewayHandler"),
	}
}

// CacheRequest switches the proof cache.
type CacheRequest struct {
	Enabled bool `json:"enabled"`
}

// Post handles the POST form of a lookup: {"sender": "0x..", "data": "0x.."}.
func (h *GatewayHandler) Post(ctx *fasthttp.RequestCtx) {
	var req ccip.Request
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidInput, err))
		return
	}
	h.serve(ctx, req.Sender, req.Data)
}

// Get handles the GET form of a lookup: /{sender}/{data}.json.
func (h *GatewayHandler) Get(ctx *fasthttp.RequestCtx) {
	sender, _ := ctx.UserValue("sender").(string)
	data, _ := ctx.UserValue("data").(string)
	h.serve(ctx, sender, strings.TrimSuffix(data, ".json"))
}

// SetCache enables or disables the proof cache.
func (h *GatewayHandler) SetCache(ctx *fasthttp.RequestCtx) {
	var req CacheRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: malformed request body: %v", apperrors.ErrInvalidInput, err))
		return
	}
	h.service.SetCacheEnabled(req.Enabled)
	h.logger.Info("Proof cache switched", zap.Bool("enabled", req.Enabled))
	writeJSON(ctx, h.logger, fasthttp.StatusOK, req)
}

func (h *GatewayHandler) serve(ctx *fasthttp.RequestCtx, senderHex, dataHex string) {
	if !common.IsHexAddress(senderHex) {
		writeError(ctx, h.logger, fmt.Errorf("%w: sender %q is not an address", apperrors.ErrInvalidInput, senderHex))
		return
	}
	data, err := hexutil.Decode(dataHex)
	if err != nil {
		writeError(ctx, h.logger, fmt.Errorf("%w: data: %v", apperrors.ErrInvalidInput, err))
		return
	}

	reqCtx := context.Context(ctx)
	if h.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	out, err := h.service.Handle(reqCtx, common.HexToAddress(senderHex), data)
	if err != nil {
		writeError(ctx, h.logger, err)
		return
	}
	writeJSON(ctx, h.logger, fasthttp.StatusOK, ccip.Response{Data: hexutil.Encode(out)})
}
