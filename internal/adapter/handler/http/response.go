package http

import (
	"encoding/json"
	"errors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/profile"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Revert  string `json:"revert,omitempty"`
}

// writeJSON encodes body with the given status.
func writeJSON(ctx *fasthttp.RequestCtx, logger *zap.Logger, status int, body interface{}) {
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	if err := json.NewEncoder(ctx).Encode(body); err != nil {
		logger.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError maps err to a status code. Reverts and invalid input are the caller's fault;
// everything else is a server error.
func writeError(ctx *fasthttp.RequestCtx, logger *zap.Logger, err error) {
	resp := ErrorResponse{Message: err.Error()}
	status := fasthttp.StatusInternalServerError

	var reverter profile.Reverter
	switch {
	case errors.As(err, &reverter):
		status = fasthttp.StatusBadRequest
		if data, revertErr := reverter.Revert(); revertErr == nil {
			resp.Revert = hexutil.Encode(data)
		}
	case errors.Is(err, apperrors.ErrInvalidInput),
		errors.Is(err, domain.ErrMalformedName),
		errors.Is(err, domain.ErrNotEVMCoinType),
		errors.Is(err, domain.ErrChainIDOutOfRange):
		status = fasthttp.StatusBadRequest
	case errors.Is(err, domain.ErrGatewayFailure):
		status = fasthttp.StatusBadGateway
	}

	if status >= fasthttp.StatusInternalServerError {
		logger.Error("Request failed", zap.ByteString("uri", ctx.RequestURI()), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.ByteString("uri", ctx.RequestURI()), zap.Error(err))
	}
	writeJSON(ctx, logger, status, resp)
}
