package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"chain-reverse-resolver/internal/domain"
	"chain-reverse-resolver/internal/domain/entity"
	domainService "chain-reverse-resolver/internal/domain/service"
	"chain-reverse-resolver/internal/pkg/apperrors"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

var _ domainService.RPCChecker = (*Checker)(nil)

const defaultProbeTimeout = 10 * time.Second

// Checker probes upstream endpoints with eth_chainId. An endpoint is healthy when it answers
// with the chain the pool was configured for.
type Checker struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// NewChecker creates a new RPC checker instance.
func NewChecker(logger *zap.Logger) *Checker {
	return NewCheckerWithClient(&fasthttp.Client{ReadTimeout: defaultProbeTimeout}, logger)
}

// NewCheckerWithClient creates a checker that sends HTTP probes through client.
func NewCheckerWithClient(client *fasthttp.Client, logger *zap.Logger) *Checker {
	return &Checker{
		client: client,
		logger: logger.Named("RPCCheckerAdapter"),
	}
}

var chainIDProbe = []byte(`{"jsonrpc":"2.0","method":"eth_chainId","params":[],"id":1}`)

type probeResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CheckRPC dispatches on the endpoint protocol and reports health and round-trip latency.
func (c *Checker) CheckRPC(
	ctx context.Context,
	rpcURL entity.RPCURL,
	expectedChainID uint64,
) (bool, time.Duration, error) {
	start := time.Now()
	raw := rpcURL.String()

	var (
		body []byte
		err  error
	)
	switch rpcURL.Protocol() {
	case entity.ProtocolWS, entity.ProtocolWSS:
		body, err = c.probeWS(ctx, raw)
	case entity.ProtocolHTTP, entity.ProtocolHTTPS:
		body, err = c.probeHTTP(ctx, raw)
	default:
		c.logger.Warn("Skipping check for unsupported protocol", zap.String("url", raw))
		return false, 0, fmt.Errorf("%w: unsupported protocol in URL %s", apperrors.ErrInvalidInput, raw)
	}
	latency := time.Since(start)
	if err != nil {
		c.logger.Debug("RPC probe failed", zap.String("url", raw), zap.Error(err))
		return false, latency, err
	}

	ok, err := c.validateJSONRPCResponse(raw, body, expectedChainID)
	return ok, latency, err
}

// probeTimeout is the client timeout capped by the context deadline.
func (c *Checker) probeTimeout(ctx context.Context) time.Duration {
	timeout := c.client.ReadTimeout
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	return timeout
}

func (c *Checker) probeHTTP(ctx context.Context, rpcURL string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(chainIDProbe)

	timeout := c.probeTimeout(ctx)
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: no time left to probe %s", apperrors.ErrTimeout, rpcURL)
	}
	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("%w: http probe of %s timed out after %v", apperrors.ErrTimeout, rpcURL, timeout)
		}
		return nil, fmt.Errorf("%w: http probe of %s failed: %v", apperrors.ErrExternalServiceFailure, rpcURL, err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("%w: rpc %s returned http status %d",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.StatusCode(),
		)
	}
	return append([]byte(nil), resp.Body()...), nil
}

func (c *Checker) probeWS(ctx context.Context, rpcURL string) ([]byte, error) {
	timeout := c.probeTimeout(ctx)
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: timeout,
	}

	conn, _, err := dialer.DialContext(ctx, rpcURL, nil)
	if err != nil {
		return nil, wsError(ctx, "dial", rpcURL, err)
	}
	defer conn.Close()

	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	deadline := time.Now().Add(timeout)
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	if err := conn.WriteMessage(websocket.TextMessage, chainIDProbe); err != nil {
		return nil, wsError(ctx, "write", rpcURL, err)
	}
	_, message, err := conn.ReadMessage()
	if err != nil {
		return nil, wsError(ctx, "read", rpcURL, err)
	}
	return message, nil
}

// wsError prefers the context cause so that an expired deadline surfaces as a timeout.
func wsError(ctx context.Context, op, rpcURL string, err error) error {
	if errors.Is(context.Cause(ctx), context.DeadlineExceeded) {
		return fmt.Errorf("%w: ws %s on %s timed out: %v", apperrors.ErrTimeout, op, rpcURL, err)
	}
	return fmt.Errorf("%w: ws %s on %s failed: %v", apperrors.ErrExternalServiceFailure, op, rpcURL, err)
}

// validateJSONRPCResponse accepts only a successful eth_chainId answer naming expectedChainID.
func (c *Checker) validateJSONRPCResponse(rpcURL string, body []byte, expectedChainID uint64) (bool, error) {
	var resp probeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return false, fmt.Errorf("%w: rpc %s returned invalid JSON: %v", apperrors.ErrExternalServiceFailure, rpcURL, err)
	}
	if resp.Error != nil {
		return false, fmt.Errorf("%w: rpc %s returned json-rpc error: %d %s",
			apperrors.ErrExternalServiceFailure, rpcURL, resp.Error.Code, resp.Error.Message,
		)
	}
	if resp.Jsonrpc != "2.0" || resp.Result == nil {
		return false, fmt.Errorf("%w: rpc %s returned invalid JSON-RPC structure", apperrors.ErrExternalServiceFailure, rpcURL)
	}

	var chainIDHex string
	if err := json.Unmarshal(resp.Result, &chainIDHex); err != nil {
		return false, fmt.Errorf("%w: rpc %s returned non-string chain id: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, err,
		)
	}
	chainID, err := hexutil.DecodeUint64(chainIDHex)
	if err != nil {
		return false, fmt.Errorf("%w: rpc %s returned malformed chain id %q: %v",
			apperrors.ErrExternalServiceFailure, rpcURL, chainIDHex, err,
		)
	}
	if chainID != expectedChainID {
		c.logger.Warn("RPC serves a different chain",
			zap.String("url", rpcURL),
			zap.Uint64("chainId", chainID),
			zap.Uint64("expectedChainId", expectedChainID),
		)
		return false, fmt.Errorf("%w: rpc %s serves chain %d, expected %d",
			domain.ErrChainMismatch, rpcURL, chainID, expectedChainID,
		)
	}
	return true, nil
}
