package ccip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"chain-reverse-resolver/internal/domain"
	domainCCIP "chain-reverse-resolver/internal/domain/ccip"
	"chain-reverse-resolver/internal/pkg/apperrors"
)

// Compile-time check
var _ domainCCIP.Fetcher = (*HTTPFetcher)(nil)

// Request is the EIP-3668 POST body.
type Request struct {
	Sender string `json:"sender"`
	Data   string `json:"data"`
}

// Response is the EIP-3668 success body.
type Response struct {
	Data string `json:"data"`
}

// ErrorResponse is the body of a failed gateway request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// GatewayStatusError is a non-2xx answer from a gateway url.
type GatewayStatusError struct {
	URL        string
	StatusCode int
	Message    string
}

func (e *GatewayStatusError) Error() string {
	return fmt.Sprintf("gateway %s returned status %d: %s", e.URL, e.StatusCode, e.Message)
}

// HTTPFetcher sends offchain lookups to gateways over HTTP. URLs are tried in order: a 4xx
// answer ends the lookup, anything else moves on to the next url.
type HTTPFetcher struct {
	client  *fasthttp.Client
	timeout time.Duration
	logger  *zap.Logger
}

// NewHTTPFetcher creates a fetcher. A nil client gets a default one.
func NewHTTPFetcher(client *fasthttp.Client, timeout time.Duration, logger *zap.Logger) *HTTPFetcher {
	if client == nil {
		client = &fasthttp.Client{}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		client:  client,
		timeout: timeout,
		logger:  logger.Named("CCIPFetcher"),
	}
}

// Fetch returns the response data of the first gateway that answers.
func (f *HTTPFetcher) Fetch(ctx context.Context, sender common.Address, urls []string, callData []byte) ([]byte, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("%w: lookup has no urls", domain.ErrGatewayFailure)
	}
	senderHex := strings.ToLower(sender.Hex())
	dataHex := hexutil.Encode(callData)

	var lastErr error
	for _, url := range urls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := f.fetchOne(ctx, url, senderHex, dataHex)
		if err == nil {
			return data, nil
		}
		lastErr = err

		var statusErr *GatewayStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			f.logger.Debug("Gateway rejected lookup", zap.String("url", url), zap.Error(err))
			return nil, fmt.Errorf("%w: %w", domain.ErrGatewayFailure, err)
		}
		f.logger.Debug("Gateway failed, trying next url", zap.String("url", url), zap.Error(err))
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrGatewayFailure, lastErr)
}

func (f *HTTPFetcher) fetchOne(ctx context.Context, url, sender, data string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	target := strings.ReplaceAll(url, "{sender}", sender)
	if strings.Contains(url, "{data}") {
		req.SetRequestURI(strings.ReplaceAll(target, "{data}", data))
		req.Header.SetMethod(fasthttp.MethodGet)
	} else {
		body, err := json.Marshal(Request{Sender: sender, Data: data})
		if err != nil {
			return nil, fmt.Errorf("%w: encode gateway request: %v", apperrors.ErrInternal, err)
		}
		req.SetRequestURI(target)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	timeout := f.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: no time left for %s", apperrors.ErrTimeout, url)
	}

	if err := f.client.DoTimeout(req, resp, timeout); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("%w: gateway %s timed out after %v", apperrors.ErrTimeout, url, timeout)
		}
		return nil, fmt.Errorf("%w: gateway %s: %v", apperrors.ErrExternalServiceFailure, url, err)
	}

	if status := resp.StatusCode(); status < 200 || status > 299 {
		var errBody ErrorResponse
		message := string(resp.Body())
		if json.Unmarshal(resp.Body(), &errBody) == nil && errBody.Message != "" {
			message = errBody.Message
		}
		return nil, &GatewayStatusError{URL: url, StatusCode: status, Message: message}
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("%w: gateway %s returned invalid JSON: %v", apperrors.ErrExternalServiceFailure, url, err)
	}
	decoded, err := hexutil.Decode(out.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: gateway %s returned invalid data: %v", apperrors.ErrExternalServiceFailure, url, err)
	}
	return decoded, nil
}
