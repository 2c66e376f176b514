package entity

import (
	"fmt"
	"net/url"
	"strings"
)

// RPCURL is a validated upstream JSON-RPC endpoint.
type RPCURL string

// NewRPCURL validates rawURL and accepts http, https, ws and wss endpoints.
func NewRPCURL(rawURL string) (RPCURL, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("rpc url cannot be empty")
	}

	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid rpc url format '%s': %w", rawURL, err)
	}

	if ProtocolOf(u.Scheme) == ProtocolUnknown {
		return "", fmt.Errorf("rpc url '%s' has unsupported scheme: '%s'", rawURL, u.Scheme)
	}

	return RPCURL(rawURL), nil
}

// Protocol returns the transport protocol of the endpoint.
func (r RPCURL) Protocol() Protocol {
	scheme, _, _ := strings.Cut(string(r), "://")
	return ProtocolOf(scheme)
}

// String returns the string representation of the RPCURL.
func (r RPCURL) String() string {
	return string(r)
}
