// Package seed loads development seed files from disk or over HTTP.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	dto "chain-reverse-resolver/internal/adapter/storage/seed/dto"
	"chain-reverse-resolver/internal/domain/entity"
	"chain-reverse-resolver/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Repository reads seed files.
type Repository struct {
	client *fasthttp.Client
	logger *zap.Logger
}

// NewRepository creates a new seed repository.
func NewRepository(logger *zap.Logger) *Repository {
	return &Repository{
		client: &fasthttp.Client{},
		logger: logger.Named("SeedStorage"),
	}
}

// Load reads the seed at source, either a file path or an http(s) URL.
func (r *Repository) Load(ctx context.Context, source string) (*entity.DevSeed, error) {
	var (
		body []byte
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err = r.fetch(ctx, source)
	} else {
		body, err = os.ReadFile(source)
		if err != nil {
			err = fmt.Errorf("%w: read seed %s: %v", apperrors.ErrNotFound, source, err)
		}
	}
	if err != nil {
		return nil, err
	}
	return r.Parse(body)
}

// Parse decodes a YAML seed document.
func (r *Repository) Parse(body []byte) (*entity.DevSeed, error) {
	var raw dto.SeedRaw
	if err := yaml.Unmarshal(body, &raw); err != nil {
		r.logger.Error("Failed to unmarshal seed into raw DTO", zap.Error(err))
		return nil, fmt.Errorf("%w: failed to parse seed: %v", apperrors.ErrInvalidInput, err)
	}

	seed, err := toDomainSeed(raw, r.logger)
	if err != nil {
		return nil, err
	}
	r.logger.Info("Loaded development seed",
		zap.Uint64("chainId", seed.ChainID),
		zap.Int("l2Names", len(seed.L2Names)),
		zap.Int("defaultNames", len(seed.DefaultNames)),
	)
	return seed, nil
}

func (r *Repository) fetch(ctx context.Context, url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")

	timeout := 15 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if requestTimeout := time.Until(deadline); requestTimeout > 0 && requestTimeout < timeout {
			timeout = requestTimeout
		}
	}

	r.logger.Debug("Fetching seed", zap.String("url", url), zap.Duration("timeout", timeout))
	if err := r.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("%w: failed to fetch seed: %v", apperrors.ErrExternalServiceFailure, err)
	}

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, fmt.Errorf("%w: seed source reported not found (%s)", apperrors.ErrNotFound, url)
	default:
		return nil, fmt.Errorf("%w: seed source returned status %d", apperrors.ErrExternalServiceFailure, resp.StatusCode())
	}

	if bytes.EqualFold(resp.Header.Peek(fasthttp.HeaderContentEncoding), []byte("gzip")) {
		body, err := resp.BodyGunzip()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to decompress seed: %v", apperrors.ErrExternalServiceFailure, err)
		}
		return body, nil
	}
	return append([]byte(nil), resp.Body()...), nil
}
