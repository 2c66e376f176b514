package http

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	handler "chain-reverse-resolver/internal/adapter/handler/http"
)

// RegisterGatewayRoutes sets up the EIP-3668 gateway routes and the health check.
func RegisterGatewayRoutes(r *router.Router, h *handler.GatewayHandler, logger *zap.Logger) {
	logger.Info("Setting up gateway routes...")

	r.POST("/", h.Post)
	r.POST("/lookup", h.Post)
	r.GET("/lookup/{sender}/{data}", h.Get)
	r.PUT("/admin/cache", h.SetCache)

	registerHealth(r, logger)
	logger.Info("All routes registered.")
}

// RegisterResolverRoutes sets up the resolver routes and the health check.
func RegisterResolverRoutes(r *router.Router, h *handler.ResolverHandler, logger *zap.Logger) {
	logger.Info("Setting up resolver routes...")

	r.GET("/coin-type", h.CoinType)
	r.GET("/chain-id", h.ChainID)
	r.GET("/supports-interface/{selector}", h.SupportsInterface)
	r.GET("/name/{address}", h.Name)
	r.POST("/resolve", h.Resolve)
	r.POST("/resolve-names", h.ResolveNames)

	registerHealth(r, logger)
	logger.Info("All routes registered.")
}

// LoggingMiddleware logs every request at debug level.
func LoggingMiddleware(logger *zap.Logger, next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		next(ctx)
		logger.Debug("Request served",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("status", ctx.Response.StatusCode()),
		)
	}
}

func registerHealth(r *router.Router, logger *zap.Logger) {
	logger.Info("Setting up health check route...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})
}
