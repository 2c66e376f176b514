package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	delivery "chain-reverse-resolver/internal/adapter/delivery/http"
	handler "chain-reverse-resolver/internal/adapter/handler/http"
	"chain-reverse-resolver/internal/bootstrap"
	"chain-reverse-resolver/internal/config"
	"chain-reverse-resolver/internal/logger"
)

func main() {
	// --- Configuration ---
	cfgPath := "configs"
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load configuration from %s: %v", cfgPath, err)
	}

	// --- Logger ---
	appLogger, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to setup logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Logger initialized", zap.Any("config", cfg.Logger))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Dependencies ---
	gw, err := bootstrap.NewGateway(rootCtx, *cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to wire gateway", zap.Error(err))
	}
	defer gw.Close()

	gatewayHandler := handler.NewGatewayHandler(gw.Service, cfg.Gateway.RequestTimeout, appLogger)

	// --- HTTP Router & Server ---
	r := router.New()
	delivery.RegisterGatewayRoutes(r, gatewayHandler, appLogger)

	server := &fasthttp.Server{
		Handler: delivery.LoggingMiddleware(appLogger, r.Handler),
		Name:    cfg.App.Name,
	}

	serverAddr := ":" + cfg.Server.Port
	go func() {
		appLogger.Info("Starting gateway HTTP server", zap.String("address", serverAddr))
		if err := server.ListenAndServe(serverAddr); err != nil {
			appLogger.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-rootCtx.Done()
	appLogger.Info("Shutting down gateway")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
