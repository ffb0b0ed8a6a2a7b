package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/cashflow/payment-lifecycle/internal/adapter/primary/http"
	"github.com/cashflow/payment-lifecycle/internal/adapter/secondary/metrics"
	"github.com/cashflow/payment-lifecycle/internal/bootstrap"
	"github.com/cashflow/payment-lifecycle/internal/config"
	"github.com/cashflow/payment-lifecycle/internal/core/service"
	"github.com/cashflow/payment-lifecycle/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	ctx, logger := logging.SetupLogger(context.Background(), cfg.Environment, cfg.LogLevel)

	// Initialize secondary adapters: Repository and Messaging (implement output ports)
	store, err := bootstrap.OpenStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open payment store")
	}
	defer store.Close()

	msgClient, err := bootstrap.OpenPublisher(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer msgClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize core service (implements input port)
	paymentService := service.NewPaymentService(store.Repository, msgClient,
		service.WithMetrics(metrics.NewPrometheusMetrics(registry)))

	// Initialize primary adapter: HTTP handler (uses input port)
	paymentHandler := httpadapter.NewPaymentHandler(paymentService)
	e := httpadapter.NewServer(*logger, paymentHandler, store.Health, registry)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	go func() {
		logger.Info().Str("addr", addr).Str("store", cfg.StoreDriver).Msg("starting API server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
}
