package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cashflow/payment-lifecycle/internal/adapter/secondary/messaging"
	"github.com/cashflow/payment-lifecycle/internal/bootstrap"
	"github.com/cashflow/payment-lifecycle/internal/config"
	"github.com/cashflow/payment-lifecycle/internal/core/service"
	"github.com/cashflow/payment-lifecycle/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	ctx, logger := logging.SetupLogger(context.Background(), cfg.Environment, cfg.LogLevel)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := bootstrap.RequireSharedStore(cfg); err != nil {
		logger.Fatal().Err(err).Msg("worker needs a shared store")
	}

	// Initialize secondary adapter: Repository (implements output port)
	store, err := bootstrap.OpenStore(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open payment store")
	}
	defer store.Close()

	// Initialize secondary adapter: Messaging (concrete type for worker)
	msgClient, err := messaging.NewRabbitMQClientConcrete(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
	}
	defer msgClient.Close()

	// The worker publishes the lifecycle events of the payments it settles
	paymentService := service.NewPaymentService(store.Repository, msgClient)
	paymentProcessor := service.NewPaymentProcessor(paymentService)

	// Start consuming messages
	if err := msgClient.ConsumePaymentEvents(ctx, paymentProcessor.HandleEvent); err != nil {
		logger.Fatal().Err(err).Msg("failed to start consuming messages")
	}

	logger.Info().Msg("payment worker started, press CTRL+C to exit")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down worker")
}
