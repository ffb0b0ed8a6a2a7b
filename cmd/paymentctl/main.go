package main

import (
	"context"
	"os"

	"github.com/cashflow/payment-lifecycle/internal/bootstrap"
	"github.com/cashflow/payment-lifecycle/internal/cli"
	"github.com/cashflow/payment-lifecycle/internal/config"
	"github.com/cashflow/payment-lifecycle/internal/core/service"
	"github.com/cashflow/payment-lifecycle/internal/logging"
	"github.com/cashflow/payment-lifecycle/internal/port/input"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	ctx, logger := logging.SetupLogger(context.Background(), cfg.Environment, cfg.LogLevel)

	if err := bootstrap.RequireSharedStore(cfg); err != nil {
		logger.Fatal().Err(err).Msg("paymentctl needs a shared store")
	}

	open := func() (input.PaymentService, func() error, error) {
		store, err := bootstrap.OpenStore(cfg)
		if err != nil {
			return nil, nil, err
		}
		msgClient, err := bootstrap.OpenPublisher(cfg)
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		release := func() error {
			msgClient.Close()
			return store.Close()
		}
		return service.NewPaymentService(store.Repository, msgClient), release, nil
	}

	if err := cli.NewRootCommand(open).ExecuteContext(ctx); err != nil {
		logger.Error().Err(err).Msg("paymentctl failed")
		os.Exit(1)
	}
}
