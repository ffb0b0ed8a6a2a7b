package bootstrap

import (
	"fmt"

	"github.com/cashflow/payment-lifecycle/internal/adapter/secondary/database"
	"github.com/cashflow/payment-lifecycle/internal/adapter/secondary/memory"
	"github.com/cashflow/payment-lifecycle/internal/adapter/secondary/messaging"
	"github.com/cashflow/payment-lifecycle/internal/config"
	"github.com/cashflow/payment-lifecycle/internal/constant/model/db"
	"github.com/cashflow/payment-lifecycle/internal/port/output"
)

// Store is an opened payment repository together with its lifecycle hooks
type Store struct {
	Repository output.PaymentRepository
	Health     func() error
	Close      func() error
}

// RequireSharedStore fails when cfg selects a store that only lives inside one process.
// Binaries that act on records created by other processes call it at start-up.
func RequireSharedStore(cfg *config.Config) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return fmt.Errorf("STORE_DRIVER=%s is not shared between processes; use %s", cfg.StoreDriver, config.StoreDriverPostgres)
	}
	return nil
}

// OpenStore connects the repository selected by cfg.StoreDriver
func OpenStore(cfg *config.Config) (*Store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return &Store{
			Repository: memory.NewPaymentRepository(),
			Health:     func() error { return nil },
			Close:      func() error { return nil },
		}, nil
	}

	dbConn, err := db.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &Store{
		Repository: database.NewGormPaymentRepository(dbConn.DB),
		Health: func() error {
			_, err := dbConn.Health()
			return err
		},
		Close: dbConn.Close,
	}, nil
}

// OpenPublisher connects the event publisher, or a no-op one when messaging is disabled
func OpenPublisher(cfg *config.Config) (output.PaymentMessaging, error) {
	if !cfg.MessagingEnabled {
		return output.NopMessaging{}, nil
	}
	return messaging.NewRabbitMQClient(cfg.RabbitMQURL)
}
