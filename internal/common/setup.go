package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"statement-ledger-go/internal/database"
	"statement-ledger-go/internal/events"
	"statement-ledger-go/internal/formance"
	"statement-ledger-go/internal/lock"
	"statement-ledger-go/internal/memory"
	"statement-ledger-go/internal/models"
	"statement-ledger-go/internal/postgres"
	"statement-ledger-go/internal/statement"
	"statement-ledger-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Try to load .env file - if it doesn't exist, that's okay
	// Environment variables can be set via other means (shell export, docker, etc.)
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store      store.LedgerStore
	Statements *statement.Service
	publisher  events.Publisher
	redis      *redis.Client
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices opens the configured ledger backend and builds the
// statement service with its per-user lock and event publisher.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	ledgerStore, err := InitializeStoreOnly(ctx, cfg)
	if err != nil {
		return nil, err
	}

	services := &Services{Store: ledgerStore, publisher: events.NopPublisher{}}
	opts := []statement.Option{}

	switch cfg.Lock.Backend {
	case "", "local":
		zap.L().Info("Using in-process per-user lock")
	case "redis":
		client, err := lock.NewRedisClient(ctx, cfg.Lock)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.redis = client

		locker, err := lock.NewRedisLocker(client, cfg.Lock)
		if err != nil {
			services.Close()
			return nil, err
		}
		opts = append(opts, statement.WithLocker(locker))
		zap.L().Info("Using Redis per-user lock", zap.String("addr", cfg.Lock.RedisAddr))
	default:
		services.Close()
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}

	if len(cfg.Events.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.Events)
		if err != nil {
			services.Close()
			return nil, err
		}
		services.publisher = publisher
		opts = append(opts, statement.WithPublisher(publisher))
	} else {
		zap.L().Info("Statement events disabled (KAFKA_BROKERS not set)")
	}

	services.Statements = statement.NewService(ledgerStore, ledgerStore, opts...)
	return services, nil
}

// InitializeStoreOnly opens just the ledger backend.
// Useful for user administration where no statements are written.
func InitializeStoreOnly(ctx context.Context, cfg *models.Config) (store.LedgerStore, error) {
	backend := strings.ToLower(cfg.Ledger.Backend)
	zap.L().Info("Initializing ledger backend", zap.String("backend", backend))

	var (
		ledgerStore store.LedgerStore
		err         error
	)
	switch backend {
	case "", "sqlite":
		var svc *database.Service
		svc, err = database.NewService(ctx, cfg.Database)
		ledgerStore = svc
	case "postgres":
		var svc *postgres.Service
		svc, err = postgres.NewService(ctx, cfg.Postgres)
		ledgerStore = svc
	case "formance":
		var svc *formance.Service
		svc, err = formance.NewService(ctx, cfg.Formance)
		ledgerStore = svc
	case "memory":
		ledgerStore = memory.NewService()
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
	if err != nil {
		return nil, err
	}
	return ledgerStore, nil
}

func (cs *Services) Close() {
	if cs.publisher != nil {
		if err := cs.publisher.Close(); err != nil {
			zap.L().Warn("Failed to close event publisher", zap.Error(err))
		}
	}
	if cs.redis != nil {
		if err := cs.redis.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
