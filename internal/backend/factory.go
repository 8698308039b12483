package backend

import (
	"context"
	"errors"
	"fmt"

	"defter/internal/amqp"
	"defter/internal/cache"
	applog "defter/internal/log"
	"defter/internal/services"
	"defter/internal/storage"
	boltstore "defter/internal/store/bolt"
	"defter/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Default(applog.ComponentBackend)
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend opens the store, connects the optional AMQP publisher and
// wires the ledger service on top.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var cleanups []func() error
	result := &BackendResult{}

	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		result.Store = repo
		result.Ping = repo.Ping
		cleanups = append(cleanups, repo.Close)
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case BoltBackend:
		st, err := boltstore.Open(config.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		result.Store = st
		result.Ping = st.Ping
		cleanups = append(cleanups, st.Close)
		f.logger.InfoContext(ctx, "Initialized bolt backend", "db_path", config.BoltDBPath)
	case MemoryBackend:
		result.Store = memory.New()
		result.Ping = func(context.Context) error { return nil }
		f.logger.InfoContext(ctx, "Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	var publisher services.EventPublisher
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without ledger events",
				applog.FieldError, err)
		} else {
			result.AMQP = client
			publisher = client
			cleanups = append(cleanups, client.Close)
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	var summaries cache.Cache[services.EntitySummary]
	if config.CacheSize > 0 {
		lru := cache.NewLRUCache[services.EntitySummary](config.CacheSize, config.CacheTTL)
		manager := cache.NewManager()
		manager.Register(lru)
		manager.StartCleanup(config.CacheTTL)
		summaries = lru
		cleanups = append(cleanups, func() error { manager.Stop(); return nil })
	}

	result.Ledger = services.NewLedgerService(result.Store, publisher, summaries, config.Locale)
	result.Cleanup = func() error {
		var errs []error
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Ledger ready",
		"backend", config.Type,
		"amqp_enabled", result.AMQP != nil,
		"cache_enabled", summaries != nil,
		"locale", config.Locale)

	return result, nil
}
