package backend

import (
	"context"
	"time"

	"defter/internal/amqp"
	"defter/internal/core"
	"defter/internal/services"
	"defter/internal/store"
)

// CleanupFunc releases the resources of a backend.
type CleanupFunc func() error

// BackendResult is a ready-to-use ledger with the handles around it.
type BackendResult struct {
	Store  store.Store
	Ledger *services.LedgerService
	// AMQP is nil when no broker is configured or it was unreachable.
	AMQP *amqp.Client
	// Ping reports storage health.
	Ping    func(ctx context.Context) error
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	SQLiteDBPath string
	BoltDBPath   string

	// AMQP is optional for every backend.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// CacheSize 0 disables the summary cache. Processes that do not see
	// every write, such as the export worker, must run without it.
	CacheSize int
	CacheTTL  time.Duration

	Locale core.Locale
}

type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
	BoltBackend   BackendType = "bolt"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend, BoltBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether other processes can open the same store while the
// API server holds it. Memory stores live in one process and bolt takes an
// exclusive file lock; only SQLite can be shared.
func (bt BackendType) Shared() bool {
	return bt == SQLiteBackend
}
