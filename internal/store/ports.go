// Package store declares what the ledger needs from persistence. The engine
// in core never sees these; services receive them as injected dependencies.
package store

import (
	"context"
	"errors"

	"defter/internal/core"
)

var ErrNotFound = errors.New("not found")

// Ports for persistence adapters.
type (
	EntityReader interface {
		GetEntity(ctx context.Context, id int64) (core.Entity, error)
		ListEntities(ctx context.Context) ([]core.Entity, error)
	}

	EntityWriter interface {
		CreateEntity(ctx context.Context, e core.Entity) (int64, error)
	}

	// EntityDeleter removes an entity together with all its transactions.
	EntityDeleter interface {
		DeleteEntity(ctx context.Context, id int64) error
	}

	// TransactionLister returns every transaction of an entity, newest first.
	TransactionLister interface {
		ListTransactions(ctx context.Context, entityID int64) ([]core.Transaction, error)
	}

	TransactionWriter interface {
		AddTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	}

	Store interface {
		EntityReader
		EntityWriter
		EntityDeleter
		TransactionLister
		TransactionWriter
	}
)
