// Package sheets declares the balance export port. Adapters live in the
// google and memory subpackages.
package sheets

import (
	"context"
	"time"

	"defter/internal/core"
)

// BalanceRow is one entity's line in the exported balances sheet.
type BalanceRow struct {
	EntityID  int64
	Name      string
	Credit    core.Money
	Debit     core.Money
	Balance   core.Money
	Status    core.Category
	UpdatedAt time.Time
}

// Header is the first row of the balances sheet.
var Header = []string{"entity_id", "name", "credit", "debit", "balance", "status", "updated_at"}

// Ports for outbound adapters.
type (
	// BalanceWriter inserts or replaces the row of row.EntityID.
	BalanceWriter interface {
		UpsertBalance(ctx context.Context, row BalanceRow) error
	}

	// BalanceRemover drops an entity's row. Removing a missing row is not an error.
	BalanceRemover interface {
		RemoveBalance(ctx context.Context, entityID int64) error
	}

	BalanceExporter interface {
		BalanceWriter
		BalanceRemover
	}
)
