package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"defter/internal/core"
	"defter/internal/store"

	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateEntity(ctx context.Context, e core.Entity) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	row, err := r.queries.CreateEntity(ctx, CreateEntityParams{
		Name:        strings.TrimSpace(e.Name),
		PhoneNumber: e.PhoneNumber,
		Note:        e.Note,
	})
	if err != nil {
		return 0, fmt.Errorf("create entity: %w", err)
	}

	slog.InfoContext(ctx, "Entity saved to SQLite", "id", row.ID, "name", row.Name)
	return row.ID, nil
}

func (r *SQLiteRepository) GetEntity(ctx context.Context, id int64) (core.Entity, error) {
	row, err := r.queries.GetEntity(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entity{}, fmt.Errorf("entity %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Entity{}, fmt.Errorf("get entity by id: %w", err)
	}
	return toCoreEntity(row), nil
}

func (r *SQLiteRepository) ListEntities(ctx context.Context) ([]core.Entity, error) {
	rows, err := r.queries.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	entities := make([]core.Entity, len(rows))
	for i, row := range rows {
		entities[i] = toCoreEntity(row)
	}
	return entities, nil
}

// DeleteEntity removes the entity and every transaction that belongs to it
// in one database transaction.
func (r *SQLiteRepository) DeleteEntity(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	removedTxs, err := q.DeleteEntityTransactions(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entity transactions: %w", err)
	}
	n, err := q.DeleteEntity(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("entity %d: %w", id, store.ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}

	slog.InfoContext(ctx, "Entity deleted from SQLite", "id", id, "transactions_removed", removedTxs)
	return nil
}

func (r *SQLiteRepository) AddTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if _, err := r.queries.GetEntity(ctx, t.EntityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("entity %d: %w", t.EntityID, store.ErrNotFound)
		}
		return 0, fmt.Errorf("check entity: %w", err)
	}

	var date string
	if !t.Date.IsEmpty() {
		date = t.Date.Format(dateLayout)
	}
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		EntityID:    t.EntityID,
		Type:        t.Type,
		AmountCents: t.Amount.Cents,
		Date:        date,
		DateLabel:   t.DateLabel,
		Note:        t.Note,
	})
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"entity_id", t.EntityID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)

	return id, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, entityID int64) ([]core.Transaction, error) {
	if _, err := r.queries.GetEntity(ctx, entityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("entity %d: %w", entityID, store.ErrNotFound)
		}
		return nil, fmt.Errorf("check entity: %w", err)
	}

	rows, err := r.queries.ListTransactionsByEntity(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	txs := make([]core.Transaction, len(rows))
	for i, row := range rows {
		txs[i] = core.Transaction{
			ID:        row.ID,
			EntityID:  row.EntityID,
			Type:      row.Type,
			Amount:    core.Money{Cents: row.AmountCents},
			DateLabel: row.DateLabel,
			Note:      row.Note,
		}
		if row.Date != "" {
			d, err := time.Parse(dateLayout, row.Date)
			if err != nil {
				slog.WarnContext(ctx, "Unparseable transaction date, keeping it as label",
					"id", row.ID, "date", row.Date)
				if txs[i].DateLabel == "" {
					txs[i].DateLabel = row.Date
				}
				continue
			}
			txs[i].Date = core.Date{Time: d}
		}
	}

	return txs, nil
}

func toCoreEntity(row Entity) core.Entity {
	return core.Entity{
		ID:          row.ID,
		Name:        row.Name,
		PhoneNumber: row.PhoneNumber,
		Note:        row.Note,
	}
}
