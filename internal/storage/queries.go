package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Entity is a row of the entities table.
type Entity struct {
	ID          int64
	Name        string
	PhoneNumber string
	Note        string
}

// Transaction is a row of the transactions table.
type Transaction struct {
	ID          int64
	EntityID    int64
	Type        string
	AmountCents int64
	Date        string
	DateLabel   string
	Note        string
}

const createEntity = `
INSERT INTO entities (name, phone_number, note)
VALUES (?, ?, ?)
RETURNING id, name, phone_number, note`

type CreateEntityParams struct {
	Name        string
	PhoneNumber string
	Note        string
}

func (q *Queries) CreateEntity(ctx context.Context, arg CreateEntityParams) (Entity, error) {
	row := q.db.QueryRowContext(ctx, createEntity, arg.Name, arg.PhoneNumber, arg.Note)
	var i Entity
	err := row.Scan(&i.ID, &i.Name, &i.PhoneNumber, &i.Note)
	return i, err
}

const getEntity = `
SELECT id, name, phone_number, note
FROM entities
WHERE id = ?`

func (q *Queries) GetEntity(ctx context.Context, id int64) (Entity, error) {
	row := q.db.QueryRowContext(ctx, getEntity, id)
	var i Entity
	err := row.Scan(&i.ID, &i.Name, &i.PhoneNumber, &i.Note)
	return i, err
}

const listEntities = `
SELECT id, name, phone_number, note
FROM entities
ORDER BY name, id`

func (q *Queries) ListEntities(ctx context.Context) ([]Entity, error) {
	rows, err := q.db.QueryContext(ctx, listEntities)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entity
	for rows.Next() {
		var i Entity
		if err := rows.Scan(&i.ID, &i.Name, &i.PhoneNumber, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteEntity = `DELETE FROM entities WHERE id = ?`

func (q *Queries) DeleteEntity(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEntity, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteEntityTransactions = `DELETE FROM transactions WHERE entity_id = ?`

func (q *Queries) DeleteEntityTransactions(ctx context.Context, entityID int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEntityTransactions, entityID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createTransaction = `
INSERT INTO transactions (entity_id, type, amount_cents, date, date_label, note)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`

type CreateTransactionParams struct {
	EntityID    int64
	Type        string
	AmountCents int64
	Date        string
	DateLabel   string
	Note        string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.EntityID, arg.Type, arg.AmountCents, arg.Date, arg.DateLabel, arg.Note)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listTransactionsByEntity = `
SELECT id, entity_id, type, amount_cents, date, date_label, note
FROM transactions
WHERE entity_id = ?
ORDER BY date DESC, id DESC`

func (q *Queries) ListTransactionsByEntity(ctx context.Context, entityID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByEntity, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(&i.ID, &i.EntityID, &i.Type, &i.AmountCents, &i.Date, &i.DateLabel, &i.Note); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
