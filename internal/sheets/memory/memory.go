package memory

import (
	"context"
	"sort"
	"sync"

	"defter/internal/sheets"
)

// Exporter keeps exported balance rows in memory. It backs the worker when
// no spreadsheet is configured and doubles as a test fake.
type Exporter struct {
	mu   sync.Mutex
	rows map[int64]sheets.BalanceRow
}

var _ sheets.BalanceExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{rows: make(map[int64]sheets.BalanceRow)}
}

func (e *Exporter) UpsertBalance(_ context.Context, row sheets.BalanceRow) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rows[row.EntityID] = row
	return nil
}

func (e *Exporter) RemoveBalance(_ context.Context, entityID int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.rows, entityID)
	return nil
}

// Row returns the exported row for entityID.
func (e *Exporter) Row(entityID int64) (sheets.BalanceRow, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	row, ok := e.rows[entityID]
	return row, ok
}

// Rows returns every exported row ordered by entity id.
func (e *Exporter) Rows() []sheets.BalanceRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]sheets.BalanceRow, 0, len(e.rows))
	for _, row := range e.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}
