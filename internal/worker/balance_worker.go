package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"defter/internal/amqp"
	applog "defter/internal/log"
	"defter/internal/services"
	"defter/internal/sheets"
	"defter/internal/store"
)

// SummaryReader is the part of the ledger service the worker needs.
type SummaryReader interface {
	Summary(ctx context.Context, entityID int64) (services.EntitySummary, error)
	Summaries(ctx context.Context) ([]services.EntitySummary, error)
}

// BalanceWorker keeps the exported balances sheet in line with the ledger.
// Ledger events drive single-row updates; a periodic full export repairs
// anything a lost event left behind.
type BalanceWorker struct {
	ledger   SummaryReader
	exporter sheets.BalanceExporter
	logger   *applog.Logger
	now      func() time.Time
}

func NewBalanceWorker(ledger SummaryReader, exporter sheets.BalanceExporter) *BalanceWorker {
	return &BalanceWorker{
		ledger:   ledger,
		exporter: exporter,
		logger:   applog.Default(applog.ComponentWorker),
		now:      time.Now,
	}
}

// HandleLedgerEvent exports or removes the row of the event's entity. A
// returned error makes the consumer requeue the event.
func (w *BalanceWorker) HandleLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		"event_id", ev.ID,
		"kind", ev.Kind,
		applog.FieldEntityID, ev.EntityID,
		"event_time", ev.Timestamp)

	if ev.Kind == amqp.KindEntityDeleted {
		return w.remove(ctx, ev.EntityID)
	}

	summary, err := w.ledger.Summary(ctx, ev.EntityID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleted after the event was published.
		return w.remove(ctx, ev.EntityID)
	}
	if err != nil {
		return fmt.Errorf("load summary: %w", err)
	}
	return w.export(ctx, summary)
}

// ExportAll rewrites the row of every entity. Failures of single rows are
// logged and counted; the first one is returned after all rows were tried.
func (w *BalanceWorker) ExportAll(ctx context.Context) error {
	summaries, err := w.ledger.Summaries(ctx)
	if err != nil {
		return fmt.Errorf("load summaries: %w", err)
	}

	var firstErr error
	failed := 0
	for _, s := range summaries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.export(ctx, s); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export balance",
				applog.FieldEntityID, s.Entity.ID, applog.FieldError, err)
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	w.logger.InfoContext(ctx, "Balance export completed",
		applog.FieldOperation, applog.OpExport,
		"total", len(summaries),
		"failed", failed)
	return firstErr
}

// RunPeriodicExport exports everything once, then again on every tick,
// until ctx is cancelled.
func (w *BalanceWorker) RunPeriodicExport(ctx context.Context, interval time.Duration) {
	if err := w.ExportAll(ctx); err != nil {
		w.logger.WarnContext(ctx, "Startup balance export incomplete", applog.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ExportAll(ctx); err != nil && ctx.Err() == nil {
				w.logger.WarnContext(ctx, "Periodic balance export incomplete", applog.FieldError, err)
			}
		}
	}
}

func (w *BalanceWorker) export(ctx context.Context, s services.EntitySummary) error {
	row := sheets.BalanceRow{
		EntityID:  s.Entity.ID,
		Name:      s.Entity.Name,
		Credit:    s.Totals.Credit,
		Debit:     s.Totals.Debit,
		Balance:   s.Totals.Balance,
		Status:    s.Status.Category,
		UpdatedAt: w.now(),
	}
	if err := w.exporter.UpsertBalance(ctx, row); err != nil {
		return fmt.Errorf("upsert balance of entity %d: %w", s.Entity.ID, err)
	}
	w.logger.DebugContext(ctx, "Balance exported",
		applog.NewFields().
			WithEntity(s.Entity.ID, s.Entity.Name).
			WithBalance(s.Totals.Balance.Cents, string(s.Status.Category)).ToSlice()...)
	return nil
}

func (w *BalanceWorker) remove(ctx context.Context, entityID int64) error {
	if err := w.exporter.RemoveBalance(ctx, entityID); err != nil {
		return fmt.Errorf("remove balance of entity %d: %w", entityID, err)
	}
	w.logger.InfoContext(ctx, "Balance row removed", applog.FieldEntityID, entityID)
	return nil
}
