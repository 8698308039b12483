package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"defter/internal/amqp"
	"defter/internal/cache"
	"defter/internal/contact"
	"defter/internal/core"
	applog "defter/internal/log"
	"defter/internal/store"
)

// ErrValidation marks errors caused by caller input rather than storage.
var ErrValidation = errors.New("validation failed")

// summaryConcurrency bounds the per-entity goroutines in Summaries.
const summaryConcurrency = 8

const dateLayout = "2006-01-02"

// EventPublisher is the outbound side of the ledger event pipeline.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev amqp.LedgerEvent) error
}

// EntitySummary is everything the detail view shows for one entity.
type EntitySummary struct {
	Entity     core.Entity
	Totals     core.Totals
	Status     core.Status
	Settlement *core.Settlement // nil unless the balance is negative
	Reminder   string
	Links      *contact.Links // nil when the phone number is unusable
}

// SettlementToken is the route value for the settlement shortcut, or ""
// when there is nothing to settle.
func (s EntitySummary) SettlementToken() string {
	if s.Settlement == nil {
		return ""
	}
	return s.Settlement.Token()
}

// RecordInput is a transaction as entered by a user.
type RecordInput struct {
	EntityID int64
	Type     string
	Amount   string // decimal, "12.50" or "12,50"
	Date     string // YYYY-MM-DD, empty means today
	Note     string
}

// Prefill is the form a settlement link opens: a credit of the parsed amount.
type Prefill struct {
	Entity core.Entity
	Type   string
	Amount core.Money
	Date   core.Date
}

// LedgerService orchestrates the ledger engine over an injected store and
// publishes a ledger event after every write.
type LedgerService struct {
	store     store.Store
	publisher EventPublisher
	summaries cache.Cache[EntitySummary]
	locale    core.Locale
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time
}

// NewLedgerService wires the service. publisher and summaries may be nil.
func NewLedgerService(st store.Store, publisher EventPublisher, summaries cache.Cache[EntitySummary], locale core.Locale) *LedgerService {
	logger := applog.Default(applog.ComponentLedger)
	return &LedgerService{
		store:     st,
		publisher: publisher,
		summaries: summaries,
		locale:    locale,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

func (s *LedgerService) Locale() core.Locale { return s.locale }

// Summary computes totals, status, settlement and reminder links for one
// entity. Results are served from the cache until the next write.
func (s *LedgerService) Summary(ctx context.Context, entityID int64) (EntitySummary, error) {
	key := cacheKey(entityID)
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(key); ok {
			return cached, nil
		}
	}

	var (
		entity core.Entity
		txs    []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entity, err = s.store.GetEntity(gctx, entityID)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.store.ListTransactions(gctx, entityID)
		return err
	})
	if err := g.Wait(); err != nil {
		return EntitySummary{}, fmt.Errorf("load entity %d: %w", entityID, err)
	}

	summary := s.summarize(ctx, entity, txs)
	if s.summaries != nil {
		s.summaries.Set(key, summary)
	}
	return summary, nil
}

func (s *LedgerService) summarize(ctx context.Context, entity core.Entity, txs []core.Transaction) EntitySummary {
	totals := core.Aggregate(txs)
	for _, tx := range totals.Unclassified {
		s.events.LogUnclassified(ctx, entity.ID, tx.ID, tx.Type, tx.Amount.Cents)
	}

	summary := EntitySummary{
		Entity:   entity,
		Totals:   totals,
		Status:   core.FormatStatus(entity.Name, totals.Balance, s.locale),
		Reminder: contact.ReminderMessage(totals.Balance, s.locale),
	}
	if settlement, err := core.DecomposeSettlement(totals.Balance); err == nil {
		summary.Settlement = &settlement
	}
	if entity.PhoneNumber != "" {
		if links, err := contact.BuildLinks(entity.PhoneNumber, summary.Reminder); err == nil {
			summary.Links = &links
		} else {
			s.logger.DebugContext(ctx, "Phone number unusable for reminders",
				applog.FieldEntityID, entity.ID, applog.FieldError, err)
		}
	}
	return summary
}

// Summaries returns a summary for every entity, in the store's name order.
func (s *LedgerService) Summaries(ctx context.Context) ([]EntitySummary, error) {
	entities, err := s.store.ListEntities(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}

	out := make([]EntitySummary, len(entities))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, e := range entities {
		g.Go(func() error {
			summary, err := s.Summary(gctx, e.ID)
			if err != nil {
				return err
			}
			out[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transactions lists an entity's transactions newest first.
func (s *LedgerService) Transactions(ctx context.Context, entityID int64) ([]core.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) CreateEntity(ctx context.Context, e core.Entity) (core.Entity, error) {
	e.Name = strings.TrimSpace(e.Name)
	e.PhoneNumber = strings.TrimSpace(e.PhoneNumber)
	if err := e.Validate(); err != nil {
		return core.Entity{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	id, err := s.store.CreateEntity(ctx, e)
	if err != nil {
		return core.Entity{}, fmt.Errorf("create entity: %w", err)
	}
	e.ID = id

	s.logger.InfoContext(ctx, "Entity created",
		applog.NewFields().WithEntity(e.ID, e.Name).WithOperation(applog.OpCreate).ToSlice()...)
	s.publish(ctx, amqp.KindEntityCreated, e.ID)
	return e, nil
}

// RecordTransaction validates in and stores it with its canonical label.
func (s *LedgerService) RecordTransaction(ctx context.Context, in RecordInput) (core.Transaction, error) {
	polarity, err := core.ParsePolarity(in.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	amount, err := core.ParseMoney(in.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	date, err := s.parseDate(in.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return s.record(ctx, core.Transaction{
		EntityID: in.EntityID,
		Type:     polarity.Label(),
		Amount:   amount,
		Date:     date,
		Note:     strings.TrimSpace(in.Note),
	})
}

func (s *LedgerService) record(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	id, err := s.store.AddTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("record transaction: %w", err)
	}
	tx.ID = id
	s.invalidate(tx.EntityID)

	s.logger.InfoContext(ctx, "Transaction recorded",
		applog.NewFields().
			WithEntity(tx.EntityID, "").
			WithTransaction(tx.ID, tx.Type, tx.Amount.Cents).
			WithOperation(applog.OpRecord).ToSlice()...)
	s.publish(ctx, amqp.KindTransactionRecorded, tx.EntityID)
	return tx, nil
}

// Settle records the credit that brings a negative balance to zero. It
// fails with core.ErrNotInDebt for any other balance.
func (s *LedgerService) Settle(ctx context.Context, entityID int64, note string) (core.Transaction, error) {
	s.invalidate(entityID)
	summary, err := s.Summary(ctx, entityID)
	if err != nil {
		return core.Transaction{}, err
	}
	if summary.Settlement == nil {
		return core.Transaction{}, core.ErrNotInDebt
	}

	tx, err := s.record(ctx, core.Transaction{
		EntityID: entityID,
		Type:     core.Credit.Label(),
		Amount:   summary.Settlement.Amount(),
		Date:     s.today(),
		Note:     strings.TrimSpace(note),
	})
	if err != nil {
		return core.Transaction{}, err
	}

	s.logger.InfoContext(ctx, "Balance settled",
		applog.NewFields().
			WithEntity(entityID, summary.Entity.Name).
			WithBalance(summary.Totals.Balance.Cents, string(summary.Status.Category)).
			WithOperation(applog.OpSettle).ToSlice()...)
	return tx, nil
}

// SettlementPrefill resolves a settlement token into a pre-filled credit.
func (s *LedgerService) SettlementPrefill(ctx context.Context, entityID int64, token string) (Prefill, error) {
	amount, err := core.ParseSettlementToken(token)
	if err != nil {
		return Prefill{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	entity, err := s.store.GetEntity(ctx, entityID)
	if err != nil {
		return Prefill{}, fmt.Errorf("load entity %d: %w", entityID, err)
	}
	return Prefill{
		Entity: entity,
		Type:   core.Credit.Label(),
		Amount: amount,
		Date:   s.today(),
	}, nil
}

// DeleteEntity removes an entity and all its transactions.
func (s *LedgerService) DeleteEntity(ctx context.Context, entityID int64) error {
	if err := s.store.DeleteEntity(ctx, entityID); err != nil {
		return fmt.Errorf("delete entity: %w", err)
	}
	s.invalidate(entityID)

	s.logger.InfoContext(ctx, "Entity deleted",
		applog.NewFields().WithEntity(entityID, "").WithOperation(applog.OpDelete).ToSlice()...)
	s.publish(ctx, amqp.KindEntityDeleted, entityID)
	return nil
}

// publish never fails the write it follows.
func (s *LedgerService) publish(ctx context.Context, kind amqp.EventKind, entityID int64) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping ledger event", "kind", kind)
		return
	}
	if err := s.publisher.PublishLedgerEvent(ctx, amqp.NewLedgerEvent(kind, entityID)); err != nil {
		s.events.LogError(ctx, "Failed to publish ledger event", err, applog.OpRecord,
			applog.NewFields().WithEntity(entityID, ""))
	}
}

func (s *LedgerService) invalidate(entityID int64) {
	if s.summaries != nil {
		s.summaries.Delete(cacheKey(entityID))
	}
}

func (s *LedgerService) parseDate(v string) (core.Date, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return s.today(), nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", v)
	}
	return core.Date{Time: t}, nil
}

func (s *LedgerService) today() core.Date {
	now := s.now()
	return core.NewDate(now.Year(), int(now.Month()), now.Day())
}

func cacheKey(entityID int64) string {
	return strconv.FormatInt(entityID, 10)
}
