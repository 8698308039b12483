package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"defter/internal/cache"
	"defter/internal/core"
	"defter/internal/store/memory"
)

const legacyJSON = `{
  "entities": [
    {"id": 3, "name": "Hatice", "phoneNumber": "+90 532 000 00 00"},
    {"id": 9, "name": "Osman"},
    {"id": 10, "name": "  "}
  ],
  "transactions": [
    {"id": 1, "customerId": 3, "type": "alacak", "amount": 100.1, "date": "2023-04-05T10:00:00.000Z"},
    {"id": 2, "customerId": 3, "type": "b", "amount": 30.05, "date": "5 Nisan 2023"},
    {"id": 3, "customerId": 9, "type": "hediye", "amount": 12, "date": "2023-01-01"},
    {"id": 4, "customerId": 42, "type": "a", "amount": 1, "date": "2023-01-01"}
  ]
}`

const legacyYAML = `
entities:
  - id: 1
    name: Yusuf
transactions:
  - id: 1
    customerId: 1
    type: D
    amount: 1.005
    date: "2024-02-29"
`

func TestLedgerService_ImportJSON(t *testing.T) {
	ctx := context.Background()
	svc, _, pub := newTestService(t)

	res, err := svc.Import(ctx, strings.NewReader(legacyJSON), FormatJSON)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Entities != 2 || res.Transactions != 3 || res.Skipped != 2 {
		t.Errorf("result = %+v", res)
	}

	hatice := res.IDMap[3]
	s, err := svc.Summary(ctx, hatice)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Totals.Credit.Cents != 10010 || s.Totals.Debit.Cents != 3005 || s.Totals.Balance.Cents != 7005 {
		t.Errorf("totals = %+v", s.Totals)
	}

	txs, err := svc.Transactions(ctx, hatice)
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	var labelled, dated int
	for _, tx := range txs {
		if tx.DateLabel == "5 Nisan 2023" {
			labelled++
		}
		if tx.Date.Format(dateLayout) == "2023-04-05" {
			dated++
		}
	}
	if labelled != 1 || dated != 1 {
		t.Errorf("date handling: labelled=%d dated=%d in %+v", labelled, dated, txs)
	}

	osman, err := svc.Summary(ctx, res.IDMap[9])
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(osman.Totals.Unclassified) != 1 || !osman.Totals.Balance.IsZero() {
		t.Errorf("unknown legacy label should be kept but excluded: %+v", osman.Totals)
	}

	if len(pub.kinds()) != 2 {
		t.Errorf("expected one event per imported entity, got %v", pub.kinds())
	}
}

func TestLedgerService_ImportYAML(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	res, err := svc.Import(ctx, strings.NewReader(legacyYAML), FormatFromPath("backup.YML"))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	s, err := svc.Summary(ctx, res.IDMap[1])
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if s.Totals.Balance.Cents != -101 {
		t.Errorf("balance = %d, want -101", s.Totals.Balance.Cents)
	}
}

func TestLedgerService_ImportRejectsBadInput(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Import(context.Background(), strings.NewReader("{not json"), FormatJSON); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for malformed json, got %v", err)
	}
	if _, err := svc.Import(context.Background(), strings.NewReader("{}"), ImportFormat("csv")); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown format, got %v", err)
	}
}

// flakyStore fails AddTransaction once failAfter writes succeeded.
type flakyStore struct {
	*memory.Store
	failAfter int
	added     int
}

func (f *flakyStore) AddTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if f.added >= f.failAfter {
		return 0, errors.New("disk full")
	}
	f.added++
	return f.Store.AddTransaction(ctx, tx)
}

func TestLedgerService_ImportFailureRemovesCreatedEntities(t *testing.T) {
	ctx := context.Background()
	st := &flakyStore{Store: memory.New(), failAfter: 1}
	pub := &fakePublisher{}
	svc := NewLedgerService(st, pub, cache.NewLRUCache[EntitySummary](16, time.Minute), core.LocaleTR)

	res, err := svc.Import(ctx, strings.NewReader(legacyJSON), FormatJSON)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Import error = %v, want the store failure", err)
	}
	if errors.Is(err, ErrImportPartial) {
		t.Errorf("rollback succeeded, error should not report a partial import: %v", err)
	}
	if res.Entities != 0 || res.Transactions != 0 {
		t.Errorf("result = %+v, want zero on failure", res)
	}

	entities, err := st.ListEntities(ctx)
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 0 {
		t.Errorf("entities left after failed import: %+v", entities)
	}
	if kinds := pub.kinds(); len(kinds) != 0 {
		t.Errorf("failed import published %v", kinds)
	}

	// A second run against a healthy store imports everything once.
	st.failAfter = 100
	res, err = svc.Import(ctx, strings.NewReader(legacyJSON), FormatJSON)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	entities, _ = st.ListEntities(ctx)
	if res.Entities != 2 || len(entities) != 2 {
		t.Errorf("after retry: result %+v, %d entities", res, len(entities))
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]ImportFormat{
		"export.json":  FormatJSON,
		"export.yaml":  FormatYAML,
		"EXPORT.YML":   FormatYAML,
		"export":       FormatJSON,
		"dir.yaml/x.j": FormatJSON,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
