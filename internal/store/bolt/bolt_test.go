package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"defter/internal/core"
	"defter/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreEntityLifecycle(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	id, err := s.CreateEntity(ctx, core.Entity{Name: "  Zeynep ", PhoneNumber: "5321234567", Note: "komşu"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateEntity(ctx, core.Entity{Name: "Ahmet"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateEntity(ctx, core.Entity{Name: " "}); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	got, err := s.GetEntity(ctx, id)
	if err != nil || got.Name != "Zeynep" || got.Note != "komşu" || got.ID != id {
		t.Fatalf("get = %+v, %v", got, err)
	}

	list, err := s.ListEntities(ctx)
	if err != nil || len(list) != 2 || list[0].Name != "Ahmet" {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestStoreTransactions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id, _ := s.CreateEntity(ctx, core.Entity{Name: "Can"})
	other, _ := s.CreateEntity(ctx, core.Entity{Name: "Ece"})

	for _, tx := range []core.Transaction{
		{EntityID: id, Type: "c", Amount: core.Money{Cents: 100}, Date: core.NewDate(2025, 1, 2)},
		{EntityID: id, Type: "d", Amount: core.Money{Cents: 200}, Date: core.NewDate(2025, 3, 1), Note: "x"},
		{EntityID: id, Type: "legacy", Amount: core.Money{Cents: 300}, DateLabel: "5 Nisan 2023"},
		{EntityID: id, Type: "a", Amount: core.Money{Cents: 400}, Date: core.NewDate(2025, 2, 1)},
		{EntityID: other, Type: "a", Amount: core.Money{Cents: 999}, Date: core.NewDate(2025, 2, 1)},
	} {
		if _, err := s.AddTransaction(ctx, tx); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	txs, err := s.ListTransactions(ctx, id)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{200, 400, 100, 300}
	if len(txs) != len(want) {
		t.Fatalf("got %d transactions", len(txs))
	}
	for i, tx := range txs {
		if tx.Amount.Cents != want[i] {
			t.Fatalf("position %d: got %d, want %d", i, tx.Amount.Cents, want[i])
		}
	}
	if txs[3].DateLabel != "5 Nisan 2023" || txs[3].Type != "legacy" {
		t.Errorf("legacy row = %+v", txs[3])
	}
	if txs[0].Note != "x" || !txs[0].Date.Equal(core.NewDate(2025, 3, 1).Time) {
		t.Errorf("first row = %+v", txs[0])
	}

	totals := core.Aggregate(txs)
	if totals.Balance.Cents != 300 {
		t.Errorf("balance = %d", totals.Balance.Cents)
	}

	if _, err := s.AddTransaction(ctx, core.Transaction{EntityID: 999}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown entity, got %v", err)
	}
}

func TestStoreDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id, _ := s.CreateEntity(ctx, core.Entity{Name: "Can"})
	if _, err := s.AddTransaction(ctx, core.Transaction{EntityID: id, Type: "c", Amount: core.Money{Cents: 1}}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := s.DeleteEntity(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetEntity(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.ListTransactions(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected transactions gone, got %v", err)
	}
	if err := s.DeleteEntity(ctx, id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestStoreReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	id, _ := s.CreateEntity(ctx, core.Entity{Name: "Kalıcı"})
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if e, err := s.GetEntity(ctx, id); err != nil || e.Name != "Kalıcı" {
		t.Fatalf("after reopen = %+v, %v", e, err)
	}
	next, _ := s.CreateEntity(ctx, core.Entity{Name: "Yeni"})
	if next <= id {
		t.Errorf("sequence went backwards: %d after %d", next, id)
	}
}

func TestOpenLockedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer first.Close()

	if second, err := Open(path); !errors.Is(err, ErrLocked) {
		if second != nil {
			_ = second.Close()
		}
		t.Fatalf("second Open() error = %v, want ErrLocked", err)
	}
}
