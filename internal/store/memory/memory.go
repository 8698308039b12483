package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"defter/internal/core"
	"defter/internal/store"
)

// Store keeps entities and transactions in process memory.
type Store struct {
	mu       sync.Mutex
	entityID int64 // last assigned ids, one sequence per table like SQLite
	txID     int64
	entities map[int64]core.Entity
	txs      map[int64][]core.Transaction
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		entities: make(map[int64]core.Entity),
		txs:      make(map[int64][]core.Transaction),
	}
}

func (s *Store) CreateEntity(_ context.Context, e core.Entity) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entityID++
	e.ID = s.entityID
	e.Name = strings.TrimSpace(e.Name)
	s.entities[e.ID] = e
	return e.ID, nil
}

func (s *Store) GetEntity(_ context.Context, id int64) (core.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return core.Entity{}, fmt.Errorf("entity %d: %w", id, store.ErrNotFound)
	}
	return e, nil
}

// ListEntities returns entities ordered by name.
func (s *Store) ListEntities(_ context.Context) ([]core.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteEntity(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[id]; !ok {
		return fmt.Errorf("entity %d: %w", id, store.ErrNotFound)
	}
	delete(s.entities, id)
	delete(s.txs, id)
	return nil
}

// AddTransaction stores tx as given. Labels are not re-validated so that
// imported legacy rows keep their original type.
func (s *Store) AddTransaction(_ context.Context, tx core.Transaction) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[tx.EntityID]; !ok {
		return 0, fmt.Errorf("entity %d: %w", tx.EntityID, store.ErrNotFound)
	}
	s.txID++
	tx.ID = s.txID
	s.txs[tx.EntityID] = append(s.txs[tx.EntityID], tx)
	return tx.ID, nil
}

// ListTransactions returns a copy of the entity's transactions, newest first.
func (s *Store) ListTransactions(_ context.Context, entityID int64) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entities[entityID]; !ok {
		return nil, fmt.Errorf("entity %d: %w", entityID, store.ErrNotFound)
	}
	out := append([]core.Transaction(nil), s.txs[entityID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}
