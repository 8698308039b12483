// Package bolt is a single-file store.Store on bbolt. Entities live in one
// bucket; each entity's transactions live in a nested bucket keyed by the
// entity ID, so deleting an entity drops its history in the same write.
package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"

	"defter/internal/core"
	applog "defter/internal/log"
	"defter/internal/store"
)

var (
	bucketEntities     = []byte("entities")
	bucketTransactions = []byte("transactions")
)

const dateLayout = "2006-01-02"

// ErrLocked means another process, usually the API server, has the file open.
// bbolt allows a single writer process per file.
var ErrLocked = errors.New("bolt database is locked by another process")

type Store struct {
	db     *bolt.DB
	logger *applog.Logger
}

var _ store.Store = (*Store)(nil)

type entityRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Note        string `json:"note,omitempty"`
}

type transactionRecord struct {
	ID          int64  `json:"id"`
	EntityID    int64  `json:"entity_id"`
	Type        string `json:"type"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date,omitempty"`
	DateLabel   string `json:"date_label,omitempty"`
	Note        string `json:"note,omitempty"`
}

// Open opens or creates the database at path and makes sure both top-level
// buckets exist.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if errors.Is(err, berrors.ErrTimeout) {
		return nil, fmt.Errorf("open %s: %w", path, ErrLocked)
	}
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketEntities, bucketTransactions} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger := applog.Default(applog.ComponentStorage)
	logger.Info("Bolt store opened", "path", path)
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database file is still open.
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketEntities) == nil {
			return errors.New("entities bucket missing")
		}
		return nil
	})
}

func (s *Store) CreateEntity(ctx context.Context, e core.Entity) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEntities)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)
		data, err := json.Marshal(entityRecord{
			ID:          id,
			Name:        strings.TrimSpace(e.Name),
			PhoneNumber: e.PhoneNumber,
			Note:        e.Note,
		})
		if err != nil {
			return err
		}
		if err := b.Put(itob(id), data); err != nil {
			return err
		}
		_, err = tx.Bucket(bucketTransactions).CreateBucketIfNotExists(itob(id))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("create entity: %w", err)
	}
	s.logger.DebugContext(ctx, "Entity stored", applog.FieldEntityID, id)
	return id, nil
}

func (s *Store) GetEntity(_ context.Context, id int64) (core.Entity, error) {
	var rec entityRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketEntities).Get(itob(id))
		if data == nil {
			return fmt.Errorf("entity %d: %w", id, store.ErrNotFound)
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return core.Entity{}, err
	}
	return rec.toEntity(), nil
}

// ListEntities returns entities ordered by name, then ID.
func (s *Store) ListEntities(_ context.Context) ([]core.Entity, error) {
	var out []core.Entity
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketEntities).ForEach(func(_, v []byte) error {
			var rec entityRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, rec.toEntity())
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list entities: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) DeleteEntity(ctx context.Context, id int64) error {
	key := itob(id)
	err := s.db.Update(func(tx *bolt.Tx) error {
		entities := tx.Bucket(bucketEntities)
		if entities.Get(key) == nil {
			return fmt.Errorf("entity %d: %w", id, store.ErrNotFound)
		}
		if err := entities.Delete(key); err != nil {
			return err
		}
		err := tx.Bucket(bucketTransactions).DeleteBucket(key)
		if err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "Entity deleted with its transactions", applog.FieldEntityID, id)
	return nil
}

// AddTransaction stores tx as given; labels are not re-validated so imported
// legacy rows keep their type.
func (s *Store) AddTransaction(_ context.Context, t core.Transaction) (int64, error) {
	var id int64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketEntities).Get(itob(t.EntityID)) == nil {
			return fmt.Errorf("entity %d: %w", t.EntityID, store.ErrNotFound)
		}
		all := tx.Bucket(bucketTransactions)
		seq, err := all.NextSequence()
		if err != nil {
			return err
		}
		id = int64(seq)

		rec := transactionRecord{
			ID:          id,
			EntityID:    t.EntityID,
			Type:        t.Type,
			AmountCents: t.Amount.Cents,
			DateLabel:   t.DateLabel,
			Note:        t.Note,
		}
		if !t.Date.IsEmpty() {
			rec.Date = t.Date.Format(dateLayout)
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		b, err := all.CreateBucketIfNotExists(itob(t.EntityID))
		if err != nil {
			return err
		}
		return b.Put(itob(id), data)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("add transaction: %w", err)
	}
	return id, nil
}

// ListTransactions returns the entity's transactions, newest date first and
// undated rows last.
func (s *Store) ListTransactions(ctx context.Context, entityID int64) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketEntities).Get(itob(entityID)) == nil {
			return fmt.Errorf("entity %d: %w", entityID, store.ErrNotFound)
		}
		b := tx.Bucket(bucketTransactions).Bucket(itob(entityID))
		if b == nil {
			return nil
		}
		return b.ForEach(func(_, v []byte) error {
			var rec transactionRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, s.toTransaction(ctx, rec))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r entityRecord) toEntity() core.Entity {
	return core.Entity{ID: r.ID, Name: r.Name, PhoneNumber: r.PhoneNumber, Note: r.Note}
}

func (s *Store) toTransaction(ctx context.Context, r transactionRecord) core.Transaction {
	t := core.Transaction{
		ID:        r.ID,
		EntityID:  r.EntityID,
		Type:      r.Type,
		Amount:    core.Money{Cents: r.AmountCents},
		DateLabel: r.DateLabel,
		Note:      r.Note,
	}
	if r.Date != "" {
		if d, err := time.Parse(dateLayout, r.Date); err == nil {
			t.Date = core.NewDate(d.Year(), int(d.Month()), d.Day())
		} else if t.DateLabel == "" {
			s.logger.WarnContext(ctx, "Unparseable stored date kept as label",
				"transaction_id", r.ID, "date", r.Date)
			t.DateLabel = r.Date
		}
	}
	return t
}

// itob encodes v big-endian so keys sort numerically.
func itob(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}
