package amqp

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EventKind names what happened to an entity's ledger.
type EventKind string

const (
	KindTransactionRecorded EventKind = "transaction_recorded"
	KindEntityCreated       EventKind = "entity_created"
	KindEntityDeleted       EventKind = "entity_deleted"
)

// LedgerEvent tells the worker that an entity's balance may have changed.
// It carries only the entity id; consumers reload the ledger from storage.
type LedgerEvent struct {
	// ID is a ULID, so IDs sort by publish time. Events from older
	// publishers may lack one.
	ID        string    `json:"id,omitempty"`
	Kind      EventKind `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

var (
	entropyMu sync.Mutex
	entropy   io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// newEventID returns a ULID for now. IDs minted in the same millisecond
// still increase.
func newEventID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

func NewLedgerEvent(kind EventKind, entityID int64) LedgerEvent {
	now := time.Now().UTC()
	return LedgerEvent{
		ID:        newEventID(now),
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: now,
	}
}

func (e LedgerEvent) Validate() error {
	switch e.Kind {
	case KindTransactionRecorded, KindEntityCreated, KindEntityDeleted:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.EntityID <= 0 {
		return fmt.Errorf("invalid entity id %d", e.EntityID)
	}
	if e.ID != "" {
		if _, err := ulid.ParseStrict(e.ID); err != nil {
			return fmt.Errorf("invalid event id %q: %w", e.ID, err)
		}
	}
	return nil
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes and validates a message body.
func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return LedgerEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return LedgerEvent{}, err
	}
	return e, nil
}
