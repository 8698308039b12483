package core

import (
	"errors"
	"strings"
	"time"
)

type (
	Date struct {
		time.Time
	}

	// Money is an amount in minor units (kuruş, cents). Ledger arithmetic never
	// leaves integers.
	Money struct {
		Cents int64
	}

	// Entity is a contact with its own transaction history and running balance.
	Entity struct {
		ID          int64
		Name        string
		PhoneNumber string
		Note        string
	}

	Transaction struct {
		ID       int64 // zero until persisted
		EntityID int64
		Type     string // free-form polarity label, see Classify
		Amount   Money  // unsigned magnitude
		Date     Date
		// DateLabel holds a pre-formatted date imported from older data.
		// When set it wins over Date for display.
		DateLabel string
		Note      string
	}
)

var (
	ErrInvalidDay      = errors.New("invalid day")
	ErrInvalidMonth    = errors.New("invalid month")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyName       = errors.New("empty entity name")
	ErrInvalidEntityID = errors.New("invalid entity id")
)

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e Entity) Validate() error {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return errors.New("entity name too long (max 100 characters)")
	}
	if len(e.Note) > 500 {
		return errors.New("entity note too long (max 500 characters)")
	}
	return nil
}

// Validate checks a transaction about to be written. Stored legacy rows are
// never re-validated; the aggregator copes with whatever labels they carry.
func (t Transaction) Validate() error {
	if t.EntityID <= 0 {
		return ErrInvalidEntityID
	}
	if _, err := ParsePolarity(t.Type); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.DateLabel == "" {
		if err := t.Date.Validate(); err != nil {
			return err
		}
	}
	if len(t.Note) > 200 {
		return errors.New("note too long (max 200 characters)")
	}
	return nil
}

// DisplayDate returns the date as shown next to a transaction: the imported
// label when present, otherwise a long localized date.
func (t Transaction) DisplayDate(loc Locale) string {
	if t.DateLabel != "" {
		return t.DateLabel
	}
	if t.Date.IsEmpty() {
		return ""
	}
	return loc.LongDate(t.Date)
}
