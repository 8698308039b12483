package core

import (
	"errors"
	"strings"
)

// Polarity is the canonical direction of a transaction.
type Polarity int

const (
	PolarityUnknown Polarity = iota
	Credit                   // increases what the contact owes the owner
	Debit                    // increases what the owner owes the contact
)

var ErrUnknownType = errors.New("unknown transaction type")

func (p Polarity) String() string {
	switch p {
	case Credit:
		return "credit"
	case Debit:
		return "debit"
	}
	return "unknown"
}

// Label is the canonical stored label for the polarity.
func (p Polarity) Label() string {
	switch p {
	case Credit:
		return "c"
	case Debit:
		return "d"
	}
	return ""
}

// Classify maps a transaction type label to its polarity. Matching is
// case-insensitive and exact; anything outside the synonym sets is unknown.
func Classify(label string) Polarity {
	switch strings.ToLower(label) {
	case "a", "alacak", "c", "credit":
		return Credit
	case "b", "borc", "d", "debit":
		return Debit
	}
	return PolarityUnknown
}

// ParsePolarity validates a label at the point of entry. Unlike Classify it
// tolerates surrounding whitespace and rejects unknown labels.
func ParsePolarity(label string) (Polarity, error) {
	p := Classify(strings.TrimSpace(label))
	if p == PolarityUnknown {
		return PolarityUnknown, ErrUnknownType
	}
	return p, nil
}

// Totals is the aggregate of one entity's transactions.
type Totals struct {
	Credit  Money
	Debit   Money
	Balance Money // Credit - Debit; positive means the contact owes the owner

	// Unclassified lists transactions whose type matched neither polarity.
	// They are excluded from every sum.
	Unclassified []Transaction
}

// Aggregate reduces a transaction history to credit, debit and balance
// totals. Summation is over integer cents so the result does not depend on
// the order of txs.
func Aggregate(txs []Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		switch Classify(tx.Type) {
		case Credit:
			t.Credit = t.Credit.Add(tx.Amount)
		case Debit:
			t.Debit = t.Debit.Add(tx.Amount)
		default:
			t.Unclassified = append(t.Unclassified, tx)
		}
	}
	t.Balance = t.Credit.Sub(t.Debit)
	return t
}
