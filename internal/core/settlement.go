package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrNotInDebt is returned when a settlement is requested for a balance
	// that is not negative.
	ErrNotInDebt    = errors.New("balance is not negative, nothing to settle")
	ErrInvalidToken = errors.New("invalid settlement token")
)

// Settlement is the amount that brings a negative balance back to zero,
// split into whole units and fractional digits.
type Settlement struct {
	IntegerPart int64
	// FractionDigits are the fractional cents with trailing zeros removed:
	// .45 -> 45, .40 -> 4, .00 -> 0.
	FractionDigits int64
	// Width is the number of decimal places FractionDigits stands for.
	// It tells .05 (5, width 2) apart from .5 (5, width 1).
	Width int
}

// DecomposeSettlement splits the settlement amount for balance. Only
// negative balances can be settled; any other balance yields ErrNotInDebt.
func DecomposeSettlement(balance Money) (Settlement, error) {
	if balance.Cents >= 0 {
		return Settlement{}, ErrNotInDebt
	}
	owed := -balance.Cents
	s := Settlement{
		IntegerPart:    owed / 100,
		FractionDigits: owed % 100,
		Width:          2,
	}
	for s.Width > 0 && s.FractionDigits%10 == 0 {
		s.FractionDigits /= 10
		s.Width--
	}
	return s, nil
}

// Amount returns the settlement as Money.
func (s Settlement) Amount() Money {
	frac := s.FractionDigits
	for w := s.Width; w < 2; w++ {
		frac *= 10
	}
	return Money{Cents: s.IntegerPart*100 + frac}
}

// Token renders the settlement as "<integer>_<fraction>", e.g. "123_45",
// "123_4" or "123_05". The fraction keeps its leading zeros.
func (s Settlement) Token() string {
	if s.Width == 0 {
		return fmt.Sprintf("%d_0", s.IntegerPart)
	}
	return fmt.Sprintf("%d_%0*d", s.IntegerPart, s.Width, s.FractionDigits)
}

// ParseSettlementToken reads a token produced by Token back into Money.
func ParseSettlementToken(token string) (Money, error) {
	whole, frac, ok := strings.Cut(token, "_")
	if !ok || whole == "" || frac == "" || len(frac) > 2 {
		return Money{}, ErrInvalidToken
	}
	cents, err := ParseDecimalToCents(whole + "." + frac)
	if err != nil {
		return Money{}, ErrInvalidToken
	}
	if _, err := strconv.ParseUint(frac, 10, 8); err != nil {
		return Money{}, ErrInvalidToken
	}
	return Money{Cents: cents}, nil
}
