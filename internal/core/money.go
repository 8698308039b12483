// Package core holds the ledger domain: entities, transactions, money and the
// balance engine (classification, aggregation, status and settlement).
//
// This file contains functions for parsing monetary amounts from strings
// and converting between minor units and their decimal representations.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	// ASCII only: the fraction below is read byte by byte.
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseMoney is ParseDecimalToCents wrapped into Money.
func ParseMoney(s string) (Money, error) {
	cents, err := ParseDecimalToCents(s)
	if err != nil {
		return Money{}, err
	}
	return Money{Cents: cents}, nil
}

// MoneyFromFloat converts a float amount (as stored by older exports) to
// Money, rounding half away from zero at the second decimal.
func MoneyFromFloat(v float64) (Money, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Money{}, ErrInvalidAmount
	}
	scaled := v * 100
	if math.Abs(scaled) > float64(math.MaxInt64/2) {
		return Money{}, ErrInvalidAmount
	}
	// Re-round from the shortest decimal form so 1.005 stays 1.005 and
	// does not become 1.00499999 on the way to cents.
	if r, err := strconv.ParseFloat(strconv.FormatFloat(scaled, 'f', 6, 64), 64); err == nil {
		scaled = r
	}
	return Money{Cents: int64(math.Round(scaled))}, nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }
func (m Money) Neg() Money        { return Money{Cents: -m.Cents} }

func (m Money) Abs() Money {
	if m.Cents < 0 {
		return m.Neg()
	}
	return m
}

func (m Money) IsZero() bool     { return m.Cents == 0 }
func (m Money) IsNegative() bool { return m.Cents < 0 }

// Units returns the value in major units as a float64 for display purposes.
// Use Cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// String renders the shortest decimal form: 70, 123.4, -5.05.
func (m Money) String() string {
	sign, whole, frac := m.split()
	if frac == 0 {
		return sign + strconv.FormatInt(whole, 10)
	}
	return fmt.Sprintf("%s%d.%s", sign, whole, strings.TrimRight(fmt.Sprintf("%02d", frac), "0"))
}

// Decimal renders a fixed two-decimal form: 70.00, 123.40.
func (m Money) Decimal() string {
	sign, whole, frac := m.split()
	return fmt.Sprintf("%s%d.%02d", sign, whole, frac)
}

func (m Money) split() (sign string, whole, frac int64) {
	c := m.Cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign, c / 100, c % 100
}
