package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{"1.٣", 0, false}, // Arabic-Indic digit
		{"٣", 0, false},
		{"12.3４", 0, false}, // fullwidth digit
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{100, 10000},
		{0.1 + 0.2, 30},
		{1.005, 101},
		{2.675, 268},
		{-1.005, -101}, // half away from zero
		{123.45, 12345},
		{19.999, 2000},
	}
	for _, tc := range cases {
		got, err := MoneyFromFloat(tc.in)
		if err != nil {
			t.Fatalf("%v: unexpected error %v", tc.in, err)
		}
		if got.Cents != tc.want {
			t.Errorf("MoneyFromFloat(%v) = %d, want %d", tc.in, got.Cents, tc.want)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	cases := []struct {
		cents   int64
		str     string
		decimal string
	}{
		{0, "0", "0.00"},
		{7000, "70", "70.00"},
		{12340, "123.4", "123.40"},
		{12345, "123.45", "123.45"},
		{-505, "-5.05", "-5.05"},
		{-99, "-0.99", "-0.99"},
	}
	for _, tc := range cases {
		m := Money{Cents: tc.cents}
		if got := m.String(); got != tc.str {
			t.Errorf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.str)
		}
		if got := m.Decimal(); got != tc.decimal {
			t.Errorf("Money{%d}.Decimal() = %q, want %q", tc.cents, got, tc.decimal)
		}
	}
}
