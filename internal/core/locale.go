package core

import (
	"fmt"
	"strings"
)

// Locale selects the language of user-facing text.
type Locale string

const (
	LocaleTR Locale = "tr"
	LocaleEN Locale = "en"
)

type statusTexts struct {
	settled     string // entity name
	owedToOwner string // entity name, amount
	owedByOwner string // entity name, amount
	months      [12]string
}

var localeTexts = map[Locale]statusTexts{
	LocaleTR: {
		settled:     "%s isimli kişinin borcu yoktur",
		owedToOwner: "%s isimli kişinin %s tl alacağı var",
		owedByOwner: "%s isimli kişinin %s tl borcu var",
		months: [12]string{"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
			"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık"},
	},
	LocaleEN: {
		settled:     "%s has no outstanding debt",
		owedToOwner: "%s owes you %s",
		owedByOwner: "You owe %s %s",
		months: [12]string{"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December"},
	},
}

// ParseLocale accepts "tr" or "en" in any case.
func ParseLocale(s string) (Locale, error) {
	loc := Locale(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := localeTexts[loc]; !ok {
		return "", fmt.Errorf("unsupported locale %q", s)
	}
	return loc, nil
}

func (l Locale) texts() statusTexts {
	if t, ok := localeTexts[l]; ok {
		return t
	}
	return localeTexts[LocaleTR]
}

// LongDate formats d the way the ledger lists transactions: "19 Ekim 2026"
// or "October 19, 2026".
func (l Locale) LongDate(d Date) string {
	month := l.texts().months[d.Month()-1]
	if l == LocaleEN {
		return fmt.Sprintf("%s %d, %d", month, d.Day(), d.Year())
	}
	return fmt.Sprintf("%d %s %d", d.Day(), month, d.Year())
}
