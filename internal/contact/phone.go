// Package contact builds the reminder links offered on an entity: phone
// normalisation plus tel, sms and WhatsApp URLs carrying a balance message.
package contact

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone turns a Turkish phone number into its international form
// without the leading plus, e.g. "0090 532 000 00 00" -> "905320000000".
func NormalizePhone(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	switch {
	case strings.HasPrefix(phone, "+9"):
		phone = strings.TrimPrefix(phone, "+")
	case strings.HasPrefix(phone, "0090"):
		phone = "90" + strings.TrimPrefix(phone, "0090")
	case strings.HasPrefix(phone, "5"):
		phone = "90" + phone
	default:
		return "", ErrInvalidPhone
	}

	if len(phone) < 10 {
		return "", ErrInvalidPhone
	}
	return phone, nil
}
