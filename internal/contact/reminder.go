package contact

import (
	"fmt"
	"net/url"

	"defter/internal/core"
)

var reminderTexts = map[core.Locale][3]string{
	// owed to owner, no debt, owed by owner
	core.LocaleTR: {"Alacağınız %s tl", "Borcunuz yoktur", "Borcunuz %s tl"},
	core.LocaleEN: {"You owe us %s", "You have no debt", "We owe you %s"},
}

// ReminderMessage is the text sent to the contact. Only an exact zero
// balance reads as "no debt" here.
func ReminderMessage(balance core.Money, loc core.Locale) string {
	texts, ok := reminderTexts[loc]
	if !ok {
		texts = reminderTexts[core.LocaleTR]
	}
	switch {
	case balance.Cents > 0:
		return fmt.Sprintf(texts[0], balance)
	case balance.Cents == 0:
		return texts[1]
	default:
		return fmt.Sprintf(texts[2], balance.Abs())
	}
}

type Links struct {
	Phone    string `json:"phone"`
	Call     string `json:"call"`
	SMS      string `json:"sms"`
	WhatsApp string `json:"whatsapp"`
}

// BuildLinks normalises rawPhone and returns the reminder links for message.
func BuildLinks(rawPhone, message string) (Links, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return Links{}, err
	}
	body := url.PathEscape(message)
	return Links{
		Phone:    phone,
		Call:     "tel:" + phone,
		SMS:      "sms:" + phone + "&body=" + body,
		WhatsApp: "https://wa.me/" + phone + "?text=" + body,
	}, nil
}
