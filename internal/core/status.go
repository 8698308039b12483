package core

import "fmt"

// Category is the tri-state display classification of a balance.
type Category string

const (
	CategorySettled           Category = "settled"
	CategoryCreditOwedToOwner Category = "credit_owed_to_owner"
	CategoryDebitOwedByOwner  Category = "debit_owed_by_owner"
)

// settledBand is the open interval (-1, 1) in cents inside which a balance
// counts as settled.
const settledBand = 100

type Status struct {
	Category Category
	Message  string
	Amount   Money // magnitude shown in Message, always >= 0
}

// FormatStatus classifies balance for entityName and phrases it in loc.
func FormatStatus(entityName string, balance Money, loc Locale) Status {
	text := loc.texts()
	switch {
	case balance.Cents > -settledBand && balance.Cents < settledBand:
		return Status{
			Category: CategorySettled,
			Message:  fmt.Sprintf(text.settled, entityName),
			Amount:   balance.Abs(),
		}
	case balance.Cents > 0:
		return Status{
			Category: CategoryCreditOwedToOwner,
			Message:  fmt.Sprintf(text.owedToOwner, entityName, balance),
			Amount:   balance,
		}
	default:
		return Status{
			Category: CategoryDebitOwedByOwner,
			Message:  fmt.Sprintf(text.owedByOwner, entityName, balance.Abs()),
			Amount:   balance.Abs(),
		}
	}
}
