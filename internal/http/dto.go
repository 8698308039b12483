package http

import (
	"defter/internal/contact"
	"defter/internal/core"
	"defter/internal/services"
)

type entityRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Note        string `json:"note"`
}

type transactionRequest struct {
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
	Note   string `json:"note"`
}

type settleRequest struct {
	Note string `json:"note"`
}

type entityJSON struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Note        string `json:"note,omitempty"`
}

type settlementJSON struct {
	IntegerPart    int64  `json:"integer_part"`
	FractionDigits int64  `json:"fraction_digits"`
	Width          int    `json:"width"`
	Amount         string `json:"amount"`
	Token          string `json:"token"`
}

type summaryJSON struct {
	Entity        entityJSON      `json:"entity"`
	Credit        string          `json:"credit"`
	Debit         string          `json:"debit"`
	Balance       string          `json:"balance"`
	BalanceCents  int64           `json:"balance_cents"`
	Status        string          `json:"status"`
	StatusMessage string          `json:"status_message"`
	Unclassified  int             `json:"unclassified,omitempty"`
	Settlement    *settlementJSON `json:"settlement,omitempty"`
	Reminder      string          `json:"reminder"`
	Links         *contact.Links  `json:"links,omitempty"`
}

type transactionJSON struct {
	ID          int64  `json:"id"`
	EntityID    int64  `json:"entity_id"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date,omitempty"`
	DisplayDate string `json:"display_date,omitempty"`
	Note        string `json:"note,omitempty"`
}

type prefillJSON struct {
	Entity entityJSON `json:"entity"`
	Type   string     `json:"type"`
	Amount string     `json:"amount"`
	Date   string     `json:"date"`
}

func toEntityJSON(e core.Entity) entityJSON {
	return entityJSON{ID: e.ID, Name: e.Name, PhoneNumber: e.PhoneNumber, Note: e.Note}
}

func toSummaryJSON(s services.EntitySummary) summaryJSON {
	out := summaryJSON{
		Entity:        toEntityJSON(s.Entity),
		Credit:        s.Totals.Credit.Decimal(),
		Debit:         s.Totals.Debit.Decimal(),
		Balance:       s.Totals.Balance.Decimal(),
		BalanceCents:  s.Totals.Balance.Cents,
		Status:        string(s.Status.Category),
		StatusMessage: s.Status.Message,
		Unclassified:  len(s.Totals.Unclassified),
		Reminder:      s.Reminder,
		Links:         s.Links,
	}
	if st := s.Settlement; st != nil {
		out.Settlement = &settlementJSON{
			IntegerPart:    st.IntegerPart,
			FractionDigits: st.FractionDigits,
			Width:          st.Width,
			Amount:         st.Amount().Decimal(),
			Token:          st.Token(),
		}
	}
	return out
}

func toTransactionJSON(tx core.Transaction, loc core.Locale) transactionJSON {
	out := transactionJSON{
		ID:          tx.ID,
		EntityID:    tx.EntityID,
		Type:        tx.Type,
		Amount:      tx.Amount.Decimal(),
		AmountCents: tx.Amount.Cents,
		DisplayDate: tx.DisplayDate(loc),
		Note:        tx.Note,
	}
	if !tx.Date.IsEmpty() {
		out.Date = tx.Date.Format("2006-01-02")
	}
	return out
}
