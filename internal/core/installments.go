package core

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionDraft carries the user-entered fields of a purchase before
// installment expansion derives the transactions to persist.
type TransactionDraft struct {
	Description  string
	Amount       decimal.Decimal
	Type         TransactionType
	Date         Date
	CategoryID   string
	CreditCardID string
}

func (d TransactionDraft) Validate() error {
	if err := d.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(d.Description) == "" {
		return ErrEmptyDescription
	}
	if len(d.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if !d.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}

// ExpandInstallments turns a draft purchase into the transactions to
// persist. A single-installment draft yields one transaction; a split
// purchase yields totalInstallments transactions sharing a fresh group id,
// dated one calendar month apart and numbered 1..N. Each installment's
// effective month is resolved independently against the card's closing day
// (or the plain calendar month when no card is attached).
//
// The per-installment amount is the plain quotient total/N; the remainder
// is not redistributed, so the sum of installments can differ from the
// original total by a rounding epsilon.
//
// The function is pure apart from id generation; persistence is the
// caller's responsibility.
func ExpandInstallments(draft TransactionDraft, totalInstallments int, card *CreditCard) ([]Transaction, error) {
	if totalInstallments < 1 {
		return nil, ErrInvalidInstallments
	}

	effective := func(d Date) YearMonth {
		if card != nil {
			return EffectiveMonth(d, card.ClosingDay)
		}
		return CalendarMonth(d)
	}

	if totalInstallments == 1 {
		return []Transaction{{
			ID:             uuid.NewString(),
			Description:    draft.Description,
			Amount:         draft.Amount,
			Type:           draft.Type,
			Date:           draft.Date,
			CategoryID:     draft.CategoryID,
			CreditCardID:   draft.CreditCardID,
			EffectiveMonth: effective(draft.Date),
		}}, nil
	}

	groupID := uuid.NewString()
	amount := draft.Amount.Div(decimal.NewFromInt(int64(totalInstallments)))

	transactions := make([]Transaction, 0, totalInstallments)
	for i := 0; i < totalInstallments; i++ {
		date := draft.Date.AddMonths(i)
		transactions = append(transactions, Transaction{
			ID:                 uuid.NewString(),
			Description:        draft.Description,
			Amount:             amount,
			Type:               draft.Type,
			Date:               date,
			CategoryID:         draft.CategoryID,
			CreditCardID:       draft.CreditCardID,
			InstallmentNumber:  i + 1,
			TotalInstallments:  totalInstallments,
			InstallmentGroupID: groupID,
			EffectiveMonth:     effective(date),
		})
	}
	return transactions, nil
}
