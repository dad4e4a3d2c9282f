package http

import (
	"github.com/shopspring/decimal"

	"contas/internal/core"
)

// Wire types for the JSON API. Amounts travel as decimal strings, dates as
// YYYY-MM-DD and months as YYYY-MM, matching the storage formats.

type categoryPayload struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DefaultLimit decimal.Decimal `json:"defaultLimit"`
	Color        string          `json:"color"`
	Icon         string          `json:"icon,omitempty"`
}

func toCategoryPayload(c core.Category) categoryPayload {
	return categoryPayload{
		ID:           c.ID,
		Name:         c.Name,
		DefaultLimit: c.DefaultLimit,
		Color:        c.Color,
		Icon:         c.Icon,
	}
}

func (p categoryPayload) toCore(id string) core.Category {
	return core.Category{
		ID:           id,
		Name:         p.Name,
		DefaultLimit: p.DefaultLimit,
		Color:        p.Color,
		Icon:         p.Icon,
	}
}

type creditCardPayload struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Limit      decimal.Decimal `json:"limit"`
	DueDay     int             `json:"dueDay"`
	ClosingDay int             `json:"closingDay"`
	Color      string          `json:"color"`
}

func toCreditCardPayload(c core.CreditCard) creditCardPayload {
	return creditCardPayload{
		ID:         c.ID,
		Name:       c.Name,
		Limit:      c.Limit,
		DueDay:     c.DueDay,
		ClosingDay: c.ClosingDay,
		Color:      c.Color,
	}
}

func (p creditCardPayload) toCore(id string) core.CreditCard {
	return core.CreditCard{
		ID:         id,
		Name:       p.Name,
		Limit:      p.Limit,
		DueDay:     p.DueDay,
		ClosingDay: p.ClosingDay,
		Color:      p.Color,
	}
}

type transactionPayload struct {
	ID                 string          `json:"id"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Type               string          `json:"type"`
	Date               string          `json:"date"`
	CategoryID         string          `json:"categoryId,omitempty"`
	CreditCardID       string          `json:"creditCardId,omitempty"`
	InstallmentNumber  int             `json:"installmentNumber,omitempty"`
	TotalInstallments  int             `json:"totalInstallments,omitempty"`
	InstallmentGroupID string          `json:"installmentGroupId,omitempty"`
	EffectiveMonth     string          `json:"effectiveMonth"`
}

func toTransactionPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:                 t.ID,
		Description:        t.Description,
		Amount:             t.Amount,
		Type:               string(t.Type),
		Date:               t.Date.String(),
		CategoryID:         t.CategoryID,
		CreditCardID:       t.CreditCardID,
		InstallmentNumber:  t.InstallmentNumber,
		TotalInstallments:  t.TotalInstallments,
		InstallmentGroupID: t.InstallmentGroupID,
		EffectiveMonth:     t.EffectiveMonth.String(),
	}
}

func toTransactionPayloads(txs []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, len(txs))
	for i, t := range txs {
		out[i] = toTransactionPayload(t)
	}
	return out
}

// createTransactionRequest is the POST body for new purchases. A zero
// TotalInstallments means a single plain transaction.
type createTransactionRequest struct {
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	Type              string          `json:"type"`
	Date              string          `json:"date"`
	CategoryID        string          `json:"categoryId"`
	CreditCardID      string          `json:"creditCardId"`
	TotalInstallments int             `json:"totalInstallments"`
}

type balancePayload struct {
	Month            string                     `json:"month"`
	Income           decimal.Decimal            `json:"income"`
	Expenses         decimal.Decimal            `json:"expenses"`
	Balance          decimal.Decimal            `json:"balance"`
	PreviousBalance  decimal.Decimal            `json:"previousBalance"`
	CategoryExpenses map[string]decimal.Decimal `json:"categoryExpenses"`
}

func toBalancePayload(b core.MonthlyBalance) balancePayload {
	return balancePayload{
		Month:            b.Month.String(),
		Income:           b.Income,
		Expenses:         b.Expenses,
		Balance:          b.Balance,
		PreviousBalance:  b.PreviousBalance,
		CategoryExpenses: b.CategoryExpenses,
	}
}

type limitPayload struct {
	CategoryID string          `json:"categoryId"`
	Month      string          `json:"month"`
	Limit      decimal.Decimal `json:"limit"`
}

func toLimitPayload(l core.CategoryMonthlyLimit) limitPayload {
	return limitPayload{
		CategoryID: l.CategoryID,
		Month:      l.Month.String(),
		Limit:      l.Limit,
	}
}

// limitStatusPayload reports a category's spending against its resolved cap.
type limitStatusPayload struct {
	CategoryID string          `json:"categoryId"`
	Month      string          `json:"month"`
	Spent      decimal.Decimal `json:"spent"`
	Limit      decimal.Decimal `json:"limit"`
	OverLimit  bool            `json:"overLimit"`
}

type cardBalancePayload struct {
	CreditCardID string          `json:"creditCardId"`
	Month        string          `json:"month"`
	Total        decimal.Decimal `json:"total"`
}
