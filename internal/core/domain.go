package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Category groups expenses and carries the default monthly spending cap.
	Category struct {
		ID           string
		Name         string
		DefaultLimit decimal.Decimal
		Color        string
		Icon         string // optional
	}

	// CategoryMonthlyLimit overrides a category's default cap for one month.
	// At most one override may exist per (CategoryID, Month).
	CategoryMonthlyLimit struct {
		CategoryID string
		Month      YearMonth
		Limit      decimal.Decimal
	}

	CreditCard struct {
		ID         string
		Name       string
		Limit      decimal.Decimal
		DueDay     int // day of month the bill is due
		ClosingDay int // day the billing cycle closes
		Color      string
	}

	Transaction struct {
		ID           string
		Description  string
		Amount       decimal.Decimal
		Type         TransactionType
		Date         Date
		CategoryID   string // empty means uncategorized
		CreditCardID string // empty means no card

		// Installment fields are set only for purchases split across months.
		InstallmentNumber  int
		TotalInstallments  int
		InstallmentGroupID string

		// EffectiveMonth is always derived from Date (and the card's closing
		// day when a card is attached), never edited directly.
		EffectiveMonth YearMonth
	}

	// MonthlyBalance is computed on read from the full transaction history
	// and never persisted.
	MonthlyBalance struct {
		Month            YearMonth
		Income           decimal.Decimal
		Expenses         decimal.Decimal
		Balance          decimal.Decimal
		PreviousBalance  decimal.Decimal
		CategoryExpenses map[string]decimal.Decimal
	}
)

var (
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidMonth        = errors.New("invalid month")
	ErrEmptyDescription    = errors.New("empty description")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidType         = errors.New("invalid transaction type")
	ErrInvalidClosingDay   = errors.New("closing day must be between 1 and 28")
	ErrInvalidDueDay       = errors.New("due day must be between 1 and 28")
	ErrInvalidInstallments = errors.New("total installments must be at least 1")
)

// Valid reports whether the transaction type is one of the two known kinds.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if c.DefaultLimit.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (c CreditCard) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	if c.Limit.IsNegative() {
		return ErrInvalidAmount
	}
	if c.ClosingDay < 1 || c.ClosingDay > 28 {
		return ErrInvalidClosingDay
	}
	if c.DueDay < 1 || c.DueDay > 28 {
		return ErrInvalidDueDay
	}
	return nil
}

func (l CategoryMonthlyLimit) Validate() error {
	if strings.TrimSpace(l.CategoryID) == "" {
		return errors.New("empty category id")
	}
	if l.Month.IsZero() {
		return ErrInvalidMonth
	}
	if l.Limit.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
