package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"contas/internal/core"
)

// ErrNotFound is returned when the referenced record does not exist.
var ErrNotFound = errors.New("ledger: not found")

// Ports for the persistence adapters. Every write upserts by id so that
// retried requests stay idempotent.
type (
	CategoryStore interface {
		Categories(ctx context.Context) ([]core.Category, error)
		UpsertCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id string) error
	}

	CreditCardStore interface {
		CreditCards(ctx context.Context) ([]core.CreditCard, error)
		UpsertCreditCard(ctx context.Context, c core.CreditCard) error
		DeleteCreditCard(ctx context.Context, id string) error
	}

	TransactionStore interface {
		Transactions(ctx context.Context) ([]core.Transaction, error)
		TransactionsByMonth(ctx context.Context, month core.YearMonth) ([]core.Transaction, error)
		AppendTransactions(ctx context.Context, txs []core.Transaction) error

		// DeleteTransaction removes the transaction and, when it belongs to
		// an installment group, every other installment of the same group.
		// It returns the removed transactions so callers can invalidate the
		// affected months.
		DeleteTransaction(ctx context.Context, id string) ([]core.Transaction, error)
	}

	LimitStore interface {
		Limits(ctx context.Context) ([]core.CategoryMonthlyLimit, error)

		// UpsertLimit replaces the override for (CategoryID, Month) if one
		// exists and inserts it otherwise.
		UpsertLimit(ctx context.Context, l core.CategoryMonthlyLimit) error
	}

	// Store is the full persistence surface the service layer depends on.
	Store interface {
		CategoryStore
		CreditCardStore
		TransactionStore
		LimitStore

		// Seed installs the default categories when the store holds none.
		Seed(ctx context.Context) error
		Close() error
	}
)

// DefaultCategories returns the starter set installed on first run.
func DefaultCategories() []core.Category {
	return []core.Category{
		{ID: "1", Name: "Alimentação", DefaultLimit: decimal.NewFromInt(800), Color: "#10b981"},
		{ID: "2", Name: "Transporte", DefaultLimit: decimal.NewFromInt(400), Color: "#3b82f6"},
		{ID: "3", Name: "Moradia", DefaultLimit: decimal.NewFromInt(2000), Color: "#8b5cf6"},
		{ID: "4", Name: "Lazer", DefaultLimit: decimal.NewFromInt(300), Color: "#f59e0b"},
		{ID: "5", Name: "Saúde", DefaultLimit: decimal.NewFromInt(500), Color: "#ec4899"},
		{ID: "6", Name: "Educação", DefaultLimit: decimal.NewFromInt(400), Color: "#06b6d4"},
	}
}
