package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ledger"
)

// FinanceService orchestrates the finance operations: writes go to the
// store, derived balances come from the engine, and transaction writes are
// announced on AMQP. The events client may be nil; publishing is then
// skipped and every write still succeeds locally.
type FinanceService struct {
	store  ledger.Store
	events *amqp.Client
	engine *core.BalanceEngine
}

func NewFinanceService(store ledger.Store, events *amqp.Client, epochYear int) *FinanceService {
	return &FinanceService{
		store:  store,
		events: events,
		engine: core.NewBalanceEngine(epochYear),
	}
}

// Categories lists all categories.
func (s *FinanceService) Categories(ctx context.Context) ([]core.Category, error) {
	return s.store.Categories(ctx)
}

// SaveCategory validates and upserts a category.
func (s *FinanceService) SaveCategory(ctx context.Context, c core.Category) error {
	if err := s.store.UpsertCategory(ctx, c); err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Transactions referencing it keep
// their category id; they simply resolve to a zero limit afterwards.
func (s *FinanceService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// CreditCards lists all credit cards.
func (s *FinanceService) CreditCards(ctx context.Context) ([]core.CreditCard, error) {
	return s.store.CreditCards(ctx)
}

// SaveCreditCard validates and upserts a credit card. Changing a card's
// closing day does not reshuffle already-persisted transactions: their
// effective month was fixed at creation time.
func (s *FinanceService) SaveCreditCard(ctx context.Context, c core.CreditCard) error {
	if err := s.store.UpsertCreditCard(ctx, c); err != nil {
		return fmt.Errorf("save credit card: %w", err)
	}
	return nil
}

// DeleteCreditCard removes a credit card.
func (s *FinanceService) DeleteCreditCard(ctx context.Context, id string) error {
	if err := s.store.DeleteCreditCard(ctx, id); err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	return nil
}

// CreateTransaction expands the draft into one or more installments,
// persists them, invalidates the affected balances and announces the write.
func (s *FinanceService) CreateTransaction(ctx context.Context, draft core.TransactionDraft, totalInstallments int) ([]core.Transaction, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var card *core.CreditCard
	if draft.CreditCardID != "" {
		cards, err := s.store.CreditCards(ctx)
		if err != nil {
			return nil, fmt.Errorf("load credit cards: %w", err)
		}
		for i := range cards {
			if cards[i].ID == draft.CreditCardID {
				card = &cards[i]
				break
			}
		}
		if card == nil {
			return nil, fmt.Errorf("create transaction: %w", ledger.ErrNotFound)
		}
	}

	txs, err := core.ExpandInstallments(draft, totalInstallments, card)
	if err != nil {
		return nil, err
	}

	if err := s.store.AppendTransactions(ctx, txs); err != nil {
		return nil, fmt.Errorf("append transactions: %w", err)
	}

	s.invalidateFrom(txs)
	s.publishEvent(ctx, amqp.ActionCreated, txs)

	return txs, nil
}

// DeleteTransaction removes a transaction. For installment purchases the
// whole group goes at once; partial groups would leave the totals lying.
func (s *FinanceService) DeleteTransaction(ctx context.Context, id string) error {
	removed, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.invalidateFrom(removed)
	s.publishEvent(ctx, amqp.ActionDeleted, removed)

	return nil
}

// Transactions lists the full transaction history.
func (s *FinanceService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.Transactions(ctx)
}

// MonthTransactions lists the transactions billed to a month, newest first.
func (s *FinanceService) MonthTransactions(ctx context.Context, month core.YearMonth) ([]core.Transaction, error) {
	txs, err := s.store.TransactionsByMonth(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return core.MonthTransactions(txs, month), nil
}

// MonthlyBalance computes the month's aggregate over the full history.
func (s *FinanceService) MonthlyBalance(ctx context.Context, month core.YearMonth) (core.MonthlyBalance, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return core.MonthlyBalance{}, fmt.Errorf("load transactions: %w", err)
	}
	return s.engine.MonthlyBalance(txs, month), nil
}

// CreditCardBalance sums the expenses billed to one card in one month.
func (s *FinanceService) CreditCardBalance(ctx context.Context, cardID string, month core.YearMonth) (decimal.Decimal, error) {
	txs, err := s.store.Transactions(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load transactions: %w", err)
	}
	return core.CreditCardBalance(txs, cardID, month), nil
}

// ResolveLimit returns the spending cap for a category in a month.
func (s *FinanceService) ResolveLimit(ctx context.Context, categoryID string, month core.YearMonth) (decimal.Decimal, error) {
	categories, err := s.store.Categories(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load categories: %w", err)
	}
	overrides, err := s.store.Limits(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("load limits: %w", err)
	}
	return core.ResolveLimit(categories, overrides, categoryID, month), nil
}

// SetCategoryLimit upserts a month-specific spending cap.
func (s *FinanceService) SetCategoryLimit(ctx context.Context, l core.CategoryMonthlyLimit) error {
	if err := s.store.UpsertLimit(ctx, l); err != nil {
		return fmt.Errorf("set category limit: %w", err)
	}
	return nil
}

// Limits lists every month-specific override.
func (s *FinanceService) Limits(ctx context.Context) ([]core.CategoryMonthlyLimit, error) {
	return s.store.Limits(ctx)
}

// CategoryOverLimit reports whether the category's spending in a month
// exceeds its resolved cap, along with the spent and cap amounts.
func (s *FinanceService) CategoryOverLimit(ctx context.Context, categoryID string, month core.YearMonth) (spent, limit decimal.Decimal, over bool, err error) {
	balance, err := s.MonthlyBalance(ctx, month)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	limit, err = s.ResolveLimit(ctx, categoryID, month)
	if err != nil {
		return decimal.Zero, decimal.Zero, false, err
	}
	spent = balance.CategoryExpenses[categoryID]
	return spent, limit, core.OverLimit(spent, limit), nil
}

// invalidateFrom drops memoized balances from the earliest month the
// written transactions touch.
func (s *FinanceService) invalidateFrom(txs []core.Transaction) {
	var earliest core.YearMonth
	for _, t := range txs {
		if earliest.IsZero() || t.EffectiveMonth.Before(earliest) {
			earliest = t.EffectiveMonth
		}
	}
	if !earliest.IsZero() {
		s.engine.Invalidate(earliest)
	}
}

// publishEvent is best-effort: local writes never fail because the broker
// is down.
func (s *FinanceService) publishEvent(ctx context.Context, action string, txs []core.Transaction) {
	if s.events == nil || len(txs) == 0 {
		return
	}

	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}

	event := amqp.NewTransactionEvent(action, ids, txs[0].CategoryID, txs[0].EffectiveMonth.String())
	if err := s.events.PublishTransactionEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"action", action, "transactions", len(ids), "error", err)
	}
}

// Close closes both storage and AMQP connections
func (s *FinanceService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.events != nil {
		if err := s.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close finance service: %v", errs)
	}

	return nil
}
