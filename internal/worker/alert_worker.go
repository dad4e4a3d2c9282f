package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"contas/internal/amqp"
	"contas/internal/core"
	"contas/internal/ledger"
)

// LimitAlertWorker watches transaction events and logs an alert whenever a
// category's spending crosses its resolved cap for the month. It also runs
// a periodic scan over the current month as a backup in case events are
// lost.
type LimitAlertWorker struct {
	store  ledger.Store
	engine *core.BalanceEngine
}

func NewLimitAlertWorker(store ledger.Store, epochYear int) *LimitAlertWorker {
	return &LimitAlertWorker{
		store:  store,
		engine: core.NewBalanceEngine(epochYear),
	}
}

// HandleTransactionEvent processes a single transaction event from AMQP.
func (w *LimitAlertWorker) HandleTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error {
	slog.InfoContext(ctx, "Processing transaction event",
		"action", event.Action,
		"transactions", len(event.TransactionIDs),
		"effective_month", event.EffectiveMonth)

	month, err := core.ParseYearMonth(event.EffectiveMonth)
	if err != nil {
		// A malformed month never becomes processable; drop it.
		slog.WarnContext(ctx, "Event carries malformed month, dropping",
			"effective_month", event.EffectiveMonth, "error", err)
		return nil
	}

	// Any write invalidates the running balances from that month on.
	w.engine.Invalidate(month)

	if event.Action != amqp.ActionCreated || event.CategoryID == "" {
		return nil
	}

	return w.checkCategory(ctx, event.CategoryID, month)
}

// CheckMonth scans every category's spending against its cap for the month.
func (w *LimitAlertWorker) CheckMonth(ctx context.Context, month core.YearMonth) error {
	categories, err := w.store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	for _, c := range categories {
		if err := w.checkCategory(ctx, c.ID, month); err != nil {
			return err
		}
	}
	return nil
}

func (w *LimitAlertWorker) checkCategory(ctx context.Context, categoryID string, month core.YearMonth) error {
	categories, err := w.store.Categories(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	overrides, err := w.store.Limits(ctx)
	if err != nil {
		return fmt.Errorf("load limits: %w", err)
	}
	txs, err := w.store.Transactions(ctx)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}

	limit := core.ResolveLimit(categories, overrides, categoryID, month)
	if limit.IsZero() {
		return nil
	}

	balance := w.engine.MonthlyBalance(txs, month)
	spent := balance.CategoryExpenses[categoryID]

	if core.OverLimit(spent, limit) {
		slog.WarnContext(ctx, "Category over spending limit",
			"category_id", categoryID,
			"month", month.String(),
			"spent", spent.String(),
			"limit", limit.String())
	}
	return nil
}

// Run consumes transaction events and periodically rescans the current
// month until the context is cancelled.
func (w *LimitAlertWorker) Run(ctx context.Context, events *amqp.Client, scanInterval time.Duration) error {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- events.ConsumeTransactionEvents(ctx, func(event *amqp.TransactionEvent) error {
			return w.HandleTransactionEvent(ctx, event)
		})
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-consumeErr:
			return err
		case <-ticker.C:
			month := core.YearMonthOf(time.Now())
			if err := w.CheckMonth(ctx, month); err != nil {
				slog.ErrorContext(ctx, "Periodic limit scan failed",
					"month", month.String(), "error", err)
			}
		}
	}
}
