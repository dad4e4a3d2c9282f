package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"contas/internal/core"
	"contas/internal/ledger"
	"contas/internal/ledger/memory"
)

func newTestService(t *testing.T) *FinanceService {
	t.Helper()
	svc := NewFinanceService(memory.New(), nil, 2020)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestCreateTransactionSingle(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	draft := core.TransactionDraft{
		Description: "groceries",
		Amount:      decimal.NewFromInt(120),
		Type:        core.Expense,
		Date:        core.NewDate(2025, time.March, 10),
		CategoryID:  "1",
	}

	txs, err := svc.CreateTransaction(ctx, draft, 1)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(txs))
	}
	if txs[0].EffectiveMonth != (core.YearMonth{Year: 2025, Month: time.March}) {
		t.Errorf("effective month = %v, want calendar month without a card", txs[0].EffectiveMonth)
	}

	stored, err := svc.Transactions(ctx)
	if err != nil {
		t.Fatalf("Transactions returned error: %v", err)
	}
	if len(stored) != 1 {
		t.Errorf("expected the transaction to be persisted, got %d", len(stored))
	}
}

func TestCreateTransactionWithCardInstallments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	card := core.CreditCard{ID: "card-1", Name: "Visa", Limit: decimal.NewFromInt(5000), DueDay: 10, ClosingDay: 3}
	if err := svc.SaveCreditCard(ctx, card); err != nil {
		t.Fatalf("SaveCreditCard returned error: %v", err)
	}

	draft := core.TransactionDraft{
		Description:  "fridge",
		Amount:       decimal.NewFromInt(3000),
		Type:         core.Expense,
		Date:         core.NewDate(2025, time.January, 10),
		CategoryID:   "3",
		CreditCardID: "card-1",
	}

	txs, err := svc.CreateTransaction(ctx, draft, 3)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(txs))
	}
	// Day 10 is past the card's closing day 3, so January bills in March.
	if txs[0].EffectiveMonth != (core.YearMonth{Year: 2025, Month: time.March}) {
		t.Errorf("first installment effective month = %v, want 2025-03", txs[0].EffectiveMonth)
	}

	month, err := svc.MonthTransactions(ctx, core.YearMonth{Year: 2025, Month: time.March})
	if err != nil {
		t.Fatalf("MonthTransactions returned error: %v", err)
	}
	if len(month) != 1 {
		t.Errorf("expected 1 transaction billed to March, got %d", len(month))
	}
}

func TestCreateTransactionUnknownCard(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	draft := core.TransactionDraft{
		Description:  "fridge",
		Amount:       decimal.NewFromInt(3000),
		Type:         core.Expense,
		Date:         core.NewDate(2025, time.January, 10),
		CreditCardID: "missing",
	}

	if _, err := svc.CreateTransaction(ctx, draft, 1); !errors.Is(err, ledger.ErrNotFound) {
		t.Errorf("CreateTransaction = %v, want ErrNotFound", err)
	}
}

func TestCreateTransactionInvalidDraft(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	draft := core.TransactionDraft{
		Description: "",
		Amount:      decimal.NewFromInt(10),
		Type:        core.Expense,
		Date:        core.NewDate(2025, time.January, 10),
	}

	if _, err := svc.CreateTransaction(ctx, draft, 1); !errors.Is(err, core.ErrEmptyDescription) {
		t.Errorf("CreateTransaction = %v, want ErrEmptyDescription", err)
	}
}

func TestBalancesRefreshAfterWrites(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	feb := core.YearMonth{Year: 2025, Month: time.February}
	jan := core.YearMonth{Year: 2025, Month: time.January}

	_, err := svc.CreateTransaction(ctx, core.TransactionDraft{
		Description: "salary",
		Amount:      decimal.NewFromInt(1000),
		Type:        core.Income,
		Date:        core.NewDate(2025, time.January, 5),
	}, 1)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	balance, err := svc.MonthlyBalance(ctx, feb)
	if err != nil {
		t.Fatalf("MonthlyBalance returned error: %v", err)
	}
	if !balance.PreviousBalance.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("PreviousBalance = %s, want 1000", balance.PreviousBalance)
	}

	// A January write must show up in February's previous balance even
	// though it was memoized by the read above.
	txs, err := svc.CreateTransaction(ctx, core.TransactionDraft{
		Description: "rent",
		Amount:      decimal.NewFromInt(400),
		Type:        core.Expense,
		Date:        core.NewDate(2025, time.January, 6),
		CategoryID:  "3",
	}, 1)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	balance, _ = svc.MonthlyBalance(ctx, feb)
	if !balance.PreviousBalance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("PreviousBalance after write = %s, want 600", balance.PreviousBalance)
	}

	// Deleting it restores the original running balance.
	if err := svc.DeleteTransaction(ctx, txs[0].ID); err != nil {
		t.Fatalf("DeleteTransaction returned error: %v", err)
	}
	balance, _ = svc.MonthlyBalance(ctx, feb)
	if !balance.PreviousBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("PreviousBalance after delete = %s, want 1000", balance.PreviousBalance)
	}

	janBalance, _ := svc.MonthlyBalance(ctx, jan)
	if !janBalance.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("January balance = %s, want 1000", janBalance.Balance)
	}
}

func TestDeleteTransactionRemovesInstallmentGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	txs, err := svc.CreateTransaction(ctx, core.TransactionDraft{
		Description: "couch",
		Amount:      decimal.NewFromInt(900),
		Type:        core.Expense,
		Date:        core.NewDate(2025, time.January, 10),
	}, 3)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	if err := svc.DeleteTransaction(ctx, txs[1].ID); err != nil {
		t.Fatalf("DeleteTransaction returned error: %v", err)
	}

	remaining, _ := svc.Transactions(ctx)
	if len(remaining) != 0 {
		t.Errorf("expected whole group removed, %d transactions left", len(remaining))
	}
}

func TestCategoryOverLimit(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	march := core.YearMonth{Year: 2025, Month: time.March}

	if err := svc.SaveCategory(ctx, core.Category{
		ID: "1", Name: "Alimentação", DefaultLimit: decimal.NewFromInt(800),
	}); err != nil {
		t.Fatalf("SaveCategory returned error: %v", err)
	}

	_, err := svc.CreateTransaction(ctx, core.TransactionDraft{
		Description: "groceries",
		Amount:      decimal.NewFromInt(700),
		Type:        core.Expense,
		Date:        core.NewDate(2025, time.March, 5),
		CategoryID:  "1",
	}, 1)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	spent, limit, over, err := svc.CategoryOverLimit(ctx, "1", march)
	if err != nil {
		t.Fatalf("CategoryOverLimit returned error: %v", err)
	}
	if over {
		t.Errorf("700 of 800 should not be over limit (spent %s of %s)", spent, limit)
	}

	// A tighter override for March flips the verdict.
	if err := svc.SetCategoryLimit(ctx, core.CategoryMonthlyLimit{
		CategoryID: "1", Month: march, Limit: decimal.NewFromInt(500),
	}); err != nil {
		t.Fatalf("SetCategoryLimit returned error: %v", err)
	}

	spent, limit, over, err = svc.CategoryOverLimit(ctx, "1", march)
	if err != nil {
		t.Fatalf("CategoryOverLimit returned error: %v", err)
	}
	if !over {
		t.Errorf("700 of 500 should be over limit (spent %s of %s)", spent, limit)
	}
	if !limit.Equal(decimal.NewFromInt(500)) {
		t.Errorf("limit = %s, want the 500 override", limit)
	}
}

func TestResolveLimitFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	april := core.YearMonth{Year: 2025, Month: time.April}

	if err := svc.SaveCategory(ctx, core.Category{
		ID: "2", Name: "Transporte", DefaultLimit: decimal.NewFromInt(400),
	}); err != nil {
		t.Fatalf("SaveCategory returned error: %v", err)
	}

	limit, err := svc.ResolveLimit(ctx, "2", april)
	if err != nil {
		t.Fatalf("ResolveLimit returned error: %v", err)
	}
	if !limit.Equal(decimal.NewFromInt(400)) {
		t.Errorf("limit = %s, want the 400 default", limit)
	}

	limit, err = svc.ResolveLimit(ctx, "unknown", april)
	if err != nil {
		t.Fatalf("ResolveLimit returned error: %v", err)
	}
	if !limit.IsZero() {
		t.Errorf("unknown category limit = %s, want 0", limit)
	}
}

func TestCreditCardBalanceForMonth(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	card := core.CreditCard{ID: "card-1", Name: "Visa", Limit: decimal.NewFromInt(5000), DueDay: 10, ClosingDay: 28}
	if err := svc.SaveCreditCard(ctx, card); err != nil {
		t.Fatalf("SaveCreditCard returned error: %v", err)
	}

	_, err := svc.CreateTransaction(ctx, core.TransactionDraft{
		Description:  "dinner",
		Amount:       decimal.NewFromInt(150),
		Type:         core.Expense,
		Date:         core.NewDate(2025, time.March, 10),
		CreditCardID: "card-1",
	}, 1)
	if err != nil {
		t.Fatalf("CreateTransaction returned error: %v", err)
	}

	// Day 10 is on or before closing day 28, so it bills in April.
	got, err := svc.CreditCardBalance(ctx, "card-1", core.YearMonth{Year: 2025, Month: time.April})
	if err != nil {
		t.Fatalf("CreditCardBalance returned error: %v", err)
	}
	if !got.Equal(decimal.NewFromInt(150)) {
		t.Errorf("CreditCardBalance = %s, want 150", got)
	}
}
