package core

import (
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEngine computes month-by-month running balances over the full
// transaction history. Nothing is persisted: every read folds prior
// months' net flow forward from a configured epoch, and the per-month
// results are memoized so repeated reads stay cheap. Callers must
// Invalidate on every write that changes a month's transactions.
type BalanceEngine struct {
	epoch YearMonth // earliest month that contributes to running balances

	mu   sync.Mutex
	memo map[YearMonth]decimal.Decimal // running balance through end of month
}

// NewBalanceEngine creates an engine whose running balances start at
// January of epochYear. Months before the epoch contribute zero.
func NewBalanceEngine(epochYear int) *BalanceEngine {
	return &BalanceEngine{
		epoch: YearMonth{Year: epochYear, Month: time.January},
		memo:  make(map[YearMonth]decimal.Decimal),
	}
}

type monthFlow struct {
	income   decimal.Decimal
	expenses decimal.Decimal
}

func flowsByMonth(transactions []Transaction) map[YearMonth]monthFlow {
	flows := make(map[YearMonth]monthFlow)
	for _, t := range transactions {
		f := flows[t.EffectiveMonth]
		switch t.Type {
		case Income:
			f.income = f.income.Add(t.Amount)
		case Expense:
			f.expenses = f.expenses.Add(t.Amount)
		}
		flows[t.EffectiveMonth] = f
	}
	return flows
}

// MonthlyBalance aggregates the given month's transactions and folds the
// prior months' net flow into the running balance. Expenses without a
// category still count toward the month's total but are absent from the
// per-category map.
func (e *BalanceEngine) MonthlyBalance(transactions []Transaction, month YearMonth) MonthlyBalance {
	flows := flowsByMonth(transactions)

	categoryExpenses := make(map[string]decimal.Decimal)
	for _, t := range transactions {
		if t.EffectiveMonth != month || t.Type != Expense || t.CategoryID == "" {
			continue
		}
		categoryExpenses[t.CategoryID] = categoryExpenses[t.CategoryID].Add(t.Amount)
	}

	f := flows[month]
	previous := e.runningBalance(flows, month.Prev())

	return MonthlyBalance{
		Month:            month,
		Income:           f.income,
		Expenses:         f.expenses,
		PreviousBalance:  previous,
		Balance:          previous.Add(f.income).Sub(f.expenses),
		CategoryExpenses: categoryExpenses,
	}
}

// runningBalance returns the balance accumulated from the epoch through
// the end of the given month. The fold is iterative, so depth is bounded
// by the configured epoch rather than by recursion limits.
func (e *BalanceEngine) runningBalance(flows map[YearMonth]monthFlow, through YearMonth) decimal.Decimal {
	if through.Before(e.epoch) {
		return decimal.Zero
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if balance, ok := e.memo[through]; ok {
		return balance
	}

	balance := decimal.Zero
	for m := e.epoch; !through.Before(m); m = m.Next() {
		if memoized, ok := e.memo[m]; ok {
			balance = memoized
			continue
		}
		f := flows[m]
		balance = balance.Add(f.income).Sub(f.expenses)
		e.memo[m] = balance
	}
	return balance
}

// Invalidate drops memoized balances for the given month and every later
// one. A write affecting month m changes the running balance of m and of
// everything after it, so all of those entries become stale at once.
func (e *BalanceEngine) Invalidate(from YearMonth) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for m := range e.memo {
		if !m.Before(from) {
			delete(e.memo, m)
		}
	}
}

// CreditCardBalance sums the expenses charged to one card on one bill.
func CreditCardBalance(transactions []Transaction, cardID string, month YearMonth) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if t.CreditCardID == cardID && t.EffectiveMonth == month && t.Type == Expense {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// MonthTransactions returns the month's transactions, newest first.
func MonthTransactions(transactions []Transaction, month YearMonth) []Transaction {
	var out []Transaction
	for _, t := range transactions {
		if t.EffectiveMonth == month {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Time.Before(out[i].Date.Time)
	})
	return out
}
