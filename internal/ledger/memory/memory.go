package memory

import (
	"context"
	"sync"

	"contas/internal/core"
	"contas/internal/ledger"
)

// Store keeps the whole ledger in process memory. It backs tests and the
// DATA_BACKEND=memory mode, where data lives only as long as the process.
type Store struct {
	mu           sync.Mutex
	categories   []core.Category
	cards        []core.CreditCard
	transactions []core.Transaction
	limits       []core.CategoryMonthlyLimit
}

func New() *Store {
	return &Store{}
}

func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.categories...), nil
}

func (s *Store) UpsertCategory(_ context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.categories {
		if existing.ID == c.ID {
			s.categories[i] = c
			return nil
		}
	}
	s.categories = append(s.categories, c)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.categories {
		if c.ID == id {
			s.categories = append(s.categories[:i], s.categories[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) CreditCards(_ context.Context) ([]core.CreditCard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CreditCard(nil), s.cards...), nil
}

func (s *Store) UpsertCreditCard(_ context.Context, c core.CreditCard) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.cards {
		if existing.ID == c.ID {
			s.cards[i] = c
			return nil
		}
	}
	s.cards = append(s.cards, c)
	return nil
}

func (s *Store) DeleteCreditCard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.cards {
		if c.ID == id {
			s.cards = append(s.cards[:i], s.cards[i+1:]...)
			return nil
		}
	}
	return ledger.ErrNotFound
}

func (s *Store) Transactions(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.transactions...), nil
}

func (s *Store) TransactionsByMonth(_ context.Context, month core.YearMonth) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.EffectiveMonth == month {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) AppendTransactions(_ context.Context, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, txs...)
	return nil
}

// DeleteTransaction removes the transaction and every sibling installment
// from the same group, returning what was removed.
func (s *Store) DeleteTransaction(_ context.Context, id string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *core.Transaction
	for i := range s.transactions {
		if s.transactions[i].ID == id {
			target = &s.transactions[i]
			break
		}
	}
	if target == nil {
		return nil, ledger.ErrNotFound
	}

	group := target.InstallmentGroupID
	var removed, kept []core.Transaction
	for _, t := range s.transactions {
		if t.ID == id || (group != "" && t.InstallmentGroupID == group) {
			removed = append(removed, t)
			continue
		}
		kept = append(kept, t)
	}
	s.transactions = kept
	return removed, nil
}

func (s *Store) Limits(_ context.Context) ([]core.CategoryMonthlyLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CategoryMonthlyLimit(nil), s.limits...), nil
}

func (s *Store) UpsertLimit(_ context.Context, l core.CategoryMonthlyLimit) error {
	if err := l.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.limits {
		if existing.CategoryID == l.CategoryID && existing.Month == l.Month {
			s.limits[i] = l
			return nil
		}
	}
	s.limits = append(s.limits, l)
	return nil
}

// Seed installs the default categories when the store holds none.
func (s *Store) Seed(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.categories) > 0 {
		return nil
	}
	s.categories = ledger.DefaultCategories()
	return nil
}

func (s *Store) Close() error { return nil }
