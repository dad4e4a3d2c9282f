package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"contas/internal/core"
	"contas/internal/ledger"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ledger.Store on a local SQLite file. Amounts
// are stored as decimal strings so no precision is lost round-tripping.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, default_limit, color, icon FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var limit string
		if err := rows.Scan(&c.ID, &c.Name, &limit, &c.Color, &c.Icon); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.DefaultLimit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("parse category limit %q: %w", limit, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, default_limit, color, icon)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     default_limit = excluded.default_limit,
		     color = excluded.color,
		     icon = excluded.icon`,
		c.ID, c.Name, c.DefaultLimit.String(), c.Color, c.Icon)
	if err != nil {
		return fmt.Errorf("upsert category: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLiteRepository) CreditCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, card_limit, due_day, closing_day, color FROM credit_cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query credit cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var c core.CreditCard
		var limit string
		if err := rows.Scan(&c.ID, &c.Name, &limit, &c.DueDay, &c.ClosingDay, &c.Color); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		if c.Limit, err = decimal.NewFromString(limit); err != nil {
			return nil, fmt.Errorf("parse card limit %q: %w", limit, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertCreditCard(ctx context.Context, c core.CreditCard) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO credit_cards (id, name, card_limit, due_day, closing_day, color)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		     name = excluded.name,
		     card_limit = excluded.card_limit,
		     due_day = excluded.due_day,
		     closing_day = excluded.closing_day,
		     color = excluded.color`,
		c.ID, c.Name, c.Limit.String(), c.DueDay, c.ClosingDay, c.Color)
	if err != nil {
		return fmt.Errorf("upsert credit card: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCreditCard(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credit_cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	return requireAffected(res)
}

const transactionColumns = `id, description, amount, type, tx_date, category_id,
	credit_card_id, installment_number, total_installments, installment_group_id, effective_month`

func (r *SQLiteRepository) Transactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions ORDER BY tx_date DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) TransactionsByMonth(ctx context.Context, month core.YearMonth) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE effective_month = ? ORDER BY tx_date DESC, id`, month.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions by month: %w", err)
	}
	defer rows.Close()
	return scanTransactions(rows)
}

func (r *SQLiteRepository) AppendTransactions(ctx context.Context, txs []core.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txs {
		_, err := stmt.ExecContext(ctx,
			t.ID, t.Description, t.Amount.String(), string(t.Type), t.Date.String(),
			t.CategoryID, t.CreditCardID, t.InstallmentNumber, t.TotalInstallments,
			t.InstallmentGroupID, t.EffectiveMonth.String())
		if err != nil {
			return fmt.Errorf("insert transaction %s: %w", t.ID, err)
		}
	}
	return dbTx.Commit()
}

// DeleteTransaction removes the transaction and, inside one database
// transaction, every sibling installment of the same group.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) ([]core.Transaction, error) {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbTx.Rollback()

	var group string
	err = dbTx.QueryRowContext(ctx,
		`SELECT installment_group_id FROM transactions WHERE id = ?`, id).Scan(&group)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledger.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup transaction: %w", err)
	}

	rows, err := dbTx.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE id = ? OR (? != '' AND installment_group_id = ?)`, id, group, group)
	if err != nil {
		return nil, fmt.Errorf("query installment group: %w", err)
	}
	removed, err := scanTransactions(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	_, err = dbTx.ExecContext(ctx,
		`DELETE FROM transactions
		 WHERE id = ? OR (? != '' AND installment_group_id = ?)`, id, group, group)
	if err != nil {
		return nil, fmt.Errorf("delete installment group: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit delete: %w", err)
	}
	return removed, nil
}

func (r *SQLiteRepository) Limits(ctx context.Context) ([]core.CategoryMonthlyLimit, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category_id, month, limit_amount FROM category_limits ORDER BY month, category_id`)
	if err != nil {
		return nil, fmt.Errorf("query limits: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryMonthlyLimit
	for rows.Next() {
		var l core.CategoryMonthlyLimit
		var month, amount string
		if err := rows.Scan(&l.CategoryID, &month, &amount); err != nil {
			return nil, fmt.Errorf("scan limit: %w", err)
		}
		if l.Month, err = core.ParseYearMonth(month); err != nil {
			return nil, fmt.Errorf("parse limit month %q: %w", month, err)
		}
		if l.Limit, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse limit amount %q: %w", amount, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertLimit(ctx context.Context, l core.CategoryMonthlyLimit) error {
	if err := l.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO category_limits (category_id, month, limit_amount)
		 VALUES (?, ?, ?)
		 ON CONFLICT (category_id, month) DO UPDATE SET
		     limit_amount = excluded.limit_amount`,
		l.CategoryID, l.Month.String(), l.Limit.String())
	if err != nil {
		return fmt.Errorf("upsert limit: %w", err)
	}
	return nil
}

// Seed installs the default categories when the table is empty.
func (r *SQLiteRepository) Seed(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, c := range ledger.DefaultCategories() {
		if err := r.UpsertCategory(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}

	slog.InfoContext(ctx, "Seeded default categories", "count", len(ledger.DefaultCategories()))
	return nil
}

func scanTransactions(rows *sql.Rows) ([]core.Transaction, error) {
	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var amount, txType, date, month string
		err := rows.Scan(&t.ID, &t.Description, &amount, &txType, &date, &t.CategoryID,
			&t.CreditCardID, &t.InstallmentNumber, &t.TotalInstallments,
			&t.InstallmentGroupID, &month)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		if t.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		t.Type = core.TransactionType(txType)
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		if t.EffectiveMonth, err = core.ParseYearMonth(month); err != nil {
			return nil, fmt.Errorf("parse effective month %q: %w", month, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
