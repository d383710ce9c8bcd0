package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"budgetbot/internal/core"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const timeLayout = time.RFC3339

// BudgetEntry is one month's budget row.
type BudgetEntry struct {
	Month  string
	Amount float64
}

// SQLiteRepository is the durable store behind every bot operation: budgets,
// rules, expenses, the FX rate table and the rollover bookkeeping.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at dbPath and runs
// migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
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

// ---- Budgets ----

// UpsertBudget sets the budget for a user's month, replacing any prior value.
func (r *SQLiteRepository) UpsertBudget(ctx context.Context, userID int64, month string, amount float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets(user_id, month, amount) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, month) DO UPDATE SET amount=excluded.amount`,
		userID, month, amount)
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}
	return nil
}

// GetBudget returns the budget for a user's month, or nil when none is set.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID int64, month string) (*float64, error) {
	var amount float64
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM budgets WHERE user_id=? AND month=?`,
		userID, month).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &amount, nil
}

// ListBudgets returns all budgets for a user, oldest month first.
func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]BudgetEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT month, amount FROM budgets WHERE user_id=? ORDER BY month ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var entries []BudgetEntry
	for rows.Next() {
		var e BudgetEntry
		if err := rows.Scan(&e.Month, &e.Amount); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ---- Rules ----

// AddRule inserts a recurring spending rule and returns its id.
func (r *SQLiteRepository) AddRule(ctx context.Context, rule core.Rule) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rules(user_id, category, name, period, amount) VALUES (?, ?, ?, ?, ?)`,
		rule.UserID, rule.Category, rule.Name, string(rule.Period), rule.Amount)
	if err != nil {
		return 0, fmt.Errorf("add rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("rule id: %w", err)
	}
	return id, nil
}

// ListRules returns a user's rules ordered by category, period, name.
func (r *SQLiteRepository) ListRules(ctx context.Context, userID int64) ([]core.Rule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, name, period, amount
		 FROM rules WHERE user_id=? ORDER BY category, period, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var rules []core.Rule
	for rows.Next() {
		var rule core.Rule
		var period string
		if err := rows.Scan(&rule.ID, &rule.UserID, &rule.Category, &rule.Name, &period, &rule.Amount); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rule.Period = core.Period(period)
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// DeleteRule removes a user's rule by id. Returns false when no row matched.
func (r *SQLiteRepository) DeleteRule(ctx context.Context, userID, ruleID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM rules WHERE user_id=? AND id=?`, userID, ruleID)
	if err != nil {
		return false, fmt.Errorf("delete rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete rule rows affected: %w", err)
	}
	return n > 0, nil
}

// ---- Expenses ----

// InsertExpense stores a logged expense and returns its id.
func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (int64, error) {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses(user_id, month, category, name, base_amount,
		                      currency, original_amount, fx_rate, fx_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Month, e.Category, e.Name, e.BaseAmount,
		e.Currency, e.OriginalAmount, e.FXRate, e.FXDate, createdAt.UTC().Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense id: %w", err)
	}
	return id, nil
}

// GetExpense fetches one expense by id.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, category, name, base_amount,
		        currency, original_amount, fx_rate, fx_date, created_at
		 FROM expenses WHERE id=?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListExpenses returns a user's expenses for a month, oldest first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64, month string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, category, name, base_amount,
		        currency, original_amount, fx_rate, fx_date, created_at
		 FROM expenses WHERE user_id=? AND month=? ORDER BY created_at ASC, id ASC`,
		userID, month)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// SpentByCategory aggregates a user's month of spending in the base currency.
func (r *SQLiteRepository) SpentByCategory(ctx context.Context, userID int64, month string) (map[string]float64, float64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(base_amount) FROM expenses
		 WHERE user_id=? AND month=? GROUP BY category`,
		userID, month)
	if err != nil {
		return nil, 0, fmt.Errorf("spent by category: %w", err)
	}
	defer rows.Close()

	spent := make(map[string]float64)
	total := 0.0
	for rows.Next() {
		var category string
		var sum float64
		if err := rows.Scan(&category, &sum); err != nil {
			return nil, 0, fmt.Errorf("scan spend: %w", err)
		}
		spent[category] = sum
		total += sum
	}
	return spent, total, rows.Err()
}

// DeleteLastExpense removes and returns the most recent expense of the month.
// Returns ErrNotFound when the month has no expenses.
func (r *SQLiteRepository) DeleteLastExpense(ctx context.Context, userID int64, month string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, month, category, name, base_amount,
		        currency, original_amount, fx_rate, fx_date, created_at
		 FROM expenses WHERE user_id=? AND month=? ORDER BY id DESC LIMIT 1`,
		userID, month)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("find last expense: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id=?`, e.ID); err != nil {
		return core.Expense{}, fmt.Errorf("delete last expense: %w", err)
	}
	return e, nil
}

// ResetMonthExpenses deletes all of a user's expenses for the month and
// returns how many were removed.
func (r *SQLiteRepository) ResetMonthExpenses(ctx context.Context, userID int64, month string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE user_id=? AND month=?`, userID, month)
	if err != nil {
		return 0, fmt.Errorf("reset month expenses: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset month rows affected: %w", err)
	}
	return n, nil
}

// ResetAllUserData removes every budget, rule and expense owned by the user.
func (r *SQLiteRepository) ResetAllUserData(ctx context.Context, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM budgets WHERE user_id=?`,
		`DELETE FROM rules WHERE user_id=?`,
		`DELETE FROM expenses WHERE user_id=?`,
		`DELETE FROM rule_snapshots WHERE user_id=?`,
		`DELETE FROM user_state WHERE user_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return fmt.Errorf("reset user data: %w", err)
		}
	}
	return tx.Commit()
}

// MarkExpenseSynced flags an expense as mirrored to the external ledger.
func (r *SQLiteRepository) MarkExpenseSynced(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE expenses SET synced=1 WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("mark expense synced: %w", err)
	}
	return nil
}

// ListUnsyncedExpenses returns up to limit expenses not yet mirrored to the
// external ledger, oldest first. Used as a backup sweep when messages are lost.
func (r *SQLiteRepository) ListUnsyncedExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, month, category, name, base_amount,
		        currency, original_amount, fx_rate, fx_date, created_at
		 FROM expenses WHERE synced=0 ORDER BY id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// ---- FX rates (satisfies fx.RateStore) ----

// GetRate looks up a persisted rate for (day, from, to).
func (r *SQLiteRepository) GetRate(ctx context.Context, day, from, to string) (float64, bool, error) {
	var rate float64
	err := r.db.QueryRowContext(ctx,
		`SELECT rate FROM fx_rates WHERE fx_date=? AND from_ccy=? AND to_ccy=?`,
		day, from, to).Scan(&rate)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get rate: %w", err)
	}
	return rate, true, nil
}

// PutRate upserts a rate row; the last write for a day wins.
func (r *SQLiteRepository) PutRate(ctx context.Context, day, from, to string, rate float64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fx_rates(fx_date, from_ccy, to_ccy, rate) VALUES (?, ?, ?, ?)`,
		day, from, to, rate)
	if err != nil {
		return fmt.Errorf("put rate: %w", err)
	}
	return nil
}

// ---- Rollover bookkeeping ----

// LastSeenMonth returns the month the user was last active in, or "" for a
// user never seen before.
func (r *SQLiteRepository) LastSeenMonth(ctx context.Context, userID int64) (string, error) {
	var month sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT last_seen_month FROM user_state WHERE user_id=?`, userID).Scan(&month)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("last seen month: %w", err)
	}
	return month.String, nil
}

// SetLastSeenMonth records the month the user was last active in.
func (r *SQLiteRepository) SetLastSeenMonth(ctx context.Context, userID int64, month string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_state(user_id, last_seen_month) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET last_seen_month=excluded.last_seen_month`,
		userID, month)
	if err != nil {
		return fmt.Errorf("set last seen month: %w", err)
	}
	return nil
}

// SnapshotRules copies the user's current rules into the snapshot table for
// the given month, replacing an earlier snapshot for the same month.
func (r *SQLiteRepository) SnapshotRules(ctx context.Context, userID int64, month string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rule_snapshots(user_id, month, category, name, period, amount, created_at)
		 SELECT user_id, ?, category, name, period, amount, ?
		 FROM rules WHERE user_id=?`,
		month, time.Now().UTC().Format(timeLayout), userID)
	if err != nil {
		return 0, fmt.Errorf("snapshot rules: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("snapshot rows affected: %w", err)
	}
	return n, nil
}

// ListKnownUsers returns every user id that has stored state, for the
// scheduled rollover sweep.
func (r *SQLiteRepository) ListKnownUsers(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM user_state ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("list known users: %w", err)
	}
	defer rows.Close()

	var users []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var createdAt string
	err := row.Scan(&e.ID, &e.UserID, &e.Month, &e.Category, &e.Name, &e.BaseAmount,
		&e.Currency, &e.OriginalAmount, &e.FXRate, &e.FXDate, &createdAt)
	if err != nil {
		return core.Expense{}, err
	}
	if t, perr := time.Parse(timeLayout, createdAt); perr == nil {
		e.CreatedAt = t
	}
	return e, nil
}
