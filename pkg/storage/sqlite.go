package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
// Amounts are stored as integer cents and instants as UTC unix milliseconds.
type SQLite struct {
	db *sql.DB
}

func sqliteDSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}

// NewSQLite opens or creates an SQLite database at the given path and
// migrates it to the latest schema.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLite{db: db}, nil
}

func toCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func fromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

// boundMillis rounds a window bound up to a whole millisecond. Stored instants
// are whole milliseconds, so the rounded bound selects the same rows.
func boundMillis(t time.Time) int64 {
	ms := t.Truncate(time.Millisecond)
	if ms.Before(t) {
		ms = ms.Add(time.Millisecond)
	}
	return ms.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

const expenseColumns = "id, owner_id, amount_cents, category, description, occurred_at, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (model.Expense, error) {
	var (
		e                     model.Expense
		cents                 int64
		occurredAt, createdAt int64
		updatedAt             sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.OwnerID, &cents, &e.Category, &e.Description,
		&occurredAt, &createdAt, &updatedAt); err != nil {
		return e, err
	}
	e.Amount = fromCents(cents)
	e.OccurredAt = fromMillis(occurredAt)
	e.CreatedAt = fromMillis(createdAt)
	if updatedAt.Valid {
		t := fromMillis(updatedAt.Int64)
		e.UpdatedAt = &t
	}
	return e, nil
}

func (s *SQLite) AddExpense(ctx context.Context, e *model.Expense) error {
	prepareExpense(e)
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, NULL)`,
		e.ID, e.OwnerID, toCents(e.Amount), e.Category, e.Description,
		toMillis(e.OccurredAt), toMillis(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *SQLite) GetExpense(ctx context.Context, ownerID, id string) (*model.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE owner_id = ? AND id = ?`, ownerID, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}
	return &e, nil
}

func (s *SQLite) UpdateExpense(ctx context.Context, e *model.Expense) error {
	e.Amount = e.Amount.Round(2)
	e.OccurredAt = e.OccurredAt.UTC().Truncate(time.Millisecond)
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)

	result, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET amount_cents = ?, category = ?, description = ?, occurred_at = ?, updated_at = ?
		 WHERE owner_id = ? AND id = ?`,
		toCents(e.Amount), e.Category, e.Description, toMillis(e.OccurredAt), toMillis(now),
		e.OwnerID, e.ID,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if err := expectAffected(result, "expense", e.ID); err != nil {
		return err
	}
	e.UpdatedAt = &now
	return nil
}

func (s *SQLite) DeleteExpense(ctx context.Context, ownerID, id string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return expectAffected(result, "expense", id)
}

func (s *SQLite) ListExpenses(ctx context.Context, filter model.ExpenseFilter) ([]model.Expense, error) {
	query := "SELECT " + expenseColumns + " FROM expenses"
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY occurred_at DESC, id"
	switch {
	case filter.Limit > 0:
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	case filter.Offset > 0:
		query += " LIMIT -1 OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (s *SQLite) GroupSum(ctx context.Context, q model.GroupQuery) ([]model.Group, error) {
	bucketExpr := "''"
	var args []any
	if len(q.Buckets) > 0 {
		var b strings.Builder
		b.WriteString("CASE")
		for _, bk := range q.Buckets {
			b.WriteString(" WHEN occurred_at >= ? AND occurred_at < ? THEN ?")
			args = append(args, boundMillis(bk.Start), boundMillis(bk.End), bk.Label)
		}
		b.WriteString(" ELSE '' END")
		bucketExpr = b.String()
	}

	query := fmt.Sprintf(`SELECT %s AS bucket, category, COALESCE(SUM(amount_cents), 0), COUNT(*)
		FROM expenses
		WHERE owner_id = ? AND occurred_at >= ? AND occurred_at < ?
		GROUP BY bucket, category
		ORDER BY bucket, category`, bucketExpr)
	args = append(args, q.OwnerID, boundMillis(q.Start), boundMillis(q.End))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("group sum: %w", err)
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var (
			g     model.Group
			cents int64
		)
		if err := rows.Scan(&g.Bucket, &g.Category, &cents, &g.Count); err != nil {
			return nil, fmt.Errorf("scan group row: %w", err)
		}
		g.Sum = fromCents(cents)
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

const budgetColumns = "id, owner_id, name, limit_cents, period, category, alert_threshold_pct, created_at, updated_at"

func scanBudget(row rowScanner) (model.Budget, error) {
	var (
		b                    model.Budget
		cents                int64
		createdAt, updatedAt int64
	)
	if err := row.Scan(&b.ID, &b.OwnerID, &b.Name, &cents, &b.Period, &b.Category,
		&b.AlertThresholdPct, &createdAt, &updatedAt); err != nil {
		return b, err
	}
	b.Limit = fromCents(cents)
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	return b, nil
}

func (s *SQLite) SetBudget(ctx context.Context, budget *model.Budget) error {
	if err := prepareBudget(budget); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (`+budgetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id, name) DO UPDATE SET
		   limit_cents = excluded.limit_cents,
		   period = excluded.period,
		   category = excluded.category,
		   alert_threshold_pct = excluded.alert_threshold_pct,
		   updated_at = excluded.updated_at`,
		budget.ID, budget.OwnerID, budget.Name, toCents(budget.Limit), budget.Period,
		budget.Category, budget.AlertThresholdPct,
		toMillis(budget.CreatedAt), toMillis(budget.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (s *SQLite) GetBudget(ctx context.Context, ownerID, name string) (*model.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+budgetColumns+` FROM budgets WHERE owner_id = ? AND name = ?`, ownerID, name)
	b, err := scanBudget(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("budget %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

func (s *SQLite) ListBudgets(ctx context.Context, ownerID string) ([]model.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets`
	var args []any
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY owner_id, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *SQLite) DeleteBudget(ctx context.Context, ownerID, name string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE owner_id = ? AND name = ?`, ownerID, name)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return expectAffected(result, "budget", name)
}

func (s *SQLite) ClaimAlert(ctx context.Context, ownerID, name string, periodStart time.Time, rank int) (bool, error) {
	ps := toMillis(periodStart)
	result, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET alert_period_start = ?, alert_rank = ?
		 WHERE owner_id = ? AND name = ?
		   AND (alert_period_start IS NULL OR alert_period_start <> ? OR alert_rank < ?)`,
		ps, rank, ownerID, name, ps, rank,
	)
	if err != nil {
		return false, fmt.Errorf("claim alert: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func expectAffected(result sql.Result, kind, key string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
	}
	return nil
}

// buildWhereClause constructs a SQL WHERE clause from an ExpenseFilter.
func buildWhereClause(filter model.ExpenseFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.OwnerID != "" {
		conditions = append(conditions, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, filter.Category)
	}
	if !filter.Start.IsZero() {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, boundMillis(filter.Start))
	}
	if !filter.End.IsZero() {
		conditions = append(conditions, "occurred_at < ?")
		args = append(args, boundMillis(filter.End))
	}

	return strings.Join(conditions, " AND "), args
}
