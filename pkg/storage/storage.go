package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Storage defines the persistence layer for expenses and budgets.
type Storage interface {
	// AddExpense validates and persists a new expense, assigning ID and CreatedAt when empty.
	AddExpense(ctx context.Context, e *model.Expense) error

	// GetExpense retrieves one expense of an owner.
	GetExpense(ctx context.Context, ownerID, id string) (*model.Expense, error)

	// UpdateExpense replaces the mutable fields of an existing expense.
	UpdateExpense(ctx context.Context, e *model.Expense) error

	// DeleteExpense removes one expense of an owner.
	DeleteExpense(ctx context.Context, ownerID, id string) error

	// ListExpenses returns expenses matching the filter, newest first.
	ListExpenses(ctx context.Context, filter model.ExpenseFilter) ([]model.Expense, error)

	// GroupSum sums amounts and counts expenses over [q.Start, q.End), grouped
	// by category, or by bucket and category when q.Buckets is set.
	GroupSum(ctx context.Context, q model.GroupQuery) ([]model.Group, error)

	// SetBudget creates or updates a budget, keyed by owner and name.
	SetBudget(ctx context.Context, budget *model.Budget) error

	// GetBudget retrieves a budget by owner and name.
	GetBudget(ctx context.Context, ownerID, name string) (*model.Budget, error)

	// ListBudgets returns the budgets of an owner, or of every owner when ownerID is empty.
	ListBudgets(ctx context.Context, ownerID string) ([]model.Budget, error)

	// DeleteBudget removes a budget by owner and name.
	DeleteBudget(ctx context.Context, ownerID, name string) error

	// ClaimAlert records an alert of the given rank for the budget period
	// starting at periodStart. It returns false when the budget does not exist
	// or an alert of equal or higher rank was already claimed for that period.
	ClaimAlert(ctx context.Context, ownerID, name string, periodStart time.Time, rank int) (bool, error)

	// Close releases resources.
	Close() error
}

var (
	_ Storage = (*SQLite)(nil)
	_ Storage = (*Memory)(nil)
)
