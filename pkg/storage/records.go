package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
)

// DefaultAlertThresholdPct is applied to budgets created without a threshold.
const DefaultAlertThresholdPct = 80.0

// prepareExpense fills generated fields and normalizes values to what the
// database can represent: whole cents and millisecond instants.
func prepareExpense(e *model.Expense) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.Amount = e.Amount.Round(2)
	e.OccurredAt = e.OccurredAt.UTC().Truncate(time.Millisecond)
	e.CreatedAt = e.CreatedAt.UTC().Truncate(time.Millisecond)
}

func prepareBudget(b *model.Budget) error {
	if b.OwnerID == "" {
		return model.ErrMissingOwner
	}
	if b.Name == "" {
		return fmt.Errorf("budget name is required")
	}
	b.Limit = b.Limit.Round(2)
	if !b.Limit.IsPositive() {
		return fmt.Errorf("budget limit: %w", model.ErrInvalidAmount)
	}
	if _, err := model.ParseBudgetPeriod(string(b.Period)); err != nil {
		return err
	}
	if b.Category != "" && !b.Category.Valid() {
		return fmt.Errorf("%w: %q", model.ErrInvalidCategory, b.Category)
	}
	if b.AlertThresholdPct <= 0 {
		b.AlertThresholdPct = DefaultAlertThresholdPct
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.CreatedAt = b.CreatedAt.UTC().Truncate(time.Millisecond)
	b.UpdatedAt = now
	return nil
}
