package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors returned by Expense.Validate and the parse helpers.
var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDescription = errors.New("description must be between 1 and 500 characters")
	ErrMissingOccurredAt  = errors.New("occurred_at is required")
	ErrMissingOwner       = errors.New("owner id is required")
)

// MaxDescriptionLength is the longest description accepted for an expense.
const MaxDescriptionLength = 500

// Category classifies an expense. The set is closed.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryUtilities     Category = "UTILITIES"
	CategoryHealthcare    Category = "HEALTHCARE"
	CategoryShopping      Category = "SHOPPING"
	CategoryOther         Category = "OTHER"
)

// Categories returns every known category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryTransport,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryHealthcare,
		CategoryShopping,
		CategoryOther,
	}
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

// ParseAmount parses a positive monetary amount, rounded to two decimal places.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// Expense is a single dated, categorized transaction owned by one user.
type Expense struct {
	ID          string          `json:"id" yaml:"id"`
	OwnerID     string          `json:"owner_id" yaml:"owner_id"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount"`
	Category    Category        `json:"category" yaml:"category"`
	Description string          `json:"description" yaml:"description"`
	OccurredAt  time.Time       `json:"occurred_at" yaml:"occurred_at"`
	CreatedAt   time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt   *time.Time      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// Validate checks the invariants every stored expense must satisfy.
func (e *Expense) Validate() error {
	if e.OwnerID == "" {
		return ErrMissingOwner
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, e.Category)
	}
	if n := utf8.RuneCountInString(e.Description); n < 1 || n > MaxDescriptionLength {
		return ErrInvalidDescription
	}
	if e.OccurredAt.IsZero() {
		return ErrMissingOccurredAt
	}
	return nil
}

// ExpenseFilter controls which expenses are listed or exported.
// Start is inclusive and End exclusive; zero values leave that side open.
type ExpenseFilter struct {
	OwnerID  string    `json:"owner_id,omitempty"`
	Category Category  `json:"category,omitempty"`
	Start    time.Time `json:"start,omitempty"`
	End      time.Time `json:"end,omitempty"`
	Limit    int       `json:"limit,omitempty"`
	Offset   int       `json:"offset,omitempty"`
}

// Bucket is a labeled half-open sub-interval of a grouping query.
type Bucket struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GroupQuery asks a store for amount sums and counts over [Start, End).
// Without buckets the result is grouped by category alone; with buckets it is
// grouped by (bucket label, category).
type GroupQuery struct {
	OwnerID string
	Start   time.Time
	End     time.Time
	Buckets []Bucket
}

// Group is one row of a grouped-sum result.
type Group struct {
	Bucket   string
	Category Category
	Sum      decimal.Decimal
	Count    int64
}

// BudgetPeriod defines the time window for a budget.
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
)

// ParseBudgetPeriod validates a period name.
func ParseBudgetPeriod(s string) (BudgetPeriod, error) {
	switch p := BudgetPeriod(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly:
		return p, nil
	default:
		return "", fmt.Errorf("invalid budget period %q (expected daily, weekly or monthly)", s)
	}
}

// Budget defines a spending limit for a time period. An empty Category
// applies the limit to all spending of the owner.
type Budget struct {
	ID                string          `json:"id" yaml:"id"`
	OwnerID           string          `json:"owner_id" yaml:"owner_id"`
	Name              string          `json:"name" yaml:"name"`
	Limit             decimal.Decimal `json:"limit" yaml:"limit"`
	Period            BudgetPeriod    `json:"period" yaml:"period"`
	Category          Category        `json:"category,omitempty" yaml:"category,omitempty"`
	AlertThresholdPct float64         `json:"alert_threshold_pct" yaml:"alert_threshold_pct"`
	CreatedAt         time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" yaml:"updated_at"`
}
