package alerts

import (
	"context"

	"github.com/shopspring/decimal"
)

// AlertLevel indicates the severity of a budget alert.
type AlertLevel string

const (
	AlertWarning  AlertLevel = "warning"  // Spending passed the budget's alert threshold
	AlertCritical AlertLevel = "critical" // At or above 95% of the limit
	AlertExceeded AlertLevel = "exceeded" // Limit reached or passed
)

// Rank orders levels by severity; unknown levels rank lowest.
func (l AlertLevel) Rank() int {
	switch l {
	case AlertWarning:
		return 1
	case AlertCritical:
		return 2
	case AlertExceeded:
		return 3
	default:
		return 0
	}
}

// Alert represents a budget threshold notification.
type Alert struct {
	Level        AlertLevel      `json:"level"`
	OwnerID      string          `json:"owner_id"`
	BudgetName   string          `json:"budget_name"`
	Category     string          `json:"category,omitempty"`
	Limit        decimal.Decimal `json:"limit"`
	Spent        decimal.Decimal `json:"spent"`
	UsedPct      float64         `json:"used_pct"`
	ThresholdPct float64         `json:"threshold_pct"`
	Period       string          `json:"period"`
	PeriodStart  string          `json:"period_start"`
	Message      string          `json:"message"`
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
