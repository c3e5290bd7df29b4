package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/alerts"
	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/report"
	"github.com/shopspring/decimal"
)

// CriticalPct is the usage percentage at which an alert becomes critical.
const CriticalPct = 95.0

// Lister provides the budgets to evaluate.
type Lister interface {
	ListBudgets(ctx context.Context, ownerID string) ([]model.Budget, error)
}

// AlertLedger remembers the highest alert level sent per budget period.
// Stores that implement it keep that state across processes.
type AlertLedger interface {
	ClaimAlert(ctx context.Context, ownerID, name string, periodStart time.Time, rank int) (bool, error)
}

// memoryLedger is used when the budget source keeps no alert state.
type memoryLedger struct {
	mu   sync.Mutex
	sent map[string]int
}

func (l *memoryLedger) ClaimAlert(_ context.Context, ownerID, name string, periodStart time.Time, rank int) (bool, error) {
	key := ownerID + "|" + name + "|" + periodStart.Format(time.RFC3339)

	l.mu.Lock()
	defer l.mu.Unlock()
	if prev, ok := l.sent[key]; ok && prev >= rank {
		return false, nil
	}
	l.sent[key] = rank
	return true, nil
}

// Status is a budget's standing in its current period.
type Status struct {
	Budget      model.Budget      `json:"budget" yaml:"budget"`
	PeriodStart time.Time         `json:"period_start" yaml:"period_start"`
	PeriodEnd   time.Time         `json:"period_end" yaml:"period_end"`
	Spent       decimal.Decimal   `json:"spent" yaml:"spent"`
	Remaining   decimal.Decimal   `json:"remaining" yaml:"remaining"`
	UsedPct     float64           `json:"used_pct" yaml:"used_pct"`
	Level       alerts.AlertLevel `json:"level,omitempty" yaml:"level,omitempty"`
}

// Manager evaluates budgets against reported spending and dispatches alerts.
type Manager struct {
	budgets   Lister
	reporter  *report.Reporter
	notifiers []alerts.Notifier
	ledger    AlertLedger
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used to pick the current period.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a budget manager.
func NewManager(budgets Lister, reporter *report.Reporter, notifiers []alerts.Notifier, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		budgets:   budgets,
		reporter:  reporter,
		notifiers: notifiers,
		logger:    logger,
		now:       time.Now,
	}
	if l, ok := budgets.(AlertLedger); ok {
		m.ledger = l
	} else {
		m.ledger = &memoryLedger{sent: make(map[string]int)}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LevelFor maps a usage percentage to an alert level. Below the threshold
// the level is empty.
func LevelFor(usedPct, thresholdPct float64) alerts.AlertLevel {
	switch {
	case usedPct >= 100:
		return alerts.AlertExceeded
	case usedPct >= CriticalPct:
		return alerts.AlertCritical
	case usedPct >= thresholdPct:
		return alerts.AlertWarning
	default:
		return ""
	}
}

// Status reports every budget of the owner; an empty owner means all owners.
func (m *Manager) Status(ctx context.Context, ownerID string) ([]Status, error) {
	budgets, err := m.budgets.ListBudgets(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	now := m.now()
	statuses := make([]Status, 0, len(budgets))
	for _, b := range budgets {
		st, err := m.evaluate(ctx, b, now)
		if err != nil {
			return nil, fmt.Errorf("evaluate budget %q: %w", b.Name, err)
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (m *Manager) evaluate(ctx context.Context, b model.Budget, now time.Time) (Status, error) {
	w, err := m.reporter.Resolver().ForPeriod(b.Period, now)
	if err != nil {
		return Status{}, err
	}
	rep, err := m.reporter.Compute(ctx, b.OwnerID, w)
	if err != nil {
		return Status{}, err
	}

	spent := rep.TotalAmount
	if b.Category != "" {
		spent = decimal.Zero
		if v, ok := rep.Categories[b.Category]; ok {
			spent = v
		}
	}

	st := Status{
		Budget:      b,
		PeriodStart: w.Start,
		PeriodEnd:   w.End,
		Spent:       spent,
		Remaining:   b.Limit.Sub(spent),
	}
	if b.Limit.IsPositive() {
		st.UsedPct = spent.Div(b.Limit).Mul(decimal.NewFromInt(100)).InexactFloat64()
	}
	st.Level = LevelFor(st.UsedPct, b.AlertThresholdPct)
	return st, nil
}

// Check evaluates the owner's budgets and notifies for every budget at or
// above its threshold. Each level is sent once per budget period, across
// processes when the ledger is persistent; a later escalation is sent again.
// It returns the alerts that were dispatched.
func (m *Manager) Check(ctx context.Context, ownerID string) ([]alerts.Alert, error) {
	statuses, err := m.Status(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var dispatched []alerts.Alert
	for _, st := range statuses {
		if st.Level == "" {
			continue
		}
		claimed, err := m.ledger.ClaimAlert(ctx, st.Budget.OwnerID, st.Budget.Name, st.PeriodStart, st.Level.Rank())
		if err != nil {
			return dispatched, fmt.Errorf("record alert for budget %q: %w", st.Budget.Name, err)
		}
		if !claimed {
			continue
		}
		alert := newAlert(st)

		m.logger.Warn("budget threshold crossed",
			"owner", st.Budget.OwnerID,
			"budget", st.Budget.Name,
			"level", st.Level,
			"pct", st.UsedPct,
			"spent", st.Spent.String(),
			"limit", st.Budget.Limit.String(),
		)

		for _, notifier := range m.notifiers {
			if err := notifier.Send(ctx, alert); err != nil {
				m.logger.Error("send alert failed",
					"notifier", notifier.Name(),
					"budget", st.Budget.Name,
					"error", err,
				)
			}
		}
		dispatched = append(dispatched, alert)
	}
	return dispatched, nil
}

// CheckAll runs Check across every owner.
func (m *Manager) CheckAll(ctx context.Context) ([]alerts.Alert, error) {
	return m.Check(ctx, "")
}

func newAlert(st Status) alerts.Alert {
	b := st.Budget
	return alerts.Alert{
		Level:        st.Level,
		OwnerID:      b.OwnerID,
		BudgetName:   b.Name,
		Category:     string(b.Category),
		Limit:        b.Limit,
		Spent:        st.Spent,
		UsedPct:      st.UsedPct,
		ThresholdPct: b.AlertThresholdPct,
		Period:       string(b.Period),
		PeriodStart:  st.PeriodStart.Format(model.DateLayout),
		Message: fmt.Sprintf("Budget %q at %.1f%% (%s / %s)",
			b.Name, st.UsedPct, st.Spent.StringFixed(2), b.Limit.StringFixed(2)),
	}
}
