package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/shopspring/decimal"
)

// Memory is an in-process Storage. Data is lost when the process exits.
type Memory struct {
	mu       sync.RWMutex
	expenses map[string]model.Expense
	budgets  map[string]model.Budget
	claims   map[string]alertClaim
}

type alertClaim struct {
	periodStart time.Time
	rank        int
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		expenses: make(map[string]model.Expense),
		budgets:  make(map[string]model.Budget),
		claims:   make(map[string]alertClaim),
	}
}

func budgetKey(ownerID, name string) string {
	return ownerID + "\x00" + name
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func (m *Memory) AddExpense(_ context.Context, e *model.Expense) error {
	prepareExpense(e)
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.expenses[e.ID]; exists {
		return fmt.Errorf("insert expense: duplicate id %q", e.ID)
	}
	m.expenses[e.ID] = *e
	return nil
}

func (m *Memory) GetExpense(_ context.Context, ownerID, id string) (*model.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return nil, fmt.Errorf("expense %q: %w", id, ErrNotFound)
	}
	return &e, nil
}

func (m *Memory) UpdateExpense(_ context.Context, e *model.Expense) error {
	e.Amount = e.Amount.Round(2)
	if err := e.Validate(); err != nil {
		return fmt.Errorf("validate expense: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.expenses[e.ID]
	if !ok || cur.OwnerID != e.OwnerID {
		return fmt.Errorf("expense %q: %w", e.ID, ErrNotFound)
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	cur.Amount = e.Amount
	cur.Category = e.Category
	cur.Description = e.Description
	cur.OccurredAt = e.OccurredAt.UTC().Truncate(time.Millisecond)
	cur.UpdatedAt = &now
	m.expenses[e.ID] = cur
	e.UpdatedAt = &now
	return nil
}

func (m *Memory) DeleteExpense(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.expenses[id]
	if !ok || e.OwnerID != ownerID {
		return fmt.Errorf("expense %q: %w", id, ErrNotFound)
	}
	delete(m.expenses, id)
	return nil
}

func (m *Memory) ListExpenses(_ context.Context, filter model.ExpenseFilter) ([]model.Expense, error) {
	m.mu.RLock()
	var out []model.Expense
	for _, e := range m.expenses {
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		if !filter.Start.IsZero() && e.OccurredAt.Before(filter.Start) {
			continue
		}
		if !filter.End.IsZero() && !e.OccurredAt.Before(filter.End) {
			continue
		}
		out = append(out, e)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.After(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *Memory) GroupSum(_ context.Context, q model.GroupQuery) ([]model.Group, error) {
	type key struct {
		bucket   string
		category model.Category
	}
	totals := make(map[key]*model.Group)

	m.mu.RLock()
	for _, e := range m.expenses {
		if e.OwnerID != q.OwnerID || !inRange(e.OccurredAt, q.Start, q.End) {
			continue
		}
		var bucket string
		for _, b := range q.Buckets {
			if inRange(e.OccurredAt, b.Start, b.End) {
				bucket = b.Label
				break
			}
		}
		k := key{bucket: bucket, category: e.Category}
		g, ok := totals[k]
		if !ok {
			g = &model.Group{Bucket: bucket, Category: e.Category, Sum: decimal.Zero}
			totals[k] = g
		}
		g.Sum = g.Sum.Add(e.Amount)
		g.Count++
	}
	m.mu.RUnlock()

	groups := make([]model.Group, 0, len(totals))
	for _, g := range totals {
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Bucket != groups[j].Bucket {
			return groups[i].Bucket < groups[j].Bucket
		}
		return groups[i].Category < groups[j].Category
	})
	return groups, nil
}

func (m *Memory) SetBudget(_ context.Context, budget *model.Budget) error {
	if err := prepareBudget(budget); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := budgetKey(budget.OwnerID, budget.Name)
	if cur, ok := m.budgets[k]; ok {
		budget.ID = cur.ID
		budget.CreatedAt = cur.CreatedAt
	}
	m.budgets[k] = *budget
	return nil
}

func (m *Memory) GetBudget(_ context.Context, ownerID, name string) (*model.Budget, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.budgets[budgetKey(ownerID, name)]
	if !ok {
		return nil, fmt.Errorf("budget %q: %w", name, ErrNotFound)
	}
	return &b, nil
}

func (m *Memory) ListBudgets(_ context.Context, ownerID string) ([]model.Budget, error) {
	m.mu.RLock()
	var out []model.Budget
	for _, b := range m.budgets {
		if ownerID == "" || b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].OwnerID != out[j].OwnerID {
			return out[i].OwnerID < out[j].OwnerID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *Memory) DeleteBudget(_ context.Context, ownerID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := budgetKey(ownerID, name)
	if _, ok := m.budgets[k]; !ok {
		return fmt.Errorf("budget %q: %w", name, ErrNotFound)
	}
	delete(m.budgets, k)
	delete(m.claims, k)
	return nil
}

func (m *Memory) ClaimAlert(_ context.Context, ownerID, name string, periodStart time.Time, rank int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := budgetKey(ownerID, name)
	if _, ok := m.budgets[k]; !ok {
		return false, nil
	}
	ps := periodStart.Truncate(time.Millisecond)
	if cur, ok := m.claims[k]; ok && cur.periodStart.Equal(ps) && cur.rank >= rank {
		return false, nil
	}
	m.claims[k] = alertClaim{periodStart: ps, rank: rank}
	return true, nil
}

func (m *Memory) Close() error {
	return nil
}
