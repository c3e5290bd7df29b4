package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactory builds a fresh, empty store for one test.
type storeFactory func(t *testing.T) storage.Storage

func expense(owner string, amount string, cat model.Category, at time.Time) *model.Expense {
	return &model.Expense{
		OwnerID:     owner,
		Amount:      decimal.RequireFromString(amount),
		Category:    cat,
		Description: string(cat) + " expense",
		OccurredAt:  at,
	}
}

func runStoreTests(t *testing.T, newStore storeFactory) {
	t.Run("AddAndGetExpense", func(t *testing.T) { testAddAndGetExpense(t, newStore(t)) })
	t.Run("AddExpenseRejectsInvalid", func(t *testing.T) { testAddExpenseRejectsInvalid(t, newStore(t)) })
	t.Run("UpdateExpense", func(t *testing.T) { testUpdateExpense(t, newStore(t)) })
	t.Run("DeleteExpense", func(t *testing.T) { testDeleteExpense(t, newStore(t)) })
	t.Run("ListExpenses", func(t *testing.T) { testListExpenses(t, newStore(t)) })
	t.Run("GroupSumByCategory", func(t *testing.T) { testGroupSumByCategory(t, newStore(t)) })
	t.Run("GroupSumHalfOpen", func(t *testing.T) { testGroupSumHalfOpen(t, newStore(t)) })
	t.Run("GroupSumSubMillisecondBounds", func(t *testing.T) { testGroupSumSubMillisecondBounds(t, newStore(t)) })
	t.Run("GroupSumBuckets", func(t *testing.T) { testGroupSumBuckets(t, newStore(t)) })
	t.Run("Budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("BudgetValidation", func(t *testing.T) { testBudgetValidation(t, newStore(t)) })
	t.Run("ClaimAlert", func(t *testing.T) { testClaimAlert(t, newStore(t)) })
}

func testAddAndGetExpense(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 9, 15, 30, 123456789, time.UTC)
	e := expense("alice", "12.50", model.CategoryFood, at)

	require.NoError(t, s.AddExpense(ctx, e))
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := s.GetExpense(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "12.5", got.Amount.String())
	assert.Equal(t, model.CategoryFood, got.Category)
	assert.Equal(t, "FOOD expense", got.Description)
	assert.True(t, got.OccurredAt.Equal(at.Truncate(time.Millisecond)))
	assert.Nil(t, got.UpdatedAt)

	_, err = s.GetExpense(ctx, "bob", e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testAddExpenseRejectsInvalid(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	err := s.AddExpense(ctx, expense("alice", "0", model.CategoryFood, at))
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	err = s.AddExpense(ctx, expense("alice", "5", "RENT", at))
	assert.ErrorIs(t, err, model.ErrInvalidCategory)

	list, err := s.ListExpenses(ctx, model.ExpenseFilter{OwnerID: "alice"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testUpdateExpense(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	e := expense("alice", "10", model.CategoryFood, at)
	require.NoError(t, s.AddExpense(ctx, e))

	e.Amount = decimal.RequireFromString("11.25")
	e.Category = model.CategoryShopping
	e.Description = "changed"
	require.NoError(t, s.UpdateExpense(ctx, e))
	require.NotNil(t, e.UpdatedAt)

	got, err := s.GetExpense(ctx, "alice", e.ID)
	require.NoError(t, err)
	assert.Equal(t, "11.25", got.Amount.String())
	assert.Equal(t, model.CategoryShopping, got.Category)
	assert.Equal(t, "changed", got.Description)
	assert.NotNil(t, got.UpdatedAt)

	other := *e
	other.OwnerID = "bob"
	assert.ErrorIs(t, s.UpdateExpense(ctx, &other), storage.ErrNotFound)
}

func testDeleteExpense(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	e := expense("alice", "3", model.CategoryOther, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.AddExpense(ctx, e))

	assert.ErrorIs(t, s.DeleteExpense(ctx, "bob", e.ID), storage.ErrNotFound)
	require.NoError(t, s.DeleteExpense(ctx, "alice", e.ID))
	assert.ErrorIs(t, s.DeleteExpense(ctx, "alice", e.ID), storage.ErrNotFound)

	_, err := s.GetExpense(ctx, "alice", e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testListExpenses(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, cat := range []model.Category{model.CategoryFood, model.CategoryTransport, model.CategoryFood, model.CategoryOther} {
		require.NoError(t, s.AddExpense(ctx, expense("alice", "1", cat, base.AddDate(0, 0, i))))
	}
	require.NoError(t, s.AddExpense(ctx, expense("bob", "1", model.CategoryFood, base)))

	all, err := s.ListExpenses(ctx, model.ExpenseFilter{OwnerID: "alice"})
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].OccurredAt.After(all[i].OccurredAt), "expected newest first")
	}

	food, err := s.ListExpenses(ctx, model.ExpenseFilter{OwnerID: "alice", Category: model.CategoryFood})
	require.NoError(t, err)
	assert.Len(t, food, 2)

	// End is exclusive.
	window, err := s.ListExpenses(ctx, model.ExpenseFilter{
		OwnerID: "alice",
		Start:   base.AddDate(0, 0, 1),
		End:     base.AddDate(0, 0, 3),
	})
	require.NoError(t, err)
	assert.Len(t, window, 2)

	page, err := s.ListExpenses(ctx, model.ExpenseFilter{OwnerID: "alice", Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.True(t, page[0].OccurredAt.Equal(base.AddDate(0, 0, 2)))

	everyone, err := s.ListExpenses(ctx, model.ExpenseFilter{})
	require.NoError(t, err)
	assert.Len(t, everyone, 5)
}

func groupMap(groups []model.Group) map[string]model.Group {
	out := make(map[string]model.Group, len(groups))
	for _, g := range groups {
		out[g.Bucket+"/"+string(g.Category)] = g
	}
	return out
}

func testGroupSumByCategory(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	day := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddExpense(ctx, expense("alice", "0.10", model.CategoryFood, day.Add(time.Hour))))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "0.20", model.CategoryFood, day.Add(2*time.Hour))))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "7.35", model.CategoryTransport, day.Add(3*time.Hour))))
	require.NoError(t, s.AddExpense(ctx, expense("bob", "99", model.CategoryFood, day.Add(time.Hour))))

	groups, err := s.GroupSum(ctx, model.GroupQuery{OwnerID: "alice", Start: day, End: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, groups, 2)

	m := groupMap(groups)
	assert.Equal(t, "0.3", m["/FOOD"].Sum.String())
	assert.Equal(t, int64(2), m["/FOOD"].Count)
	assert.Equal(t, "7.35", m["/TRANSPORT"].Sum.String())
	assert.Equal(t, int64(1), m["/TRANSPORT"].Count)

	none, err := s.GroupSum(ctx, model.GroupQuery{OwnerID: "carol", Start: day, End: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testGroupSumHalfOpen(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)
	require.NoError(t, s.AddExpense(ctx, expense("alice", "1", model.CategoryFood, start)))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "2", model.CategoryFood, end)))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "4", model.CategoryFood, end.Add(-time.Millisecond))))

	groups, err := s.GroupSum(ctx, model.GroupQuery{OwnerID: "alice", Start: start, End: end})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "5", groups[0].Sum.String())
	assert.Equal(t, int64(2), groups[0].Count)
}

func testGroupSumSubMillisecondBounds(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.AddExpense(ctx, expense("alice", "5", model.CategoryFood, at)))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "7", model.CategoryFood, at.Add(-time.Millisecond))))

	// End just past a stored instant still includes it.
	groups, err := s.GroupSum(ctx, model.GroupQuery{
		OwnerID: "alice",
		Start:   at.Add(-time.Hour),
		End:     at.Add(500 * time.Microsecond),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "12", groups[0].Sum.String())

	// Start just past a stored instant excludes it.
	groups, err = s.GroupSum(ctx, model.GroupQuery{
		OwnerID: "alice",
		Start:   at.Add(-500 * time.Microsecond),
		End:     at.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "5", groups[0].Sum.String())

	groups, err = s.GroupSum(ctx, model.GroupQuery{
		OwnerID: "alice",
		Start:   at.Add(-time.Hour),
		End:     at.Add(time.Hour),
		Buckets: []model.Bucket{
			{Label: "before", Start: at.Add(-time.Hour), End: at.Add(-500 * time.Microsecond)},
			{Label: "after", Start: at.Add(-500 * time.Microsecond), End: at.Add(time.Hour)},
		},
	})
	require.NoError(t, err)
	m := groupMap(groups)
	assert.Equal(t, "7", m["before/FOOD"].Sum.String())
	assert.Equal(t, "5", m["after/FOOD"].Sum.String())

	list, err := s.ListExpenses(ctx, model.ExpenseFilter{
		OwnerID: "alice",
		Start:   at.Add(-500 * time.Microsecond),
		End:     at.Add(500 * time.Microsecond),
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "5", list[0].Amount.String())
}

func testGroupSumBuckets(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Sunday 2024-03-10 is 23 hours long in New York.
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	var buckets []model.Bucket
	for i := 0; i < 7; i++ {
		buckets = append(buckets, model.Bucket{
			Label: monday.AddDate(0, 0, i).Format(model.DateLayout),
			Start: monday.AddDate(0, 0, i),
			End:   monday.AddDate(0, 0, i+1),
		})
	}

	require.NoError(t, s.AddExpense(ctx, expense("alice", "10", model.CategoryFood, monday.Add(30*time.Minute))))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "5", model.CategoryFood, monday.Add(23*time.Hour))))
	require.NoError(t, s.AddExpense(ctx, expense("alice", "20", model.CategoryTransport, monday.AddDate(0, 0, 2))))
	// Sunday 23:59 local belongs to the last bucket.
	require.NoError(t, s.AddExpense(ctx, expense("alice", "1", model.CategoryOther, monday.AddDate(0, 0, 7).Add(-time.Minute))))

	groups, err := s.GroupSum(ctx, model.GroupQuery{
		OwnerID: "alice",
		Start:   monday,
		End:     monday.AddDate(0, 0, 7),
		Buckets: buckets,
	})
	require.NoError(t, err)
	require.Len(t, groups, 3)

	m := groupMap(groups)
	assert.Equal(t, "15", m["2024-03-04/FOOD"].Sum.String())
	assert.Equal(t, int64(2), m["2024-03-04/FOOD"].Count)
	assert.Equal(t, "20", m["2024-03-06/TRANSPORT"].Sum.String())
	assert.Equal(t, "1", m["2024-03-10/OTHER"].Sum.String())
}

func testBudgets(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	budget := &model.Budget{
		OwnerID:           "alice",
		Name:              "groceries",
		Limit:             decimal.RequireFromString("200"),
		Period:            model.PeriodMonthly,
		Category:          model.CategoryFood,
		AlertThresholdPct: 75,
	}
	require.NoError(t, s.SetBudget(ctx, budget))
	assert.NotEmpty(t, budget.ID)

	got, err := s.GetBudget(ctx, "alice", "groceries")
	require.NoError(t, err)
	assert.Equal(t, "200", got.Limit.String())
	assert.Equal(t, model.PeriodMonthly, got.Period)
	assert.Equal(t, model.CategoryFood, got.Category)
	assert.Equal(t, 75.0, got.AlertThresholdPct)

	// Same owner and name upserts.
	update := &model.Budget{OwnerID: "alice", Name: "groceries", Limit: decimal.RequireFromString("250.5"), Period: model.PeriodWeekly}
	require.NoError(t, s.SetBudget(ctx, update))
	got, err = s.GetBudget(ctx, "alice", "groceries")
	require.NoError(t, err)
	assert.Equal(t, "250.5", got.Limit.String())
	assert.Equal(t, model.PeriodWeekly, got.Period)
	assert.Equal(t, storage.DefaultAlertThresholdPct, got.AlertThresholdPct)

	require.NoError(t, s.SetBudget(ctx, &model.Budget{OwnerID: "alice", Name: "all", Limit: decimal.NewFromInt(50), Period: model.PeriodDaily}))
	require.NoError(t, s.SetBudget(ctx, &model.Budget{OwnerID: "bob", Name: "all", Limit: decimal.NewFromInt(50), Period: model.PeriodDaily}))

	mine, err := s.ListBudgets(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "all", mine[0].Name)

	everyone, err := s.ListBudgets(ctx, "")
	require.NoError(t, err)
	assert.Len(t, everyone, 3)

	require.NoError(t, s.DeleteBudget(ctx, "alice", "all"))
	assert.ErrorIs(t, s.DeleteBudget(ctx, "alice", "all"), storage.ErrNotFound)

	_, err = s.GetBudget(ctx, "alice", "nonexistent")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testBudgetValidation(t *testing.T, s storage.Storage) {
	ctx := context.Background()

	err := s.SetBudget(ctx, &model.Budget{OwnerID: "alice", Name: "x", Limit: decimal.Zero, Period: model.PeriodDaily})
	assert.ErrorIs(t, err, model.ErrInvalidAmount)

	err = s.SetBudget(ctx, &model.Budget{OwnerID: "alice", Name: "x", Limit: decimal.NewFromInt(1), Period: "yearly"})
	assert.Error(t, err)

	err = s.SetBudget(ctx, &model.Budget{Name: "x", Limit: decimal.NewFromInt(1), Period: model.PeriodDaily})
	assert.ErrorIs(t, err, model.ErrMissingOwner)
}

func testClaimAlert(t *testing.T, s storage.Storage) {
	ctx := context.Background()
	march := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	april := march.AddDate(0, 1, 0)

	ok, err := s.ClaimAlert(ctx, "alice", "monthly", march, 1)
	require.NoError(t, err)
	assert.False(t, ok, "unknown budget")

	require.NoError(t, s.SetBudget(ctx, &model.Budget{
		OwnerID: "alice",
		Name:    "monthly",
		Limit:   decimal.NewFromInt(100),
		Period:  model.PeriodMonthly,
	}))

	claim := func(periodStart time.Time, rank int) bool {
		t.Helper()
		ok, err := s.ClaimAlert(ctx, "alice", "monthly", periodStart, rank)
		require.NoError(t, err)
		return ok
	}
	assert.True(t, claim(march, 1))
	assert.False(t, claim(march, 1))
	assert.True(t, claim(march, 3))
	assert.False(t, claim(march, 2))
	assert.True(t, claim(april, 1))

	// Updating the budget keeps its alert state.
	require.NoError(t, s.SetBudget(ctx, &model.Budget{
		OwnerID: "alice",
		Name:    "monthly",
		Limit:   decimal.NewFromInt(200),
		Period:  model.PeriodMonthly,
	}))
	assert.False(t, claim(april, 1))

	// Deleting it clears the state.
	require.NoError(t, s.DeleteBudget(ctx, "alice", "monthly"))
	require.NoError(t, s.SetBudget(ctx, &model.Budget{
		OwnerID: "alice",
		Name:    "monthly",
		Limit:   decimal.NewFromInt(100),
		Period:  model.PeriodMonthly,
	}))
	assert.True(t, claim(april, 1))

	ok, err = s.ClaimAlert(ctx, "bob", "monthly", april, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}
