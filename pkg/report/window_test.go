package report_test

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Day(t *testing.T) {
	r := report.NewResolver(nil)
	w := r.Day(time.Date(2024, 3, 6, 17, 45, 0, 0, time.UTC))

	assert.Equal(t, report.KindDay, w.Kind)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), w.End)
	assert.Equal(t, report.PartitionSingle, w.Partition)
	assert.Empty(t, w.Buckets)
	assert.Equal(t, 1, w.Days())
}

func TestResolver_Week(t *testing.T) {
	r := report.NewResolver(time.UTC)

	tests := []struct {
		name   string
		anchor time.Time
	}{
		{"monday", time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"wednesday", time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)},
		{"sunday late", time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := r.Week(tt.anchor)
			assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), w.Start)
			assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), w.End)
			assert.Equal(t, time.Monday, w.Start.Weekday())
			assert.Equal(t, report.PartitionDaily, w.Partition)
			assert.Equal(t, 7, w.Days())

			require.Len(t, w.Buckets, 7)
			for i, b := range w.Buckets {
				assert.Equal(t, w.Start.AddDate(0, 0, i), b.Start)
				assert.Equal(t, b.Start.AddDate(0, 0, 1), b.End)
				assert.Equal(t, b.Start.Format(model.DateLayout), b.Label)
			}
			assert.Equal(t, w.End, w.Buckets[6].End)
		})
	}
}

func TestResolver_WeekAcrossYearBoundary(t *testing.T) {
	w := report.NewResolver(nil).Week(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-12-30", w.Buckets[0].Label)
	assert.Equal(t, "2025-01-05", w.Buckets[6].Label)
}

func TestResolver_WeekAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	// Clocks move forward on Sunday 2024-03-31.
	w := report.NewResolver(loc).Week(time.Date(2024, 3, 28, 10, 0, 0, 0, loc))
	require.Len(t, w.Buckets, 7)
	assert.Equal(t, "2024-03-25", w.Buckets[0].Label)
	assert.Equal(t, "2024-03-31", w.Buckets[6].Label)
	assert.Equal(t, 23*time.Hour, w.Buckets[6].End.Sub(w.Buckets[6].Start))
	for _, b := range w.Buckets {
		assert.Equal(t, 0, b.Start.Hour(), b.Label)
	}
	assert.Equal(t, 7, w.Days())
}

func TestResolver_DayUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-03-06 20:00 UTC is already 2024-03-07 in Tokyo.
	w := report.NewResolver(loc).Day(time.Date(2024, 3, 6, 20, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-03-07", w.Start.Format(model.DateLayout))
	assert.True(t, w.Start.Equal(time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC)))
}

func TestResolver_Month(t *testing.T) {
	r := report.NewResolver(nil)

	tests := []struct {
		year  int
		month time.Month
		end   time.Time
		days  int
	}{
		{2024, time.January, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 31},
		{2024, time.February, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 29},
		{2023, time.February, time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC), 28},
		{2024, time.April, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 30},
		{2024, time.December, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 31},
	}
	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			w, err := r.Month(tt.year, tt.month)
			require.NoError(t, err)
			assert.Equal(t, time.Date(tt.year, tt.month, 1, 0, 0, 0, 0, time.UTC), w.Start)
			assert.Equal(t, tt.end, w.End)
			assert.Equal(t, tt.days, w.Days())
		})
	}
}

func TestResolver_MonthInvalid(t *testing.T) {
	r := report.NewResolver(nil)
	for _, m := range []time.Month{0, 13, -1} {
		_, err := r.Month(2024, m)
		assert.ErrorIs(t, err, report.ErrInvalidMonth)
	}
}

func TestResolver_MonthDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	w, err := report.NewResolver(loc).Month(2024, time.November)
	require.NoError(t, err)
	assert.Equal(t, 30, w.Days())
}

func TestResolver_Range(t *testing.T) {
	r := report.NewResolver(nil)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	w := r.Range(start, start.Add(36*time.Hour))
	assert.False(t, w.Empty())
	assert.Equal(t, 1, w.Days())
	assert.Empty(t, w.Buckets)

	w = r.Range(start, start.AddDate(0, 0, 10))
	assert.Equal(t, 10, w.Days())

	w = r.Range(start, start)
	assert.True(t, w.Empty())
	assert.Equal(t, 0, w.Days())

	w = r.Range(start, start.Add(-time.Hour))
	assert.True(t, w.Empty())
	assert.Equal(t, 0, w.Days())
}

func TestResolver_RangeDaysAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	r := report.NewResolver(loc)

	// March 2024 has a 23-hour day in New York.
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, loc)
	w := r.Range(start, end)
	assert.Equal(t, 31, w.Days())

	month, err := r.Month(2024, time.March)
	require.NoError(t, err)
	assert.Equal(t, month.Days(), w.Days())

	// Bounds off midnight fall back to elapsed whole days.
	w = r.Range(start.Add(time.Hour), end.Add(time.Hour))
	assert.Equal(t, 30, w.Days())
}

func TestResolver_AllTime(t *testing.T) {
	w := report.NewResolver(nil).AllTime()
	assert.Equal(t, report.KindAll, w.Kind)
	assert.False(t, w.Empty())
	assert.Equal(t, 0, w.Days())
	assert.True(t, w.Start.Before(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.End.After(time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestResolver_ForPeriod(t *testing.T) {
	r := report.NewResolver(nil)
	anchor := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)

	w, err := r.ForPeriod(model.PeriodDaily, anchor)
	require.NoError(t, err)
	assert.Equal(t, report.KindDay, w.Kind)

	w, err = r.ForPeriod(model.PeriodWeekly, anchor)
	require.NoError(t, err)
	assert.Equal(t, report.KindWeek, w.Kind)

	w, err = r.ForPeriod(model.PeriodMonthly, anchor)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), w.Start)

	_, err = r.ForPeriod("yearly", anchor)
	assert.Error(t, err)
}
