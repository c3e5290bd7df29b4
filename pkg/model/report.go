package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTotals maps a category to the summed amount spent in it.
type CategoryTotals map[Category]decimal.Decimal

// DayBreakdown is one day of a weekly report.
type DayBreakdown struct {
	Date          string          `json:"date" yaml:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	ExpensesCount int64           `json:"expenses_count" yaml:"expenses_count"`
	Categories    CategoryTotals  `json:"categories" yaml:"categories"`
}

// DailyReport summarizes a single calendar day.
type DailyReport struct {
	Date          string          `json:"date" yaml:"date"`
	TotalAmount   decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	ExpensesCount int64           `json:"expenses_count" yaml:"expenses_count"`
	Categories    CategoryTotals  `json:"categories" yaml:"categories"`
}

// WeeklyReport summarizes a Monday-to-Sunday week with a per-day breakdown.
// WeekEnd is the last day of the week, inclusive.
type WeeklyReport struct {
	WeekStart      string          `json:"week_start" yaml:"week_start"`
	WeekEnd        string          `json:"week_end" yaml:"week_end"`
	TotalAmount    decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	ExpensesCount  int64           `json:"expenses_count" yaml:"expenses_count"`
	DailyBreakdown []DayBreakdown  `json:"daily_breakdown" yaml:"daily_breakdown"`
	Categories     CategoryTotals  `json:"categories" yaml:"categories"`
}

// MonthlyReport summarizes a calendar month.
type MonthlyReport struct {
	Month         string          `json:"month" yaml:"month"`
	Year          int             `json:"year" yaml:"year"`
	TotalAmount   decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	ExpensesCount int64           `json:"expenses_count" yaml:"expenses_count"`
	Categories    CategoryTotals  `json:"categories" yaml:"categories"`
	DailyAverage  decimal.Decimal `json:"daily_average" yaml:"daily_average"`
}

// RangeSummary summarizes an arbitrary [Start, End) interval.
type RangeSummary struct {
	Start               time.Time       `json:"start" yaml:"start"`
	End                 time.Time       `json:"end" yaml:"end"`
	TotalAmount         decimal.Decimal `json:"total_amount" yaml:"total_amount"`
	ExpensesCount       int64           `json:"expenses_count" yaml:"expenses_count"`
	Categories          CategoryTotals  `json:"categories" yaml:"categories"`
	DailyAverage        decimal.Decimal `json:"daily_average" yaml:"daily_average"`
	CategoryPercentages CategoryTotals  `json:"category_percentages" yaml:"category_percentages"`
}

// Overview bundles the day, week and month reports around one anchor date.
type Overview struct {
	Day   *DailyReport   `json:"day" yaml:"day"`
	Week  *WeeklyReport  `json:"week" yaml:"week"`
	Month *MonthlyReport `json:"month" yaml:"month"`
}

// CategoryStat is one category of an all-time expense summary.
type CategoryStat struct {
	Total      decimal.Decimal `json:"total" yaml:"total"`
	Count      int64           `json:"count" yaml:"count"`
	Percentage decimal.Decimal `json:"percentage" yaml:"percentage"`
}

// ExpenseSummary aggregates every expense an owner has recorded.
type ExpenseSummary struct {
	TotalAmount    decimal.Decimal           `json:"total_amount" yaml:"total_amount"`
	TotalExpenses  int64                     `json:"total_expenses" yaml:"total_expenses"`
	AverageExpense decimal.Decimal           `json:"average_expense" yaml:"average_expense"`
	Categories     map[Category]CategoryStat `json:"categories" yaml:"categories"`
}
