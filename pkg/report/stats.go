package report

import (
	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DailyAverage divides total by days. Zero days gives zero.
func DailyAverage(total decimal.Decimal, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(days)))
}

// CategoryPercentages returns each category's share of total in percent.
// Every share is zero when total is not positive.
func CategoryPercentages(categories model.CategoryTotals, total decimal.Decimal) model.CategoryTotals {
	out := make(model.CategoryTotals, len(categories))
	for c, amount := range categories {
		if !total.IsPositive() {
			out[c] = decimal.Zero
			continue
		}
		out[c] = amount.Div(total).Mul(hundred)
	}
	return out
}

// AverageExpense divides total by count. Zero count gives zero.
func AverageExpense(total decimal.Decimal, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(count))
}
