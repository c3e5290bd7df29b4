package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"gopkg.in/yaml.v3"
)

// render writes v as JSON or YAML, or calls table for the default output.
func render(w io.Writer, format string, v any, table func(io.Writer)) error {
	switch format {
	case "", "table":
		table(w)
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output %q (expected table, json or yaml)", format)
	}
}

// writeCategories prints non-empty categories in their fixed order. When
// pct is non-nil a share column is added.
func writeCategories(w io.Writer, categories, pct model.CategoryTotals) {
	if len(categories) == 0 {
		return
	}
	fmt.Fprintf(w, "\nBy Category:\n")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if pct != nil {
		fmt.Fprintf(tw, "  CATEGORY\tAMOUNT\tSHARE\n")
	} else {
		fmt.Fprintf(tw, "  CATEGORY\tAMOUNT\n")
	}
	for _, c := range model.Categories() {
		amount, ok := categories[c]
		if !ok {
			continue
		}
		if pct != nil {
			fmt.Fprintf(tw, "  %s\t%s\t%s%%\n", c, amount.StringFixed(2), pct[c].StringFixed(1))
		} else {
			fmt.Fprintf(tw, "  %s\t%s\n", c, amount.StringFixed(2))
		}
	}
	tw.Flush()
}

func dailyTable(r *model.DailyReport) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "=== Daily Report (%s) ===\n", r.Date)
		fmt.Fprintf(w, "Total:    %s\n", r.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "Expenses: %d\n", r.ExpensesCount)
		writeCategories(w, r.Categories, nil)
	}
}

func weeklyTable(r *model.WeeklyReport) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "=== Weekly Report (%s to %s) ===\n", r.WeekStart, r.WeekEnd)
		fmt.Fprintf(w, "Total:    %s\n", r.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "Expenses: %d\n", r.ExpensesCount)

		fmt.Fprintf(w, "\nBy Day:\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  DATE\tTOTAL\tCOUNT\n")
		for _, d := range r.DailyBreakdown {
			fmt.Fprintf(tw, "  %s\t%s\t%d\n", d.Date, d.TotalAmount.StringFixed(2), d.ExpensesCount)
		}
		tw.Flush()

		writeCategories(w, r.Categories, nil)
	}
}

func monthlyTable(r *model.MonthlyReport) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "=== Monthly Report (%s %d) ===\n", r.Month, r.Year)
		fmt.Fprintf(w, "Total:         %s\n", r.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "Expenses:      %d\n", r.ExpensesCount)
		fmt.Fprintf(w, "Daily average: %s\n", r.DailyAverage.StringFixed(2))
		writeCategories(w, r.Categories, nil)
	}
}

func rangeTable(r *model.RangeSummary) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "=== Summary (%s to %s) ===\n",
			r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
		fmt.Fprintf(w, "Total:         %s\n", r.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "Expenses:      %d\n", r.ExpensesCount)
		fmt.Fprintf(w, "Daily average: %s\n", r.DailyAverage.StringFixed(2))
		writeCategories(w, r.Categories, r.CategoryPercentages)
	}
}

func overviewTable(o *model.Overview) func(io.Writer) {
	return func(w io.Writer) {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "PERIOD\tRANGE\tTOTAL\tCOUNT\n")
		fmt.Fprintf(tw, "Today\t%s\t%s\t%d\n",
			o.Day.Date, o.Day.TotalAmount.StringFixed(2), o.Day.ExpensesCount)
		fmt.Fprintf(tw, "This week\t%s to %s\t%s\t%d\n",
			o.Week.WeekStart, o.Week.WeekEnd, o.Week.TotalAmount.StringFixed(2), o.Week.ExpensesCount)
		fmt.Fprintf(tw, "This month\t%s %d\t%s\t%d\n",
			o.Month.Month, o.Month.Year, o.Month.TotalAmount.StringFixed(2), o.Month.ExpensesCount)
		tw.Flush()
	}
}

func summaryTable(s *model.ExpenseSummary) func(io.Writer) {
	return func(w io.Writer) {
		fmt.Fprintf(w, "=== All Expenses ===\n")
		fmt.Fprintf(w, "Total:    %s\n", s.TotalAmount.StringFixed(2))
		fmt.Fprintf(w, "Expenses: %d\n", s.TotalExpenses)
		fmt.Fprintf(w, "Average:  %s\n", s.AverageExpense.StringFixed(2))
		if len(s.Categories) == 0 {
			return
		}

		fmt.Fprintf(w, "\nBy Category:\n")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "  CATEGORY\tAMOUNT\tCOUNT\tSHARE\n")
		for _, c := range model.Categories() {
			st, ok := s.Categories[c]
			if !ok {
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%s%%\n", c, st.Total.StringFixed(2), st.Count, st.Percentage.StringFixed(1))
		}
		tw.Flush()
	}
}
