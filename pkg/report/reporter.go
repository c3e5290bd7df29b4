package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"golang.org/x/sync/errgroup"
)

// Reporter computes expense reports for an owner. It keeps no state between
// calls and is safe for concurrent use.
type Reporter struct {
	resolver   *Resolver
	aggregator *Aggregator
	logger     *slog.Logger
}

// NewReporter creates a reporter that reads from store and resolves calendar
// windows in loc.
func NewReporter(store Store, loc *time.Location, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		resolver:   NewResolver(loc),
		aggregator: NewAggregator(store),
		logger:     logger,
	}
}

// Resolver exposes the reporter's window resolver.
func (r *Reporter) Resolver() *Resolver {
	return r.resolver
}

// Compute aggregates and shapes a single window.
func (r *Reporter) Compute(ctx context.Context, ownerID string, w Window) (Report, error) {
	raw, err := r.aggregator.Aggregate(ctx, ownerID, w)
	if err != nil {
		return Report{}, err
	}
	rep := Shape(w, raw)

	r.logger.Debug("report computed",
		"owner", ownerID,
		"kind", w.Kind,
		"start", w.Start,
		"end", w.End,
		"total", rep.TotalAmount.String(),
		"count", rep.Count,
	)
	return rep, nil
}

// Daily returns the report for the calendar day containing date.
func (r *Reporter) Daily(ctx context.Context, ownerID string, date time.Time) (*model.DailyReport, error) {
	w := r.resolver.Day(date)
	rep, err := r.Compute(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("daily report: %w", err)
	}
	return &model.DailyReport{
		Date:          w.Start.Format(model.DateLayout),
		TotalAmount:   rep.TotalAmount,
		ExpensesCount: rep.Count,
		Categories:    rep.Categories,
	}, nil
}

// Weekly returns the Monday-to-Sunday report for the week containing date.
func (r *Reporter) Weekly(ctx context.Context, ownerID string, date time.Time) (*model.WeeklyReport, error) {
	w := r.resolver.Week(date)
	rep, err := r.Compute(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}

	breakdown := make([]model.DayBreakdown, len(rep.Buckets))
	for i, b := range rep.Buckets {
		breakdown[i] = model.DayBreakdown{
			Date:          b.Label,
			TotalAmount:   b.TotalAmount,
			ExpensesCount: b.Count,
			Categories:    b.Categories,
		}
	}

	return &model.WeeklyReport{
		WeekStart:      w.Start.Format(model.DateLayout),
		WeekEnd:        w.End.AddDate(0, 0, -1).Format(model.DateLayout),
		TotalAmount:    rep.TotalAmount,
		ExpensesCount:  rep.Count,
		DailyBreakdown: breakdown,
		Categories:     rep.Categories,
	}, nil
}

// Monthly returns the report for a calendar month, including the average
// spend per calendar day.
func (r *Reporter) Monthly(ctx context.Context, ownerID string, year int, month time.Month) (*model.MonthlyReport, error) {
	w, err := r.resolver.Month(year, month)
	if err != nil {
		return nil, err
	}
	rep, err := r.Compute(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	return &model.MonthlyReport{
		Month:         w.Start.Month().String(),
		Year:          w.Start.Year(),
		TotalAmount:   rep.TotalAmount,
		ExpensesCount: rep.Count,
		Categories:    rep.Categories,
		DailyAverage:  DailyAverage(rep.TotalAmount, rep.Days),
	}, nil
}

// Range summarizes [start, end). An end at or before start produces a zero summary.
func (r *Reporter) Range(ctx context.Context, ownerID string, start, end time.Time) (*model.RangeSummary, error) {
	w := r.resolver.Range(start, end)
	rep, err := r.Compute(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("range summary: %w", err)
	}
	return &model.RangeSummary{
		Start:               w.Start,
		End:                 w.End,
		TotalAmount:         rep.TotalAmount,
		ExpensesCount:       rep.Count,
		Categories:          rep.Categories,
		DailyAverage:        DailyAverage(rep.TotalAmount, rep.Days),
		CategoryPercentages: CategoryPercentages(rep.Categories, rep.TotalAmount),
	}, nil
}

// Summary totals every expense of the owner, with per-category counts and shares.
func (r *Reporter) Summary(ctx context.Context, ownerID string) (*model.ExpenseSummary, error) {
	w := r.resolver.AllTime()
	raw, err := r.aggregator.Aggregate(ctx, ownerID, w)
	if err != nil {
		return nil, fmt.Errorf("expense summary: %w", err)
	}

	rep := Shape(w, raw)
	shares := CategoryPercentages(rep.Categories, rep.TotalAmount)
	stats := make(map[model.Category]model.CategoryStat, len(rep.Categories))
	for key, total := range raw {
		st := stats[key.Category]
		st.Total = st.Total.Add(total.Sum)
		st.Count += total.Count
		st.Percentage = shares[key.Category]
		stats[key.Category] = st
	}

	r.logger.Debug("summary computed", "owner", ownerID, "total", rep.TotalAmount.String(), "count", rep.Count)
	return &model.ExpenseSummary{
		TotalAmount:    rep.TotalAmount,
		TotalExpenses:  rep.Count,
		AverageExpense: AverageExpense(rep.TotalAmount, rep.Count),
		Categories:     stats,
	}, nil
}

// Overview computes the day, week and month reports around anchor concurrently.
func (r *Reporter) Overview(ctx context.Context, ownerID string, anchor time.Time) (*model.Overview, error) {
	var ov model.Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		day, err := r.Daily(gctx, ownerID, anchor)
		ov.Day = day
		return err
	})
	g.Go(func() error {
		week, err := r.Weekly(gctx, ownerID, anchor)
		ov.Week = week
		return err
	})
	g.Go(func() error {
		a := anchor.In(r.resolver.Location())
		month, err := r.Monthly(gctx, ownerID, a.Year(), a.Month())
		ov.Month = month
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("overview: %w", err)
	}
	return &ov, nil
}
