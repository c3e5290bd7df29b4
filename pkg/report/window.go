package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
)

// ErrInvalidMonth is returned when a month outside 1..12 is requested.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// Kind identifies the report a window was resolved for.
type Kind string

const (
	KindDay   Kind = "day"
	KindWeek  Kind = "week"
	KindMonth Kind = "month"
	KindRange Kind = "range"
	KindAll   Kind = "all"
)

// Bounds of the all-time window. Both lie far outside any plausible expense date.
var (
	allTimeStart = time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	allTimeEnd   = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// Partition describes how a window is split into buckets.
type Partition int

const (
	// PartitionSingle treats the whole window as one bucket.
	PartitionSingle Partition = iota
	// PartitionDaily splits the window into consecutive calendar days.
	PartitionDaily
)

// Window is a half-open interval [Start, End) plus its bucket layout.
type Window struct {
	Kind      Kind
	Start     time.Time
	End       time.Time
	Partition Partition
	Buckets   []model.Bucket
}

// Empty reports whether the window contains no instants.
func (w Window) Empty() bool {
	return !w.End.After(w.Start)
}

// Days returns the number of whole days the window spans.
func (w Window) Days() int {
	if w.Empty() {
		return 0
	}
	switch w.Kind {
	case KindAll:
		return 0
	case KindRange:
		if isMidnight(w.Start) && isMidnight(w.End) {
			return calendarDays(w.Start, w.End)
		}
		return int(w.End.Sub(w.Start) / (24 * time.Hour))
	}
	return calendarDays(w.Start, w.End)
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// calendarDays counts date changes between two instants, ignoring DST shifts.
func calendarDays(start, end time.Time) int {
	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// Resolver turns report requests into windows in a fixed calendar location.
type Resolver struct {
	loc *time.Location
}

// NewResolver creates a resolver for the given location; nil means UTC.
func NewResolver(loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

// Location returns the calendar location windows are resolved in.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

func (r *Resolver) midnight(t time.Time) time.Time {
	t = t.In(r.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, r.loc)
}

// Day resolves the calendar day containing anchor.
func (r *Resolver) Day(anchor time.Time) Window {
	start := r.midnight(anchor)
	return Window{
		Kind:      KindDay,
		Start:     start,
		End:       start.AddDate(0, 0, 1),
		Partition: PartitionSingle,
	}
}

// Week resolves the Monday-to-Sunday week containing anchor, with one bucket per day.
func (r *Resolver) Week(anchor time.Time) Window {
	day := r.midnight(anchor)
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start := day.AddDate(0, 0, -offset)

	buckets := make([]model.Bucket, 7)
	for i := range buckets {
		bs := start.AddDate(0, 0, i)
		buckets[i] = model.Bucket{
			Label: bs.Format(model.DateLayout),
			Start: bs,
			End:   start.AddDate(0, 0, i+1),
		}
	}

	return Window{
		Kind:      KindWeek,
		Start:     start,
		End:       start.AddDate(0, 0, 7),
		Partition: PartitionDaily,
		Buckets:   buckets,
	}
}

// Month resolves a calendar month. December rolls over into January of the next year.
func (r *Resolver) Month(year int, month time.Month) (Window, error) {
	if month < time.January || month > time.December {
		return Window{}, fmt.Errorf("%w: got %d", ErrInvalidMonth, month)
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, r.loc)
	return Window{
		Kind:      KindMonth,
		Start:     start,
		End:       start.AddDate(0, 1, 0),
		Partition: PartitionSingle,
	}, nil
}

// Range wraps a caller supplied interval. An end at or before start yields an
// empty window rather than an error.
func (r *Resolver) Range(start, end time.Time) Window {
	return Window{
		Kind:      KindRange,
		Start:     start.In(r.loc),
		End:       end.In(r.loc),
		Partition: PartitionSingle,
	}
}

// AllTime resolves a window covering every stored expense. It has no day count.
func (r *Resolver) AllTime() Window {
	return Window{
		Kind:      KindAll,
		Start:     allTimeStart,
		End:       allTimeEnd,
		Partition: PartitionSingle,
	}
}

// ForPeriod resolves the day, week or month containing anchor.
func (r *Resolver) ForPeriod(period model.BudgetPeriod, anchor time.Time) (Window, error) {
	switch period {
	case model.PeriodDaily:
		return r.Day(anchor), nil
	case model.PeriodWeekly:
		return r.Week(anchor), nil
	case model.PeriodMonthly:
		a := anchor.In(r.loc)
		return r.Month(a.Year(), a.Month())
	default:
		return Window{}, fmt.Errorf("unknown period %q", period)
	}
}
