package report

import (
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/shopspring/decimal"
)

// BucketTotals is one sub-bucket of a shaped report.
type BucketTotals struct {
	Label       string
	TotalAmount decimal.Decimal
	Count       int64
	Categories  model.CategoryTotals
}

// Report is the shaped, gap-filled result for one window.
type Report struct {
	Kind        Kind
	Start       time.Time
	End         time.Time
	Days        int
	TotalAmount decimal.Decimal
	Count       int64
	Categories  model.CategoryTotals
	// Buckets is nil for single-partition windows and has one entry per
	// expected day, in order, for daily partitions.
	Buckets []BucketTotals
}

// Shape folds raw groups into a report for w. Days without data are
// emitted as zero buckets so a week always has seven entries.
func Shape(w Window, raw RawGroups) Report {
	rep := Report{
		Kind:        w.Kind,
		Start:       w.Start,
		End:         w.End,
		Days:        w.Days(),
		TotalAmount: decimal.Zero,
		Categories:  make(model.CategoryTotals),
	}

	for key, total := range raw {
		rep.TotalAmount = rep.TotalAmount.Add(total.Sum)
		rep.Count += total.Count
		rep.Categories[key.Category] = sumOrZero(rep.Categories, key.Category).Add(total.Sum)
	}

	if w.Partition != PartitionDaily {
		return rep
	}

	index := make(map[string]int, len(w.Buckets))
	rep.Buckets = make([]BucketTotals, len(w.Buckets))
	for i, b := range w.Buckets {
		index[b.Label] = i
		rep.Buckets[i] = BucketTotals{
			Label:       b.Label,
			TotalAmount: decimal.Zero,
			Categories:  make(model.CategoryTotals),
		}
	}

	for key, total := range raw {
		i, ok := index[key.Bucket]
		if !ok {
			continue
		}
		bt := &rep.Buckets[i]
		bt.TotalAmount = bt.TotalAmount.Add(total.Sum)
		bt.Count += total.Count
		bt.Categories[key.Category] = sumOrZero(bt.Categories, key.Category).Add(total.Sum)
	}
	return rep
}

func sumOrZero(m model.CategoryTotals, c model.Category) decimal.Decimal {
	if v, ok := m[c]; ok {
		return v
	}
	return decimal.Zero
}
