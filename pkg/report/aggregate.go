package report

import (
	"context"
	"fmt"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/shopspring/decimal"
)

// Store is the grouped-sum capability reports are computed from.
// Implementations must treat [Start, End) and every bucket as half-open.
type Store interface {
	GroupSum(ctx context.Context, q model.GroupQuery) ([]model.Group, error)
}

// GroupKey identifies one aggregated cell. Bucket is empty for single-partition windows.
type GroupKey struct {
	Bucket   string
	Category model.Category
}

// GroupTotal is the summed amount and record count of one cell.
type GroupTotal struct {
	Sum   decimal.Decimal
	Count int64
}

// RawGroups holds grouped totals as returned by the store.
type RawGroups map[GroupKey]GroupTotal

// Aggregator fetches grouped totals for resolved windows.
type Aggregator struct {
	store Store
}

// NewAggregator creates an aggregator backed by store.
func NewAggregator(store Store) *Aggregator {
	return &Aggregator{store: store}
}

// Aggregate runs one grouped-sum query for the owner's expenses inside w.
// Empty windows return no groups without touching the store.
func (a *Aggregator) Aggregate(ctx context.Context, ownerID string, w Window) (RawGroups, error) {
	raw := make(RawGroups)
	if w.Empty() {
		return raw, nil
	}

	q := model.GroupQuery{OwnerID: ownerID, Start: w.Start, End: w.End}
	if w.Partition == PartitionDaily {
		q.Buckets = w.Buckets
	}

	groups, err := a.store.GroupSum(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("group sum for %s window: %w", w.Kind, err)
	}

	for _, g := range groups {
		key := GroupKey{Bucket: g.Bucket, Category: g.Category}
		cur := raw[key]
		raw[key] = GroupTotal{Sum: cur.Sum.Add(g.Sum), Count: cur.Count + g.Count}
	}
	return raw, nil
}
