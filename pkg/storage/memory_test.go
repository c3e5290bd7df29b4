package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ogulcanaydogan/expense-tracker/pkg/model"
	"github.com/ogulcanaydogan/expense-tracker/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	runStoreTests(t, func(t *testing.T) storage.Storage { return storage.NewMemory() })
}

func TestMemory_ConcurrentWritesAndSums(t *testing.T) {
	s := storage.NewMemory()
	ctx := context.Background()
	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.AddExpense(ctx, expense("alice", "2", model.CategoryFood, day.Add(time.Duration(i)*time.Minute))))
			_, err := s.GroupSum(ctx, model.GroupQuery{OwnerID: "alice", Start: day, End: day.AddDate(0, 0, 1)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	groups, err := s.GroupSum(ctx, model.GroupQuery{OwnerID: "alice", Start: day, End: day.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "100", groups[0].Sum.String())
	assert.Equal(t, int64(50), groups[0].Count)
}
