package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostguard/internal/quota/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	t.Run("get or create keeps the first row", func(t *testing.T) {
		store := NewInMemoryStore()
		userID := id.UserID(uuid.New())
		first, err := store.GetOrCreate(ctx, models.NewTrial(userID, 3, time.Hour, now))
		require.NoError(t, err)
		second, err := store.GetOrCreate(ctx, models.NewTrial(userID, 10, time.Hour, now.Add(time.Minute)))
		require.NoError(t, err)
		assert.Equal(t, 3, second.Count)
		assert.Equal(t, *first.Expiry, *second.Expiry)
	})

	t.Run("missing trial", func(t *testing.T) {
		store := NewInMemoryStore()
		got, err := store.Get(ctx, id.UserID(uuid.New()))
		require.NoError(t, err)
		assert.Nil(t, got)

		_, err = store.Decrement(ctx, id.UserID(uuid.New()), now)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("returned rows are copies", func(t *testing.T) {
		store := NewInMemoryStore()
		userID := id.UserID(uuid.New())
		got, err := store.GetOrCreate(ctx, models.NewTrial(userID, 3, time.Hour, now))
		require.NoError(t, err)
		got.Count = 99
		*got.Expiry = now.Add(1000 * time.Hour)

		again, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 3, again.Count)
		assert.Equal(t, now.Add(time.Hour), *again.Expiry)
	})
}

func TestInMemoryStore_ConcurrentDecrement(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	userID := id.UserID(uuid.New())
	_, err := store.GetOrCreate(ctx, models.NewTrial(userID, 3, time.Hour, time.Now()))
	require.NoError(t, err)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Decrement(ctx, userID, time.Now())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Count, "count floors at zero under contention")
}
