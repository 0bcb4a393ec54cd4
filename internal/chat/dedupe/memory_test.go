package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Hour)
	m.now = func() time.Time { return now }

	first, err := m.FirstSeen(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := m.FirstSeen(ctx, "wamid.1")
	require.NoError(t, err)
	assert.False(t, again)

	now = now.Add(2 * time.Hour)
	expired, err := m.FirstSeen(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, expired, "ids are forgotten after the ttl")

	empty, err := m.FirstSeen(ctx, "")
	require.NoError(t, err)
	assert.True(t, empty)
}

func TestMemoryConcurrent(t *testing.T) {
	m := NewMemory(time.Hour)
	var firsts atomic.Int32
	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.FirstSeen(context.Background(), "wamid.same")
			assert.NoError(t, err)
			if ok {
				firsts.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), firsts.Load())
}
