//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hostguard/internal/quota/models"
	"hostguard/internal/quota/store"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "free_trials"))
}

// TestConcurrentDecrement verifies that 50 concurrent consumes of a 3-count trial
// succeed and leave the count at exactly zero.
func (s *PostgresStoreSuite) TestConcurrentDecrement() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	_, err := s.store.GetOrCreate(ctx, models.NewTrial(userID, 3, 7*24*time.Hour, time.Now()))
	s.Require().NoError(err)

	const goroutines = 50
	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.store.Decrement(ctx, userID, time.Now()); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	got, err := s.store.Get(ctx, userID)
	s.Require().NoError(err)
	s.Equal(0, got.Count)
}

func (s *PostgresStoreSuite) TestGetOrCreateKeepsExistingRow() {
	ctx := context.Background()
	userID := id.UserID(uuid.New())
	now := time.Now().UTC().Truncate(time.Microsecond)

	first, err := s.store.GetOrCreate(ctx, models.NewTrial(userID, 3, time.Hour, now))
	s.Require().NoError(err)
	_, err = s.store.Decrement(ctx, userID, now)
	s.Require().NoError(err)

	again, err := s.store.GetOrCreate(ctx, models.NewTrial(userID, 3, time.Hour, now.Add(time.Hour)))
	s.Require().NoError(err)
	s.Equal(2, again.Count)
	s.True(first.Expiry.Equal(*again.Expiry))
}

func (s *PostgresStoreSuite) TestMissingTrial() {
	ctx := context.Background()
	got, err := s.store.Get(ctx, id.UserID(uuid.New()))
	s.Require().NoError(err)
	s.Nil(got)

	_, err = s.store.Decrement(ctx, id.UserID(uuid.New()), time.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}
