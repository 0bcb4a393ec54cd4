package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hostguard/internal/platform/config"
	"hostguard/internal/quota/models"
	quotaStore "hostguard/internal/quota/store"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/requestcontext"
)

// =============================================================================
// Quota Service Test Suite
// =============================================================================
// Justification for unit tests: the deny rule (expired AND exhausted) and the
// floor-at-zero decrement are easy to get subtly wrong and are exercised here at
// every boundary without the orchestrator in the way.

type fakeSubscriptions map[id.UserID]time.Time

func (f fakeSubscriptions) SubscriptionExpiry(_ context.Context, userID id.UserID) (*time.Time, error) {
	if e, ok := f[userID]; ok {
		return &e, nil
	}
	return nil, nil
}

type QuotaServiceSuite struct {
	suite.Suite
	store   *quotaStore.InMemoryStore
	subs    fakeSubscriptions
	service *Service
	now     time.Time
	ctx     context.Context
}

func TestQuotaServiceSuite(t *testing.T) {
	suite.Run(t, new(QuotaServiceSuite))
}

func (s *QuotaServiceSuite) SetupTest() {
	s.store = quotaStore.NewInMemoryStore()
	s.subs = fakeSubscriptions{}
	var err error
	s.service, err = New(s.store, s.subs, config.Default().Quota)
	s.Require().NoError(err)
	s.now = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *QuotaServiceSuite) TestNew() {
	s.Run("nil store", func() {
		_, err := New(nil, s.subs, config.Default().Quota)
		s.ErrorContains(err, "trial store is required")
	})
	s.Run("nil subscriptions", func() {
		_, err := New(s.store, nil, config.Default().Quota)
		s.ErrorContains(err, "subscription reader is required")
	})
	s.Run("zero trial count", func() {
		_, err := New(s.store, s.subs, config.Quota{TrialPeriod: time.Hour})
		s.Error(err)
	})
}

func (s *QuotaServiceSuite) TestCheckAndReserveCreatesTrialLazily() {
	userID := id.UserID(uuid.New())

	decision, err := s.service.CheckAndReserve(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(models.DecisionAllowed, decision.Kind)
	s.Equal(3, decision.Remaining)

	trial, err := s.store.Get(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().NotNil(trial)
	s.Equal(s.now.Add(7*24*time.Hour), *trial.Expiry)
	s.Equal(3, trial.Count, "checking never consumes")
}

func (s *QuotaServiceSuite) TestCheckAndReserveBoundaries() {
	past := s.now.Add(-time.Minute)
	future := s.now.Add(time.Minute)

	tests := []struct {
		name         string
		count        int
		expiry       *time.Time
		subscription *time.Time
		want         models.DecisionKind
	}{
		{"active subscription is unlimited", 0, &past, &future, models.DecisionUnlimited},
		{"lapsed subscription falls through to trial", 0, &past, &past, models.DecisionDenied},
		{"within window with count", 2, &future, nil, models.DecisionAllowed},
		{"within window exhausted is lenient", 0, &future, nil, models.DecisionAllowed},
		{"expired with count is lenient", 1, &past, nil, models.DecisionAllowed},
		{"expired and exhausted", 0, &past, nil, models.DecisionDenied},
		{"legacy trial without expiry", 0, nil, nil, models.DecisionAllowed},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			userID := id.UserID(uuid.New())
			_, err := s.store.GetOrCreate(s.ctx, &models.TrialState{UserID: userID, Count: tt.count, Expiry: tt.expiry})
			s.Require().NoError(err)
			if tt.subscription != nil {
				s.subs[userID] = *tt.subscription
			}

			decision, err := s.service.CheckAndReserve(s.ctx, userID)
			s.Require().NoError(err)
			s.Equal(tt.want, decision.Kind)
			if tt.want == models.DecisionAllowed {
				s.Equal(tt.count, decision.Remaining)
			}
			s.Equal(tt.want != models.DecisionDenied, decision.Permits())
		})
	}
}

func (s *QuotaServiceSuite) TestConsume() {
	userID := id.UserID(uuid.New())
	_, err := s.service.CheckAndReserve(s.ctx, userID)
	s.Require().NoError(err)

	trial, err := s.service.Consume(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(2, trial.Count)

	_, err = s.service.Consume(s.ctx, id.UserID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *QuotaServiceSuite) TestConcurrentConsumeFloorsAtZero() {
	userID := id.UserID(uuid.New())
	_, err := s.service.CheckAndReserve(s.ctx, userID)
	s.Require().NoError(err)

	const goroutines = 50
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			_, err := s.service.Consume(s.ctx, userID)
			s.NoError(err)
		}()
	}
	wg.Wait()

	trial, err := s.store.Get(s.ctx, userID)
	s.Require().NoError(err)
	s.Equal(0, trial.Count)
}

func (s *QuotaServiceSuite) TestStatus() {
	userID := id.UserID(uuid.New())

	status, err := s.service.Status(s.ctx, userID)
	s.Require().NoError(err)
	s.False(status.Unlimited)
	s.Equal(3, status.Trial.Count)

	stored, err := s.store.Get(s.ctx, userID)
	s.Require().NoError(err)
	s.Nil(stored, "status never creates a trial")

	s.subs[userID] = s.now.Add(time.Hour)
	status, err = s.service.Status(s.ctx, userID)
	s.Require().NoError(err)
	s.True(status.Unlimited)
}
