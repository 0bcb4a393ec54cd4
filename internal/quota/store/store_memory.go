package store

import (
	"context"
	"sync"
	"time"

	"hostguard/internal/quota/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
)

// InMemoryStore holds trial state behind a single mutex, which plays the role
// of the Postgres row lock.
type InMemoryStore struct {
	mu     sync.Mutex
	trials map[id.UserID]*models.TrialState
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{trials: make(map[id.UserID]*models.TrialState)}
}

func (s *InMemoryStore) Get(_ context.Context, userID id.UserID) (*models.TrialState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trials[userID]; ok {
		return copyTrial(t), nil
	}
	return nil, nil
}

// GetOrCreate stores initial when the user has no trial yet and returns the stored row.
func (s *InMemoryStore) GetOrCreate(_ context.Context, initial *models.TrialState) (*models.TrialState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.trials[initial.UserID]; ok {
		return copyTrial(t), nil
	}
	s.trials[initial.UserID] = copyTrial(initial)
	return copyTrial(initial), nil
}

// Decrement lowers the count by one, never below zero.
func (s *InMemoryStore) Decrement(_ context.Context, userID id.UserID, now time.Time) (*models.TrialState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trials[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if t.Count > 0 {
		t.Count--
	}
	t.UpdatedAt = now
	return copyTrial(t), nil
}

func copyTrial(t *models.TrialState) *models.TrialState {
	cp := *t
	if t.Expiry != nil {
		e := *t.Expiry
		cp.Expiry = &e
	}
	return &cp
}
