package store

import (
	"context"
	"sync"
	"time"

	"hostguard/internal/accounts/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
)

// InMemoryStore keeps users and subscriptions for dev and tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	users         map[id.UserID]*models.User
	subscriptions map[id.UserID]*models.Subscription
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		users:         make(map[id.UserID]*models.User),
		subscriptions: make(map[id.UserID]*models.Subscription),
	}
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if u, ok := s.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// FindByPhone returns the earliest-created user with the given phone.
func (s *InMemoryStore) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.User
	for _, u := range s.users {
		if u.Phone != phone {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) {
			found = u
		}
	}
	if found == nil {
		return nil, nil
	}
	cp := *found
	return &cp, nil
}

func (s *InMemoryStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindSubscription(_ context.Context, userID id.UserID) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sub, ok := s.subscriptions[userID]; ok {
		cp := *sub
		return &cp, nil
	}
	return nil, nil
}

// ExtendSubscription applies models.ExtendedExpiry atomically.
func (s *InMemoryStore) ExtendSubscription(_ context.Context, userID id.UserID, now time.Time, period time.Duration) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	var current *time.Time
	if sub, ok := s.subscriptions[userID]; ok {
		current = &sub.ExpiresAt
	}
	sub := &models.Subscription{
		UserID:    userID,
		ExpiresAt: models.ExtendedExpiry(current, now, period),
		UpdatedAt: now,
	}
	s.subscriptions[userID] = sub
	cp := *sub
	return &cp, nil
}
