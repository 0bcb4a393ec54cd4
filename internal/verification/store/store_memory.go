package store

import (
	"context"
	"maps"
	"sort"
	"sync"

	"hostguard/internal/verification/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
)

// InMemoryStore keeps verification requests in memory for dev and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.VerificationID]*models.VerificationRequest
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.VerificationID]*models.VerificationRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, v *models.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[v.ID]; exists {
		return sentinel.ErrConflict
	}
	s.requests[v.ID] = copyRequest(v)
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, v *models.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.requests[v.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.requests[v.ID] = copyRequest(v)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, verificationID id.VerificationID) (*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.requests[verificationID]; ok {
		return copyRequest(v), nil
	}
	return nil, nil
}

// ListByRequester returns up to limit requests made by userID, newest first.
func (s *InMemoryStore) ListByRequester(_ context.Context, userID id.UserID, limit int) ([]*models.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.VerificationRequest, 0)
	for _, v := range s.requests {
		if v.RequestedBy != nil && *v.RequestedBy == userID {
			out = append(out, copyRequest(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func copyRequest(v *models.VerificationRequest) *models.VerificationRequest {
	c := *v
	c.ResponseData = maps.Clone(v.ResponseData)
	c.RelatedIncidents = append([]id.IncidentID(nil), v.RelatedIncidents...)
	if v.RequestedBy != nil {
		u := *v.RequestedBy
		c.RequestedBy = &u
	}
	if v.ClientID != nil {
		cl := *v.ClientID
		c.ClientID = &cl
	}
	if v.CompletedAt != nil {
		t := *v.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
