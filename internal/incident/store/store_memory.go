package store

import (
	"context"
	"sort"
	"sync"

	"hostguard/internal/incident/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	incidents map[id.IncidentID]*models.Incident
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{incidents: make(map[id.IncidentID]*models.Incident)}
}

func (s *InMemoryStore) Create(_ context.Context, inc *models.Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.incidents[inc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.incidents[inc.ID] = copyIncident(inc)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, incidentID id.IncidentID) (*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inc, ok := s.incidents[incidentID]; ok {
		return copyIncident(inc), nil
	}
	return nil, nil
}

// RecentByClient returns up to limit incidents for clientID, newest first.
func (s *InMemoryStore) RecentByClient(_ context.Context, clientID id.ClientID, limit int) ([]*models.Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Incident
	for _, inc := range s.incidents {
		if inc.ClientID != nil && *inc.ClientID == clientID {
			out = append(out, copyIncident(inc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ReportedAt.Equal(out[j].ReportedAt) {
			return out[i].ID.String() > out[j].ID.String()
		}
		return out[i].ReportedAt.After(out[j].ReportedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) AttachClient(_ context.Context, incidentID id.IncidentID, clientID id.ClientID) (*models.Incident, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inc, ok := s.incidents[incidentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := clientID
	inc.ClientID = &c
	return copyIncident(inc), nil
}

func copyIncident(inc *models.Incident) *models.Incident {
	cp := *inc
	if inc.ClientID != nil {
		c := *inc.ClientID
		cp.ClientID = &c
	}
	return &cp
}
