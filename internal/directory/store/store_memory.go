package store

import (
	"context"
	"strings"
	"sync"

	"hostguard/internal/directory/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
)

// InMemoryStore keeps clients in insertion order so name lookups have the same
// deterministic first-match behaviour as the Postgres store.
type InMemoryStore struct {
	mu         sync.RWMutex
	clients    []*models.Client
	byID       map[id.ClientID]*models.Client
	byIDNumber map[string]*models.Client
	contacts   map[id.ClientID]map[models.ContactType]*models.ClientContact
	aliases    map[id.ClientID][]*models.NameAlias
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[id.ClientID]*models.Client),
		byIDNumber: make(map[string]*models.Client),
		contacts:   make(map[id.ClientID]map[models.ContactType]*models.ClientContact),
		aliases:    make(map[id.ClientID][]*models.NameAlias),
	}
}

func (s *InMemoryStore) FindByIDNumber(_ context.Context, idNumber string) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byIDNumber[idNumber]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, clientID id.ClientID) (*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.byID[clientID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (s *InMemoryStore) ListByName(_ context.Context, firstName, lastName string) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Client
	for _, c := range s.clients {
		if !strings.EqualFold(c.FirstName, firstName) {
			continue
		}
		if lastName != "" && !strings.EqualFold(c.LastName, lastName) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) Create(_ context.Context, c *models.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IDNumber != "" {
		if _, exists := s.byIDNumber[c.IDNumber]; exists {
			return sentinel.ErrConflict
		}
	}
	cp := *c
	s.clients = append(s.clients, &cp)
	s.byID[cp.ID] = &cp
	if cp.IDNumber != "" {
		s.byIDNumber[cp.IDNumber] = &cp
	}
	return nil
}

func (s *InMemoryStore) FillBlankNames(_ context.Context, c *models.Client) (*models.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.byID[c.ID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	stored.Backfill(models.ClientInput{FirstName: c.FirstName, LastName: c.LastName, Surname: c.Surname})
	stored.UpdatedAt = c.UpdatedAt
	cp := *stored
	return &cp, nil
}

func (s *InMemoryStore) UpsertContact(_ context.Context, contact *models.ClientContact) (*models.ClientContact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[contact.ClientID]; !ok {
		return nil, sentinel.ErrNotFound
	}
	byType, ok := s.contacts[contact.ClientID]
	if !ok {
		byType = make(map[models.ContactType]*models.ClientContact)
		s.contacts[contact.ClientID] = byType
	}
	if existing, ok := byType[contact.Type]; ok {
		existing.Value = contact.Value
		existing.UpdatedAt = contact.UpdatedAt
		cp := *existing
		return &cp, nil
	}
	cp := *contact
	byType[contact.Type] = &cp
	out := cp
	return &out, nil
}

func (s *InMemoryStore) ListContacts(_ context.Context, clientID id.ClientID) ([]*models.ClientContact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.ClientContact
	for _, t := range []models.ContactType{models.ContactPhone, models.ContactEmail, models.ContactAddress, models.ContactEmergency} {
		if c, ok := s.contacts[clientID][t]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) AddAlias(_ context.Context, alias *models.NameAlias) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[alias.ClientID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *alias
	s.aliases[alias.ClientID] = append(s.aliases[alias.ClientID], &cp)
	return nil
}

func (s *InMemoryStore) ListAliases(_ context.Context, clientID id.ClientID) ([]*models.NameAlias, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.NameAlias, 0, len(s.aliases[clientID]))
	for _, a := range s.aliases[clientID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}
