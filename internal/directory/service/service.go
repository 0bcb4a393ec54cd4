// Package service implements the client directory: exact and fuzzy client lookup,
// idempotent create-or-get keyed on the national ID, contacts and aliases.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"hostguard/internal/directory/models"
	"hostguard/internal/platform/metrics"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/audit"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/requestcontext"
)

// Store is the persistence contract for clients, aliases and contacts.
// Lookups return nil, nil when nothing matches.
type Store interface {
	FindByIDNumber(ctx context.Context, idNumber string) (*models.Client, error)
	FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error)
	ListByName(ctx context.Context, firstName, lastName string) ([]*models.Client, error)
	Create(ctx context.Context, c *models.Client) error
	FillBlankNames(ctx context.Context, c *models.Client) (*models.Client, error)
	UpsertContact(ctx context.Context, contact *models.ClientContact) (*models.ClientContact, error)
	ListContacts(ctx context.Context, clientID id.ClientID) ([]*models.ClientContact, error)
	AddAlias(ctx context.Context, alias *models.NameAlias) error
	ListAliases(ctx context.Context, clientID id.ClientID) ([]*models.NameAlias, error)
}

type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithAuditor publishes client_created events.
func WithAuditor(e audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = e
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("client store is required")
	}
	svc := &Service{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// FindByIdentifier returns the client holding idNumber, or nil.
func (s *Service) FindByIdentifier(ctx context.Context, idNumber string) (*models.Client, error) {
	idNumber = strings.TrimSpace(idNumber)
	if idNumber == "" {
		return nil, nil
	}
	c, err := s.store.FindByIDNumber(ctx, idNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up client")
	}
	return c, nil
}

func (s *Service) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	c, err := s.store.FindByID(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up client")
	}
	return c, nil
}

// FindByNameAndContact returns the first client, in storage order, whose first
// name matches and whose contacts satisfy every supplied phone/email filter.
func (s *Service) FindByNameAndContact(ctx context.Context, q models.NameQuery) (*models.Client, error) {
	first := strings.TrimSpace(q.FirstName)
	if first == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	candidates, err := s.store.ListByName(ctx, first, strings.TrimSpace(q.LastName))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search clients")
	}

	phone := id.NormalizePhone(q.Phone)
	email := strings.TrimSpace(q.Email)
	if phone == "" && email == "" {
		if len(candidates) == 0 {
			return nil, nil
		}
		return candidates[0], nil
	}

	for _, c := range candidates {
		contacts, err := s.store.ListContacts(ctx, c.ID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client contacts")
		}
		if matchesContacts(contacts, phone, email) {
			return c, nil
		}
	}
	return nil, nil
}

func matchesContacts(contacts []*models.ClientContact, phone, email string) bool {
	phoneOK, emailOK := phone == "", email == ""
	for _, ct := range contacts {
		switch ct.Type {
		case models.ContactPhone:
			if phone != "" && ct.Value == phone {
				phoneOK = true
			}
		case models.ContactEmail:
			if email != "" && strings.EqualFold(ct.Value, email) {
				emailOK = true
			}
		}
	}
	return phoneOK && emailOK
}

// CreateOrGet returns the client for in.IDNumber, creating it when absent and
// filling blank name fields when present. created reports whether a new row was
// inserted. An empty IDNumber always creates.
func (s *Service) CreateOrGet(ctx context.Context, in models.ClientInput) (*models.Client, bool, error) {
	in = in.Normalize()

	if in.IDNumber != "" {
		existing, err := s.store.FindByIDNumber(ctx, in.IDNumber)
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up client")
		}
		if existing != nil {
			c, err := s.backfill(ctx, existing, in)
			return c, false, err
		}
	}

	now := requestcontext.Now(ctx)
	c := &models.Client{
		ID:        id.ClientID(uuid.New()),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Surname:   in.Surname,
		IDNumber:  in.IDNumber,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.store.Create(ctx, c)
	if errors.Is(err, sentinel.ErrConflict) {
		// Lost the race on the id_number unique index; the winner's row is authoritative.
		existing, lookupErr := s.store.FindByIDNumber(ctx, in.IDNumber)
		if lookupErr != nil {
			return nil, false, dErrors.Wrap(lookupErr, dErrors.CodeInternal, "failed to look up client")
		}
		if existing == nil {
			return nil, false, dErrors.New(dErrors.CodeConflict, "client was created concurrently but could not be read back")
		}
		c, err := s.backfill(ctx, existing, in)
		return c, false, err
	}
	if err != nil {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create client")
	}

	s.metrics.IncrementClientsCreated()
	s.logger.InfoContext(ctx, "client created",
		"request_id", requestcontext.RequestID(ctx),
		"client_id", c.ID,
	)
	s.emit(ctx, audit.Event{
		Action:      audit.ActionClientCreated,
		UserID:      requestcontext.UserID(ctx),
		ClientID:    c.ID.String(),
		SubjectHash: audit.HashSubject(c.IDNumber),
	})
	return c, true, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.Timestamp = requestcontext.Now(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", event.RequestID,
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) backfill(ctx context.Context, existing *models.Client, in models.ClientInput) (*models.Client, error) {
	candidate := *existing
	if !candidate.Backfill(in) {
		return existing, nil
	}
	candidate.UpdatedAt = requestcontext.Now(ctx)
	updated, err := s.store.FillBlankNames(ctx, &candidate)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update client names")
	}
	return updated, nil
}

// UpsertContact sets the current value of one contact type for a client.
func (s *Service) UpsertContact(ctx context.Context, clientID id.ClientID, contactType models.ContactType, value string) (*models.ClientContact, error) {
	value = models.NormalizeContactValue(contactType, value)
	if value == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "contact value is required")
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	contact, err := s.store.UpsertContact(ctx, &models.ClientContact{
		ID:        id.ContactID(uuid.New()),
		ClientID:  clientID,
		Type:      contactType,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save client contact")
	}
	return contact, nil
}

// AddAlias records an alternate name for a client.
func (s *Service) AddAlias(ctx context.Context, clientID id.ClientID, firstName, lastName string) (*models.NameAlias, error) {
	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "first_name is required")
	}
	if err := s.requireClient(ctx, clientID); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	alias := &models.NameAlias{
		ID:        id.AliasID(uuid.New()),
		ClientID:  clientID,
		FirstName: firstName,
		LastName:  strings.TrimSpace(lastName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.AddAlias(ctx, alias); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save client alias")
	}
	return alias, nil
}

func (s *Service) Aliases(ctx context.Context, clientID id.ClientID) ([]*models.NameAlias, error) {
	aliases, err := s.store.ListAliases(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client aliases")
	}
	return aliases, nil
}

// Profile returns the client with aliases and contacts, or nil when unknown.
func (s *Service) Profile(ctx context.Context, clientID id.ClientID) (*models.Profile, error) {
	c, err := s.FindByID(ctx, clientID)
	if err != nil || c == nil {
		return nil, err
	}
	aliases, err := s.Aliases(ctx, clientID)
	if err != nil {
		return nil, err
	}
	contacts, err := s.store.ListContacts(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load client contacts")
	}
	if contacts == nil {
		contacts = []*models.ClientContact{}
	}
	return &models.Profile{Client: c, Aliases: aliases, Contacts: contacts}, nil
}

func (s *Service) requireClient(ctx context.Context, clientID id.ClientID) error {
	c, err := s.FindByID(ctx, clientID)
	if err != nil {
		return err
	}
	if c == nil {
		return dErrors.New(dErrors.CodeNotFound, "client not found")
	}
	return nil
}
