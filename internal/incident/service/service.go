package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	directoryModels "hostguard/internal/directory/models"
	"hostguard/internal/incident/models"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/audit"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, incidentID id.IncidentID) (*models.Incident, error)
	RecentByClient(ctx context.Context, clientID id.ClientID, limit int) ([]*models.Incident, error)
	AttachClient(ctx context.Context, incidentID id.IncidentID, clientID id.ClientID) (*models.Incident, error)
}

// ClientLookup confirms a client exists before an incident is linked to it.
type ClientLookup interface {
	FindByID(ctx context.Context, clientID id.ClientID) (*directoryModels.Client, error)
}

type Service struct {
	store   Store
	clients ClientLookup
	logger  *slog.Logger
	auditor audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditor(e audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = e
	}
}

func New(store Store, clients ClientLookup, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("incident store is required")
	}
	if clients == nil {
		return nil, fmt.Errorf("client lookup is required")
	}
	svc := &Service{store: store, clients: clients, logger: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RecentByClient returns the client's most recent incidents, newest first.
func (s *Service) RecentByClient(ctx context.Context, clientID id.ClientID) ([]*models.Incident, error) {
	incidents, err := s.store.RecentByClient(ctx, clientID, models.RecentLimit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load incidents")
	}
	return incidents, nil
}

// AttachClient links an incident to a known client.
func (s *Service) AttachClient(ctx context.Context, incidentID id.IncidentID, clientID id.ClientID) (*models.Incident, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up client")
	}
	if client == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "client not found")
	}

	inc, err := s.store.AttachClient(ctx, incidentID, clientID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "incident not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to link incident")
	}
	s.logger.InfoContext(ctx, "incident linked to client",
		"request_id", requestcontext.RequestID(ctx),
		"incident_id", incidentID,
		"client_id", clientID,
	)
	if s.auditor != nil {
		event := audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Action:    audit.ActionIncidentLinked,
			UserID:    requestcontext.UserID(ctx),
			RequestID: requestcontext.RequestID(ctx),
			ClientID:  clientID.String(),
			Reason:    incidentID.String(),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event",
				"request_id", event.RequestID,
				"action", event.Action,
				"error", err,
			)
		}
	}
	return inc, nil
}
