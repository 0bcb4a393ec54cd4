// Package service resolves requesters to registered users and manages their subscriptions.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hostguard/internal/accounts/models"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/audit"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/requestcontext"
)

// Store persists users and subscriptions. Lookups return nil, nil when absent.
type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
	FindSubscription(ctx context.Context, userID id.UserID) (*models.Subscription, error)
	ExtendSubscription(ctx context.Context, userID id.UserID, now time.Time, period time.Duration) (*models.Subscription, error)
}

type Service struct {
	store              Store
	subscriptionPeriod time.Duration
	logger             *slog.Logger
	auditor            audit.Emitter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithSubscriptionPeriod(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.subscriptionPeriod = d
		}
	}
}

func WithAuditor(e audit.Emitter) Option {
	return func(s *Service) {
		s.auditor = e
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("account store is required")
	}
	svc := &Service{
		store:              store,
		subscriptionPeriod: 30 * 24 * time.Hour,
		logger:             slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Resolve returns the requester: the authenticated user when userID is set,
// otherwise the user registered with phone. nil means unregistered.
func (s *Service) Resolve(ctx context.Context, userID id.UserID, phone string) (*models.User, error) {
	if !userID.IsNil() {
		u, err := s.store.FindByID(ctx, userID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user")
		}
		if u != nil {
			return u, nil
		}
	}
	return s.ResolveByPhone(ctx, phone)
}

func (s *Service) ResolveByPhone(ctx context.Context, phone string) (*models.User, error) {
	normalized := id.NormalizePhone(phone)
	if normalized == "" {
		return nil, nil
	}
	u, err := s.store.FindByPhone(ctx, normalized)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up user by phone")
	}
	return u, nil
}

// CreateUser registers a user. Phone is normalized before storage.
func (s *Service) CreateUser(ctx context.Context, email, phone string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = id.NormalizePhone(phone)
	if email == "" && phone == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "email or phone is required")
	}
	u := &models.User{
		ID:        id.UserID(uuid.New()),
		Email:     email,
		Phone:     phone,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	s.logger.InfoContext(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// SubscriptionExpiry returns the user's subscription expiry, or nil when the user
// never subscribed.
func (s *Service) SubscriptionExpiry(ctx context.Context, userID id.UserID) (*time.Time, error) {
	sub, err := s.store.FindSubscription(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	if sub == nil {
		return nil, nil
	}
	expiry := sub.ExpiresAt
	return &expiry, nil
}

// ExtendSubscription adds one subscription period, stacking on an active subscription.
func (s *Service) ExtendSubscription(ctx context.Context, userID id.UserID) (*models.Subscription, error) {
	sub, err := s.store.ExtendSubscription(ctx, userID, requestcontext.Now(ctx), s.subscriptionPeriod)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to extend subscription")
	}
	s.logger.InfoContext(ctx, "subscription extended",
		"user_id", userID,
		"expires_at", sub.ExpiresAt,
	)
	if s.auditor != nil {
		err := s.auditor.Emit(ctx, audit.Event{
			Timestamp: requestcontext.Now(ctx),
			Action:    audit.ActionSubscriptionExtended,
			UserID:    userID,
			RequestID: requestcontext.RequestID(ctx),
			Reason:    sub.ExpiresAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to emit audit event", "user_id", userID, "error", err)
		}
	}
	return sub, nil
}
