// Package service is the verification quota gate: an active subscription is
// unlimited, otherwise a lazily created free trial is checked and consumed.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hostguard/internal/platform/config"
	"hostguard/internal/platform/metrics"
	"hostguard/internal/quota/models"
	id "hostguard/pkg/domain"
	dErrors "hostguard/pkg/domain-errors"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/requestcontext"
)

// Store persists free-trial state. Get returns nil, nil when absent.
type Store interface {
	Get(ctx context.Context, userID id.UserID) (*models.TrialState, error)
	GetOrCreate(ctx context.Context, initial *models.TrialState) (*models.TrialState, error)
	Decrement(ctx context.Context, userID id.UserID, now time.Time) (*models.TrialState, error)
}

// SubscriptionReader reports a user's subscription expiry, nil when never subscribed.
type SubscriptionReader interface {
	SubscriptionExpiry(ctx context.Context, userID id.UserID) (*time.Time, error)
}

const (
	reasonTrialEnded = "free trial ended"
)

type Service struct {
	store         Store
	subscriptions SubscriptionReader
	trialCount    int
	trialPeriod   time.Duration
	logger        *slog.Logger
	metrics       *metrics.Metrics
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

func New(store Store, subscriptions SubscriptionReader, cfg config.Quota, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("trial store is required")
	}
	if subscriptions == nil {
		return nil, fmt.Errorf("subscription reader is required")
	}
	if cfg.TrialCount <= 0 || cfg.TrialPeriod <= 0 {
		return nil, fmt.Errorf("trial count and period must be positive")
	}
	svc := &Service{
		store:         store,
		subscriptions: subscriptions,
		trialCount:    cfg.TrialCount,
		trialPeriod:   cfg.TrialPeriod,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckAndReserve decides whether userID may run a verification now. It creates
// the trial on first use but never consumes it.
func (s *Service) CheckAndReserve(ctx context.Context, userID id.UserID) (models.Decision, error) {
	now := requestcontext.Now(ctx)

	expiry, err := s.subscriptions.SubscriptionExpiry(ctx, userID)
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	if expiry != nil && expiry.After(now) {
		s.metrics.IncrementQuotaDecision(string(models.DecisionUnlimited))
		return models.Decision{Kind: models.DecisionUnlimited, SubscriptionExpiry: expiry}, nil
	}

	trial, err := s.store.GetOrCreate(ctx, models.NewTrial(userID, s.trialCount, s.trialPeriod, now))
	if err != nil {
		return models.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load free trial")
	}

	if trial.Denies(now) {
		s.metrics.IncrementQuotaDecision(string(models.DecisionDenied))
		s.logger.InfoContext(ctx, "verification quota exceeded",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
		)
		return models.Decision{
			Kind:               models.DecisionDenied,
			Reason:             reasonTrialEnded,
			SubscriptionExpiry: expiry,
		}, nil
	}

	s.metrics.IncrementQuotaDecision(string(models.DecisionAllowed))
	return models.Decision{Kind: models.DecisionAllowed, Remaining: trial.Count, SubscriptionExpiry: expiry}, nil
}

// Consume spends one trial verification, floored at zero.
func (s *Service) Consume(ctx context.Context, userID id.UserID) (*models.TrialState, error) {
	trial, err := s.store.Decrement(ctx, userID, requestcontext.Now(ctx))
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "free trial not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume free trial")
	}
	s.metrics.IncrementTrialsConsumed()
	return trial, nil
}

// Status returns the subscription and trial view without creating a trial.
func (s *Service) Status(ctx context.Context, userID id.UserID) (*models.Status, error) {
	now := requestcontext.Now(ctx)
	expiry, err := s.subscriptions.SubscriptionExpiry(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subscription")
	}
	trial, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load free trial")
	}
	if trial == nil {
		trial = models.NewTrial(userID, s.trialCount, s.trialPeriod, now)
	}
	return &models.Status{
		Unlimited:          expiry != nil && expiry.After(now),
		SubscriptionExpiry: expiry,
		Trial:              trial,
	}, nil
}
