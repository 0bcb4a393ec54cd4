// Package service applies per-class sliding-window limits keyed by caller.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hostguard/internal/ratelimit/models"
	dErrors "hostguard/pkg/domain-errors"
)

// BucketStore counts requests in a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
}

type Service struct {
	store  BucketStore
	limits map[models.Class]models.Limit
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithLimit overrides the limit for one class. Non-positive values disable the class.
func WithLimit(class models.Class, limit models.Limit) Option {
	return func(s *Service) {
		s.limits[class] = limit
	}
}

func New(store BucketStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "bucket store is required")
	}
	svc := &Service{
		store: store,
		limits: map[models.Class]models.Limit{
			models.ClassVerify:  {Requests: 30, Window: time.Minute},
			models.ClassWebhook: {Requests: 600, Window: time.Minute},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Check counts one request for key under class. A nil result means the class is unlimited.
func (s *Service) Check(ctx context.Context, class models.Class, key string) (*models.Result, error) {
	limit, ok := s.limits[class]
	if !ok || limit.Requests <= 0 || limit.Window <= 0 {
		return nil, nil
	}
	result, err := s.store.Allow(ctx, fmt.Sprintf("%s:%s", class, key), limit.Requests, limit.Window)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		s.logger.WarnContext(ctx, "rate limit exceeded",
			"class", class,
			"limit", limit.Requests,
			"retry_after", result.RetryAfter,
		)
	}
	return result, nil
}
