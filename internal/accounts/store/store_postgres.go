package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hostguard/internal/accounts/models"
	"hostguard/internal/platform/postgres"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/platform/tx"
)

// PostgresStore persists users and subscriptions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanUser(row *sql.Row) (*models.User, error) {
	var (
		u     models.User
		rawID uuid.UUID
	)
	if err := row.Scan(&rawID, &u.Email, &u.Phone, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ID = id.UserID(rawID)
	return &u, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT id, email, phone, created_at FROM users WHERE id = $1`, uuid.UUID(userID))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `
		SELECT id, email, phone, created_at
		FROM users
		WHERE phone = $1
		ORDER BY created_at, id
		LIMIT 1
	`
	u, err := scanUser(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, phone))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by phone: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx,
		`INSERT INTO users (id, email, phone, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.UUID(u.ID), u.Email, u.Phone, u.CreatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSubscription(ctx context.Context, userID id.UserID) (*models.Subscription, error) {
	var sub models.Subscription
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT expires_at, updated_at FROM subscriptions WHERE user_id = $1`, uuid.UUID(userID),
	).Scan(&sub.ExpiresAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find subscription: %w", err)
	}
	sub.UserID = userID
	return &sub, nil
}

// ExtendSubscription moves the expiry to max(now, expiry) + period in one statement.
func (s *PostgresStore) ExtendSubscription(ctx context.Context, userID id.UserID, now time.Time, period time.Duration) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (user_id, expires_at, updated_at)
		VALUES ($1, $2::timestamptz + make_interval(secs => $3), $2)
		ON CONFLICT (user_id) DO UPDATE SET
			expires_at = GREATEST(subscriptions.expires_at, $2::timestamptz) + make_interval(secs => $3),
			updated_at = $2
		RETURNING expires_at, updated_at
	`
	sub := models.Subscription{UserID: userID}
	err := tx.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(userID), now, period.Seconds()).
		Scan(&sub.ExpiresAt, &sub.UpdatedAt)
	if err != nil {
		if postgres.IsForeignKeyViolation(err) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("extend subscription: %w", err)
	}
	return &sub, nil
}
