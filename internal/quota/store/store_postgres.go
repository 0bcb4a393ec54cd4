package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hostguard/internal/platform/postgres"
	"hostguard/internal/quota/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/platform/tx"
)

// PostgresStore persists free-trial rows in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const trialColumns = `user_id, count, expires_at, created_at, updated_at`

func scanTrial(row *sql.Row) (*models.TrialState, error) {
	var (
		t      models.TrialState
		rawID  uuid.UUID
		expiry sql.NullTime
	)
	if err := row.Scan(&rawID, &t.Count, &expiry, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.UserID = id.UserID(rawID)
	if expiry.Valid {
		e := expiry.Time
		t.Expiry = &e
	}
	return &t, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID id.UserID) (*models.TrialState, error) {
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+trialColumns+` FROM free_trials WHERE user_id = $1`, uuid.UUID(userID))
	t, err := scanTrial(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get free trial: %w", err)
	}
	return t, nil
}

// GetOrCreate inserts initial unless a row exists, then returns the stored row.
func (s *PostgresStore) GetOrCreate(ctx context.Context, initial *models.TrialState) (*models.TrialState, error) {
	query := `
		INSERT INTO free_trials (user_id, count, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			user_id = EXCLUDED.user_id
		RETURNING ` + trialColumns
	var expiry sql.NullTime
	if initial.Expiry != nil {
		expiry = sql.NullTime{Time: *initial.Expiry, Valid: true}
	}
	t, err := scanTrial(tx.Conn(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(initial.UserID), initial.Count, expiry, initial.CreatedAt, initial.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("get or create free trial: %w", err)
	}
	return t, nil
}

// Decrement locks the trial row, lowers the count by one floored at zero and
// commits. Lock contention is retried once.
func (s *PostgresStore) Decrement(ctx context.Context, userID id.UserID, now time.Time) (*models.TrialState, error) {
	var out *models.TrialState
	err := postgres.RetryOnce(ctx, func(ctx context.Context) error {
		return tx.Run(ctx, s.db, func(ctx context.Context, q *sql.Tx) error {
			var count int
			err := q.QueryRowContext(ctx,
				`SELECT count FROM free_trials WHERE user_id = $1 FOR UPDATE`, uuid.UUID(userID),
			).Scan(&count)
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("lock free trial: %w", err)
			}
			t, err := scanTrial(q.QueryRowContext(ctx, `
				UPDATE free_trials
				SET count = GREATEST(count - 1, 0), updated_at = $2
				WHERE user_id = $1
				RETURNING `+trialColumns, uuid.UUID(userID), now))
			if err != nil {
				return fmt.Errorf("decrement free trial: %w", err)
			}
			out = t
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
