package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"hostguard/internal/platform/postgres"
	"hostguard/internal/verification/models"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/platform/tx"
)

// PostgresStore persists verification requests and their incident links.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, requested_by, requester_phone, id_number, is_successful, response_data,
	client_id, source, created_at, completed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.VerificationRequest, error) {
	var (
		v           models.VerificationRequest
		rawID       uuid.UUID
		requestedBy uuid.NullUUID
		clientID    uuid.NullUUID
		payload     []byte
		source      string
		completedAt sql.NullTime
	)
	if err := row.Scan(&rawID, &requestedBy, &v.RequesterPhone, &v.IDNumber, &v.IsSuccessful, &payload,
		&clientID, &source, &v.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	v.ID = id.VerificationID(rawID)
	v.Source = models.Channel(source)
	if requestedBy.Valid {
		u := id.UserID(requestedBy.UUID)
		v.RequestedBy = &u
	}
	if clientID.Valid {
		c := id.ClientID(clientID.UUID)
		v.ClientID = &c
	}
	if completedAt.Valid {
		t := completedAt.Time
		v.CompletedAt = &t
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &v.ResponseData); err != nil {
			return nil, fmt.Errorf("decode response data: %w", err)
		}
	}
	return &v, nil
}

func encodeResponseData(data map[string]any) ([]byte, error) {
	if data == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode response data: %w", err)
	}
	return b, nil
}

func nullUserID(u *id.UserID) uuid.NullUUID {
	if u == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*u), Valid: true}
}

func nullClientID(c *id.ClientID) uuid.NullUUID {
	if c == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c), Valid: true}
}

func (s *PostgresStore) Create(ctx context.Context, v *models.VerificationRequest) error {
	payload, err := encodeResponseData(v.ResponseData)
	if err != nil {
		return err
	}
	var completedAt sql.NullTime
	if v.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *v.CompletedAt, Valid: true}
	}
	_, err = tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO verification_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(v.ID), nullUserID(v.RequestedBy), v.RequesterPhone, v.IDNumber, v.IsSuccessful, payload,
		nullClientID(v.ClientID), string(v.Source), v.CreatedAt, completedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create verification request: %w", err)
	}
	return nil
}

// Update rewrites the mutable columns and replaces the incident links in one transaction.
func (s *PostgresStore) Update(ctx context.Context, v *models.VerificationRequest) error {
	payload, err := encodeResponseData(v.ResponseData)
	if err != nil {
		return err
	}
	var completedAt sql.NullTime
	if v.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *v.CompletedAt, Valid: true}
	}
	incidents := make([]string, 0, len(v.RelatedIncidents))
	for _, inc := range v.RelatedIncidents {
		incidents = append(incidents, inc.String())
	}
	return tx.Run(ctx, s.db, func(ctx context.Context, q *sql.Tx) error {
		res, err := q.ExecContext(ctx, `
			UPDATE verification_requests
			SET is_successful = $2, response_data = $3, client_id = $4, completed_at = $5
			WHERE id = $1`,
			uuid.UUID(v.ID), v.IsSuccessful, payload, nullClientID(v.ClientID), completedAt)
		if err != nil {
			return fmt.Errorf("update verification request: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return sentinel.ErrNotFound
		}
		if _, err := q.ExecContext(ctx,
			`DELETE FROM verification_request_incidents WHERE verification_id = $1`, uuid.UUID(v.ID)); err != nil {
			return fmt.Errorf("clear verification incidents: %w", err)
		}
		if len(incidents) == 0 {
			return nil
		}
		if _, err := q.ExecContext(ctx, `
			INSERT INTO verification_request_incidents (verification_id, incident_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT DO NOTHING`, uuid.UUID(v.ID), pq.Array(incidents)); err != nil {
			return fmt.Errorf("link verification incidents: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, verificationID id.VerificationID) (*models.VerificationRequest, error) {
	conn := tx.Conn(ctx, s.db)
	v, err := scanRequest(conn.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM verification_requests WHERE id = $1`, uuid.UUID(verificationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find verification request: %w", err)
	}
	links, err := s.incidentLinks(ctx, conn, []uuid.UUID{uuid.UUID(verificationID)})
	if err != nil {
		return nil, err
	}
	v.RelatedIncidents = links[v.ID]
	return v, nil
}

// ListByRequester returns up to limit requests made by userID, newest first.
func (s *PostgresStore) ListByRequester(ctx context.Context, userID id.UserID, limit int) ([]*models.VerificationRequest, error) {
	conn := tx.Conn(ctx, s.db)
	rows, err := conn.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM verification_requests
		WHERE requested_by = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list verification requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.VerificationRequest, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		v, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan verification request: %w", err)
		}
		out = append(out, v)
		ids = append(ids, uuid.UUID(v.ID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification requests: %w", err)
	}
	if len(out) == 0 {
		return out, nil
	}
	links, err := s.incidentLinks(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	for _, v := range out {
		v.RelatedIncidents = links[v.ID]
	}
	return out, nil
}

func (s *PostgresStore) incidentLinks(ctx context.Context, conn tx.Querier, ids []uuid.UUID) (map[id.VerificationID][]id.IncidentID, error) {
	raw := make([]string, 0, len(ids))
	for _, u := range ids {
		raw = append(raw, u.String())
	}
	rows, err := conn.QueryContext(ctx, `
		SELECT vri.verification_id, vri.incident_id
		FROM verification_request_incidents vri
		JOIN security_incidents si ON si.id = vri.incident_id
		WHERE vri.verification_id = ANY($1::uuid[])
		ORDER BY si.reported_at DESC, si.id DESC`, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list verification incidents: %w", err)
	}
	defer rows.Close()
	out := make(map[id.VerificationID][]id.IncidentID)
	for rows.Next() {
		var verificationID, incidentID uuid.UUID
		if err := rows.Scan(&verificationID, &incidentID); err != nil {
			return nil, fmt.Errorf("scan verification incident: %w", err)
		}
		key := id.VerificationID(verificationID)
		out[key] = append(out[key], id.IncidentID(incidentID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification incidents: %w", err)
	}
	return out, nil
}
