package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hostguard/internal/incident/models"
	"hostguard/internal/platform/postgres"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/platform/tx"
)

// PostgresStore reads and links security incidents.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const incidentColumns = `id, title, status, client_id, reported_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	var (
		inc      models.Incident
		rawID    uuid.UUID
		clientID uuid.NullUUID
		status   string
	)
	if err := row.Scan(&rawID, &inc.Title, &status, &clientID, &inc.ReportedAt); err != nil {
		return nil, err
	}
	inc.ID = id.IncidentID(rawID)
	inc.Status = models.Status(status)
	if clientID.Valid {
		c := id.ClientID(clientID.UUID)
		inc.ClientID = &c
	}
	return &inc, nil
}

func nullClient(c *id.ClientID) uuid.NullUUID {
	if c == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: uuid.UUID(*c), Valid: true}
}

func (s *PostgresStore) Create(ctx context.Context, inc *models.Incident) error {
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO security_incidents (id, title, status, client_id, reported_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(inc.ID), inc.Title, string(inc.Status), nullClient(inc.ClientID), inc.ReportedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, incidentID id.IncidentID) (*models.Incident, error) {
	inc, err := scanIncident(tx.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+incidentColumns+` FROM security_incidents WHERE id = $1`, uuid.UUID(incidentID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find incident: %w", err)
	}
	return inc, nil
}

func (s *PostgresStore) RecentByClient(ctx context.Context, clientID id.ClientID, limit int) ([]*models.Incident, error) {
	query := `
		SELECT ` + incidentColumns + `
		FROM security_incidents
		WHERE client_id = $1
		ORDER BY reported_at DESC, id DESC
		LIMIT $2
	`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, uuid.UUID(clientID), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent incidents: %w", err)
	}
	defer rows.Close()

	var out []*models.Incident
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		out = append(out, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list recent incidents: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AttachClient(ctx context.Context, incidentID id.IncidentID, clientID id.ClientID) (*models.Incident, error) {
	inc, err := scanIncident(tx.Conn(ctx, s.db).QueryRowContext(ctx, `
		UPDATE security_incidents SET client_id = $2
		WHERE id = $1
		RETURNING `+incidentColumns, uuid.UUID(incidentID), uuid.UUID(clientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("attach incident client: %w", err)
	}
	return inc, nil
}
