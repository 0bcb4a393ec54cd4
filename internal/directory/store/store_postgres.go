package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"hostguard/internal/directory/models"
	"hostguard/internal/platform/postgres"
	id "hostguard/pkg/domain"
	"hostguard/pkg/platform/sentinel"
	"hostguard/pkg/platform/tx"
)

// PostgresStore persists clients, aliases and contacts in PostgreSQL.
// Lookups return nil, nil when nothing matches.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const clientColumns = `id, first_name, last_name, surname, id_number, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClient(row rowScanner) (*models.Client, error) {
	var (
		c        models.Client
		rawID    uuid.UUID
		idNumber sql.NullString
	)
	if err := row.Scan(&rawID, &c.FirstName, &c.LastName, &c.Surname, &idNumber, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ClientID(rawID)
	c.IDNumber = idNumber.String
	return &c, nil
}

func (s *PostgresStore) FindByIDNumber(ctx context.Context, idNumber string) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id_number = $1`
	c, err := scanClient(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, idNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find client by id number: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, clientID id.ClientID) (*models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1`
	c, err := scanClient(tx.Conn(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(clientID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return c, nil
}

// ListByName matches first name (and last name when given) case-insensitively,
// ordered by creation time then id.
func (s *PostgresStore) ListByName(ctx context.Context, firstName, lastName string) ([]*models.Client, error) {
	query := `
		SELECT ` + clientColumns + `
		FROM clients
		WHERE lower(first_name) = lower($1)
		  AND ($2 = '' OR lower(last_name) = lower($2))
		ORDER BY created_at, id
	`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, firstName, lastName)
	if err != nil {
		return nil, fmt.Errorf("list clients by name: %w", err)
	}
	defer rows.Close()

	var out []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list clients by name: %w", err)
	}
	return out, nil
}

// Create inserts a client. A duplicate id_number yields sentinel.ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, c *models.Client) error {
	query := `
		INSERT INTO clients (id, first_name, last_name, surname, id_number, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(c.ID), c.FirstName, c.LastName, c.Surname, postgres.NullString(c.IDNumber), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// FillBlankNames writes the given names only into columns that are still empty.
func (s *PostgresStore) FillBlankNames(ctx context.Context, c *models.Client) (*models.Client, error) {
	query := `
		UPDATE clients SET
			first_name = CASE WHEN first_name = '' THEN $2 ELSE first_name END,
			last_name  = CASE WHEN last_name = '' THEN $3 ELSE last_name END,
			surname    = CASE WHEN surname = '' THEN $4 ELSE surname END,
			updated_at = $5
		WHERE id = $1
		RETURNING ` + clientColumns
	updated, err := scanClient(tx.Conn(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(c.ID), c.FirstName, c.LastName, c.Surname, c.UpdatedAt))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("fill client names: %w", err)
	}
	return updated, nil
}

// UpsertContact keeps one value per (client, contact type).
func (s *PostgresStore) UpsertContact(ctx context.Context, contact *models.ClientContact) (*models.ClientContact, error) {
	query := `
		INSERT INTO client_contacts (id, client_id, contact_type, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (client_id, contact_type) DO UPDATE SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at
		RETURNING id, client_id, contact_type, value, created_at, updated_at
	`
	row := tx.Conn(ctx, s.db).QueryRowContext(ctx, query,
		uuid.UUID(contact.ID), uuid.UUID(contact.ClientID), string(contact.Type), contact.Value, contact.CreatedAt, contact.UpdatedAt)
	out, err := scanContact(row)
	if err != nil {
		return nil, fmt.Errorf("upsert client contact: %w", err)
	}
	return out, nil
}

func scanContact(row rowScanner) (*models.ClientContact, error) {
	var (
		c           models.ClientContact
		rawID       uuid.UUID
		rawClientID uuid.UUID
		contactType string
	)
	if err := row.Scan(&rawID, &rawClientID, &contactType, &c.Value, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.ID = id.ContactID(rawID)
	c.ClientID = id.ClientID(rawClientID)
	c.Type = models.ContactType(contactType)
	return &c, nil
}

func (s *PostgresStore) ListContacts(ctx context.Context, clientID id.ClientID) ([]*models.ClientContact, error) {
	query := `
		SELECT id, client_id, contact_type, value, created_at, updated_at
		FROM client_contacts
		WHERE client_id = $1
		ORDER BY CASE contact_type WHEN 'phone' THEN 1 WHEN 'email' THEN 2 WHEN 'address' THEN 3 ELSE 4 END
	`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list client contacts: %w", err)
	}
	defer rows.Close()

	var out []*models.ClientContact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client contact: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list client contacts: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AddAlias(ctx context.Context, alias *models.NameAlias) error {
	query := `
		INSERT INTO client_name_aliases (id, client_id, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.Conn(ctx, s.db).ExecContext(ctx, query,
		uuid.UUID(alias.ID), uuid.UUID(alias.ClientID), alias.FirstName, alias.LastName, alias.CreatedAt, alias.UpdatedAt)
	if err != nil {
		return fmt.Errorf("add client alias: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAliases(ctx context.Context, clientID id.ClientID) ([]*models.NameAlias, error) {
	query := `
		SELECT id, client_id, first_name, last_name, created_at, updated_at
		FROM client_name_aliases
		WHERE client_id = $1
		ORDER BY created_at, id
	`
	rows, err := tx.Conn(ctx, s.db).QueryContext(ctx, query, uuid.UUID(clientID))
	if err != nil {
		return nil, fmt.Errorf("list client aliases: %w", err)
	}
	defer rows.Close()

	out := []*models.NameAlias{}
	for rows.Next() {
		var (
			a           models.NameAlias
			rawID       uuid.UUID
			rawClientID uuid.UUID
		)
		if err := rows.Scan(&rawID, &rawClientID, &a.FirstName, &a.LastName, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client alias: %w", err)
		}
		a.ID = id.AliasID(rawID)
		a.ClientID = id.ClientID(rawClientID)
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list client aliases: %w", err)
	}
	return out, nil
}
