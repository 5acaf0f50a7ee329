package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/user/halrest/internal/models"
)

const pgContactColumns = `
	c.id, c.name, c.email, c.phone, c.organization_id, c.created_at, c.updated_at,
	o.id, o.name, o.website, o.created_at`

const pgContactFrom = `
	FROM contacts c
	LEFT JOIN organizations o ON o.id = c.organization_id`

// PostgresStore handles all contact and organization operations on
// PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// ===========================================
// Contacts
// ===========================================

// CreateContact inserts a new contact.
// Returns ErrAlreadyExists if the email is taken.
//
// SECURITY NOTE - SQL Injection Prevention:
// We use parameterized queries ($1, $2, etc.) instead of
// string concatenation. The driver handles escaping.
func (s *PostgresStore) CreateContact(ctx context.Context, c *models.Contact) error {
	query := `
		INSERT INTO contacts (id, name, email, phone, organization_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	prepareContact(c)

	_, err := s.db.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		c.OrganizationID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}

	return nil
}

// GetContact retrieves a contact by ID.
// Returns ErrNotFound if the contact doesn't exist.
func (s *PostgresStore) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	query := `SELECT ` + pgContactColumns + pgContactFrom + ` WHERE c.id = $1`

	c, err := scanPgContact(s.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	return c, nil
}

// UpdateContact overwrites a contact.
func (s *PostgresStore) UpdateContact(ctx context.Context, c *models.Contact) error {
	query := `
		UPDATE contacts
		SET name = $2, email = $3, phone = $4, organization_id = $5, updated_at = $6
		WHERE id = $1
	`

	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.Exec(ctx, query, c.ID, c.Name, c.Email, c.Phone, c.OrganizationID, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteContact removes a contact.
// Returns ErrNotFound if the contact doesn't exist.
func (s *PostgresStore) DeleteContact(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteContacts removes all contacts matching filter.
func (s *PostgresStore) DeleteContacts(ctx context.Context, filter models.ContactFilter) (int64, error) {
	where, args := postgresDialect.contactWhere(filter, "")

	result, err := s.db.Exec(ctx, `DELETE FROM contacts`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountContacts counts contacts matching filter.
func (s *PostgresStore) CountContacts(ctx context.Context, filter models.ContactFilter) (int, error) {
	where, args := postgresDialect.contactWhere(filter, "c.")

	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM contacts c`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}

	return count, nil
}

// ListContacts returns one page of contacts ordered by name.
func (s *PostgresStore) ListContacts(ctx context.Context, filter models.ContactFilter, limit, offset int) ([]*models.Contact, error) {
	where, args := postgresDialect.contactWhere(filter, "c.")
	args = append(args, limit, offset)

	query := fmt.Sprintf(`SELECT %s %s %s ORDER BY c.name, c.id LIMIT $%d OFFSET $%d`,
		pgContactColumns, pgContactFrom, where, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanPgContact(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	return contacts, nil
}

func scanPgContact(row pgx.Row) (*models.Contact, error) {
	var (
		c       models.Contact
		orgID   *uuid.UUID
		orgName *string
		orgWeb  *string
		orgAt   *time.Time
	)

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Phone,
		&c.OrganizationID,
		&c.CreatedAt,
		&c.UpdatedAt,
		&orgID,
		&orgName,
		&orgWeb,
		&orgAt,
	)
	if err != nil {
		return nil, err
	}

	if orgID != nil {
		c.Organization = &models.Organization{
			ID:        *orgID,
			Name:      deref(orgName),
			Website:   deref(orgWeb),
			CreatedAt: derefTime(orgAt),
		}
	}
	return &c, nil
}

// ===========================================
// Organizations
// ===========================================

// CreateOrganization inserts a new organization.
// Returns ErrAlreadyExists if the name is taken.
func (s *PostgresStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	query := `
		INSERT INTO organizations (id, name, website, created_at)
		VALUES ($1, $2, $3, $4)
	`

	prepareOrganization(o)

	if _, err := s.db.Exec(ctx, query, o.ID, o.Name, o.Website, o.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return nil
}

// GetOrganization retrieves an organization by ID.
func (s *PostgresStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return s.getOrganization(ctx, `WHERE id = $1`, id)
}

// GetOrganizationByName retrieves an organization by its unique name.
func (s *PostgresStore) GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	return s.getOrganization(ctx, `WHERE name = $1`, name)
}

func (s *PostgresStore) getOrganization(ctx context.Context, where string, arg any) (*models.Organization, error) {
	query := `SELECT id, name, website, created_at FROM organizations ` + where

	o := &models.Organization{}
	err := s.db.QueryRow(ctx, query, arg).Scan(&o.ID, &o.Name, &o.Website, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	return o, nil
}

// CountOrganizations counts all organizations.
func (s *PostgresStore) CountOrganizations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return count, nil
}

// ListOrganizations returns one page of organizations ordered by name.
func (s *PostgresStore) ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	query := `
		SELECT id, name, website, created_at
		FROM organizations
		ORDER BY name, id
		LIMIT $1 OFFSET $2
	`

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		o := &models.Organization{}
		if err := rows.Scan(&o.ID, &o.Name, &o.Website, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}

	return orgs, nil
}

// ===========================================
// Helper Functions
// ===========================================

// isUniqueViolation checks for PostgreSQL error code 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func prepareContact(c *models.Contact) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
}

func prepareOrganization(o *models.Organization) {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
