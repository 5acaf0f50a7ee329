package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/user/halrest/internal/models"
)

const sqliteContactSelect = `
	SELECT c.id, c.name, c.email, c.phone, c.organization_id, c.created_at, c.updated_at,
	       o.id, o.name, o.website, o.created_at
	FROM contacts c
	LEFT JOIN organizations o ON o.id = c.organization_id`

// SQLiteStore implements Store on database/sql with the modernc driver.
// UUIDs and timestamps are stored as text.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ===========================================
// Contacts
// ===========================================

// CreateContact inserts a new contact.
func (s *SQLiteStore) CreateContact(ctx context.Context, c *models.Contact) error {
	prepareContact(c)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO contacts (id, name, email, phone, organization_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Email, c.Phone, nullableID(c.OrganizationID),
		formatTime(c.CreatedAt), formatTime(c.UpdatedAt),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// GetContact retrieves a contact by ID.
func (s *SQLiteStore) GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error) {
	c, err := scanSQLiteContact(s.db.QueryRowContext(ctx, sqliteContactSelect+` WHERE c.id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return c, nil
}

// UpdateContact overwrites a contact.
func (s *SQLiteStore) UpdateContact(ctx context.Context, c *models.Contact) error {
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE contacts
		SET name = ?, email = ?, phone = ?, organization_id = ?, updated_at = ?
		WHERE id = ?`,
		c.Name, c.Email, c.Phone, nullableID(c.OrganizationID), formatTime(c.UpdatedAt), c.ID.String(),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return requireAffected(result)
}

// DeleteContact removes a contact.
func (s *SQLiteStore) DeleteContact(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return requireAffected(result)
}

// DeleteContacts removes all contacts matching filter.
func (s *SQLiteStore) DeleteContacts(ctx context.Context, filter models.ContactFilter) (int64, error) {
	where, args := sqliteDialect.contactWhere(filter, "")

	result, err := s.db.ExecContext(ctx, `DELETE FROM contacts`+where, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}
	return n, nil
}

// CountContacts counts contacts matching filter.
func (s *SQLiteStore) CountContacts(ctx context.Context, filter models.ContactFilter) (int, error) {
	where, args := sqliteDialect.contactWhere(filter, "c.")

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts c`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count contacts: %w", err)
	}
	return count, nil
}

// ListContacts returns one page of contacts ordered by name.
func (s *SQLiteStore) ListContacts(ctx context.Context, filter models.ContactFilter, limit, offset int) ([]*models.Contact, error) {
	where, args := sqliteDialect.contactWhere(filter, "c.")
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, sqliteContactSelect+where+` ORDER BY c.name, c.id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var contacts []*models.Contact
	for rows.Next() {
		c, err := scanSQLiteContact(rows)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLiteContact(row scanner) (*models.Contact, error) {
	var (
		id, name, email, phone string
		orgRef                 sql.NullString
		created, updated       string
		orgID, orgName         sql.NullString
		orgWeb, orgCreated     sql.NullString
	)

	if err := row.Scan(&id, &name, &email, &phone, &orgRef, &created, &updated,
		&orgID, &orgName, &orgWeb, &orgCreated); err != nil {
		return nil, err
	}

	c := &models.Contact{Name: name, Email: email, Phone: phone}

	var err error
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid contact id %q: %w", id, err)
	}
	if c.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	if orgRef.Valid {
		ref, err := uuid.Parse(orgRef.String)
		if err != nil {
			return nil, fmt.Errorf("invalid organization id %q: %w", orgRef.String, err)
		}
		c.OrganizationID = &ref
	}

	if orgID.Valid {
		org := &models.Organization{Name: orgName.String, Website: orgWeb.String}
		if org.ID, err = uuid.Parse(orgID.String); err != nil {
			return nil, fmt.Errorf("invalid organization id %q: %w", orgID.String, err)
		}
		if org.CreatedAt, err = parseTime(orgCreated.String); err != nil {
			return nil, err
		}
		c.Organization = org
	}

	return c, nil
}

// ===========================================
// Organizations
// ===========================================

// CreateOrganization inserts a new organization.
func (s *SQLiteStore) CreateOrganization(ctx context.Context, o *models.Organization) error {
	prepareOrganization(o)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO organizations (id, name, website, created_at) VALUES (?, ?, ?, ?)`,
		o.ID.String(), o.Name, o.Website, formatTime(o.CreatedAt),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (s *SQLiteStore) GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error) {
	return s.getOrganization(ctx, `WHERE id = ?`, id.String())
}

// GetOrganizationByName retrieves an organization by its unique name.
func (s *SQLiteStore) GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error) {
	return s.getOrganization(ctx, `WHERE name = ?`, name)
}

func (s *SQLiteStore) getOrganization(ctx context.Context, where string, arg any) (*models.Organization, error) {
	o, err := scanSQLiteOrganization(s.db.QueryRowContext(ctx,
		`SELECT id, name, website, created_at FROM organizations `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return o, nil
}

// CountOrganizations counts all organizations.
func (s *SQLiteStore) CountOrganizations(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return count, nil
}

// ListOrganizations returns one page of organizations ordered by name.
func (s *SQLiteStore) ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, website, created_at
		FROM organizations
		ORDER BY name, id
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		o, err := scanSQLiteOrganization(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

func scanSQLiteOrganization(row scanner) (*models.Organization, error) {
	var id, created string
	o := &models.Organization{}
	if err := row.Scan(&id, &o.Name, &o.Website, &created); err != nil {
		return nil, err
	}

	var err error
	if o.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid organization id %q: %w", id, err)
	}
	if o.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	return o, nil
}

// ===========================================
// Helper Functions
// ===========================================

// isSQLiteUnique reports a UNIQUE constraint failure.
func isSQLiteUnique(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
