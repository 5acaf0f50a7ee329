// ===========================================
// Package repository - Data Access Layer
// ===========================================
// The repository pattern abstracts database operations.
// Handlers call services, services call repositories.
//
// Two implementations share one contract:
//
//	PostgresStore  pgx, for production
//	SQLiteStore    modernc SQLite, for local development and tests
//
// NAMING CONVENTION:
// - Methods named after what they do: CreateContact, GetContact, ...
// - Input: domain models or primitives
// - Output: domain models or errors
// ===========================================

package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/user/halrest/internal/models"
)

// Common errors returned by repository methods.
// Using package-level errors allows callers to check with errors.Is().
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("resource already exists")
)

// ContactStore persists contacts.
type ContactStore interface {
	// CreateContact inserts c, filling ID and timestamps when unset.
	CreateContact(ctx context.Context, c *models.Contact) error
	// GetContact loads a contact with its organization.
	GetContact(ctx context.Context, id uuid.UUID) (*models.Contact, error)
	// UpdateContact replaces the stored fields of c and bumps UpdatedAt.
	UpdateContact(ctx context.Context, c *models.Contact) error
	DeleteContact(ctx context.Context, id uuid.UUID) error
	// DeleteContacts removes every contact matching filter.
	DeleteContacts(ctx context.Context, filter models.ContactFilter) (int64, error)
	CountContacts(ctx context.Context, filter models.ContactFilter) (int, error)
	// ListContacts returns a page of contacts ordered by name, with their
	// organizations loaded.
	ListContacts(ctx context.Context, filter models.ContactFilter, limit, offset int) ([]*models.Contact, error)
}

// OrganizationStore persists organizations.
type OrganizationStore interface {
	CreateOrganization(ctx context.Context, o *models.Organization) error
	GetOrganization(ctx context.Context, id uuid.UUID) (*models.Organization, error)
	GetOrganizationByName(ctx context.Context, name string) (*models.Organization, error)
	CountOrganizations(ctx context.Context) (int, error)
	ListOrganizations(ctx context.Context, limit, offset int) ([]*models.Organization, error)
}

// Store is everything the API persists.
type Store interface {
	ContactStore
	OrganizationStore
}
