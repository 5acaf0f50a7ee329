// ===========================================
// Package service - Business Logic Layer
// ===========================================
// Services contain the business logic of the application.
// They orchestrate the store and the page-count cache.
//
// Handlers are thin (HTTP in/out only), repositories are thin (DB in/out
// only). Services decide what a request means.
// ===========================================

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/internal/repository"
	"github.com/user/halrest/pkg/hal"
)

// Service errors
var (
	ErrContactNotFound      = errors.New("contact not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDuplicateEmail       = errors.New("email already in use")
	ErrInvalidInput         = errors.New("invalid input")
)

// ContactService handles contact business logic.
type ContactService struct {
	store repository.Store
	cache PageCache
}

// NewContactService creates a new contact service. cache may be nil.
func NewContactService(store repository.Store, cache PageCache) *ContactService {
	return &ContactService{store: store, cache: cache}
}

// ===========================================
// Core Business Operations
// ===========================================

// Create stores a new contact. A named organization is created on first
// use.
func (s *ContactService) Create(ctx context.Context, in models.ContactInput) (*models.Contact, error) {
	contact := &models.Contact{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
	}
	if contact.Name == "" || contact.Email == "" {
		return nil, ErrInvalidInput
	}

	if err := s.attachOrganization(ctx, contact, in.Organization); err != nil {
		return nil, err
	}

	if err := s.store.CreateContact(ctx, contact); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to store contact: %w", err)
	}

	invalidate(ctx, s.cache, scopeContacts)
	return contact, nil
}

// Get loads a contact with its organization. Malformed IDs are reported as
// not found.
func (s *ContactService) Get(ctx context.Context, id string) (*models.Contact, error) {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrContactNotFound
	}

	contact, err := s.store.GetContact(ctx, contactID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrContactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

// List returns a paginator over the contacts matching filter.
func (s *ContactService) List(filter models.ContactFilter) hal.Paginator {
	pages := storePages{
		count: func(ctx context.Context) (int, error) {
			return s.store.CountContacts(ctx, filter)
		},
		list: func(ctx context.Context, limit, offset int) ([]any, error) {
			contacts, err := s.store.ListContacts(ctx, filter, limit, offset)
			if err != nil {
				return nil, err
			}
			return models.ContactList(contacts).Items(), nil
		},
	}

	key := filter.Query
	if filter.OrganizationID != nil {
		key += "\x00" + filter.OrganizationID.String()
	}
	return withPageCache(pages, s.cache, scopeContacts, key)
}

// Update replaces every field of a contact.
func (s *ContactService) Update(ctx context.Context, id string, in models.ContactInput) (*models.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	contact.Name = strings.TrimSpace(in.Name)
	contact.Email = strings.TrimSpace(in.Email)
	contact.Phone = strings.TrimSpace(in.Phone)
	if contact.Name == "" || contact.Email == "" {
		return nil, ErrInvalidInput
	}
	if err := s.attachOrganization(ctx, contact, in.Organization); err != nil {
		return nil, err
	}

	if err := s.save(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Patch changes the fields set in patch.
func (s *ContactService) Patch(ctx context.Context, id string, patch models.ContactPatch) (*models.Contact, error) {
	contact, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if contact.Name = strings.TrimSpace(*patch.Name); contact.Name == "" {
			return nil, ErrInvalidInput
		}
	}
	if patch.Email != nil {
		if contact.Email = strings.TrimSpace(*patch.Email); contact.Email == "" {
			return nil, ErrInvalidInput
		}
	}
	if patch.Phone != nil {
		contact.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.Organization != nil {
		if err := s.attachOrganization(ctx, contact, *patch.Organization); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

// Delete removes a contact.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	contactID, err := uuid.Parse(id)
	if err != nil {
		return ErrContactNotFound
	}

	if err := s.store.DeleteContact(ctx, contactID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("failed to delete contact: %w", err)
	}

	invalidate(ctx, s.cache, scopeContacts)
	return nil
}

// DeleteAll removes every contact matching filter and reports how many
// were removed.
func (s *ContactService) DeleteAll(ctx context.Context, filter models.ContactFilter) (int64, error) {
	n, err := s.store.DeleteContacts(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete contacts: %w", err)
	}

	if n > 0 {
		invalidate(ctx, s.cache, scopeContacts)
	}
	return n, nil
}

// ===========================================
// Helper Functions
// ===========================================

func (s *ContactService) save(ctx context.Context, contact *models.Contact) error {
	if err := s.store.UpdateContact(ctx, contact); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			return ErrDuplicateEmail
		case errors.Is(err, repository.ErrNotFound):
			return ErrContactNotFound
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}

	invalidate(ctx, s.cache, scopeContacts)
	return nil
}

// attachOrganization points contact at the named organization. An empty
// name detaches it.
func (s *ContactService) attachOrganization(ctx context.Context, contact *models.Contact, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		contact.OrganizationID = nil
		contact.Organization = nil
		return nil
	}

	org, err := s.ensureOrganization(ctx, name)
	if err != nil {
		return err
	}
	contact.OrganizationID = &org.ID
	contact.Organization = org
	return nil
}

// ensureOrganization finds an organization by name, creating it if needed.
func (s *ContactService) ensureOrganization(ctx context.Context, name string) (*models.Organization, error) {
	org, err := s.store.GetOrganizationByName(ctx, name)
	if err == nil {
		return org, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up organization: %w", err)
	}

	org = &models.Organization{Name: name}
	err = s.store.CreateOrganization(ctx, org)
	if errors.Is(err, repository.ErrAlreadyExists) {
		// Lost a race with a concurrent create.
		return s.store.GetOrganizationByName(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	invalidate(ctx, s.cache, scopeOrganizations)
	return org, nil
}
