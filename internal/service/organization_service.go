package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/internal/repository"
	"github.com/user/halrest/pkg/hal"
)

// MaxEmbeddedContacts caps the contacts embedded in an organization.
const MaxEmbeddedContacts = 100

// OrganizationService handles organization business logic. Organizations
// are created through contacts; this service only reads them.
type OrganizationService struct {
	store repository.Store
	cache PageCache
}

// NewOrganizationService creates a new organization service. cache may be
// nil.
func NewOrganizationService(store repository.Store, cache PageCache) *OrganizationService {
	return &OrganizationService{store: store, cache: cache}
}

// Get loads an organization with its contacts.
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.OrganizationDetail, error) {
	orgID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrganizationNotFound
	}

	org, err := s.store.GetOrganization(ctx, orgID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrganizationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}

	contacts, err := s.store.ListContacts(ctx, models.ContactFilter{OrganizationID: &orgID}, MaxEmbeddedContacts, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list organization contacts: %w", err)
	}

	// The organization is already the enclosing resource.
	for _, c := range contacts {
		c.Organization = nil
	}

	return &models.OrganizationDetail{
		Organization: *org,
		Contacts:     models.ContactList(contacts),
	}, nil
}

// List returns a paginator over all organizations.
func (s *OrganizationService) List() hal.Paginator {
	pages := storePages{
		count: s.store.CountOrganizations,
		list: func(ctx context.Context, limit, offset int) ([]any, error) {
			orgs, err := s.store.ListOrganizations(ctx, limit, offset)
			if err != nil {
				return nil, err
			}
			items := make([]any, len(orgs))
			for i, o := range orgs {
				items[i] = o
			}
			return items, nil
		},
	}
	return withPageCache(pages, s.cache, scopeOrganizations, "")
}
