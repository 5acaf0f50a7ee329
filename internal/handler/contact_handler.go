package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/internal/service"
)

// ContactCollectionMethods adds DELETE to the default collection methods.
var ContactCollectionMethods = []string{http.MethodDelete, http.MethodGet, http.MethodPost}

// ContactListener serves the contacts resource. Replacing or patching the
// whole collection is not supported.
type ContactListener struct {
	BaseListener
	contacts *service.ContactService
}

var _ ResourceListener = (*ContactListener)(nil)

// NewContactListener creates a new contact listener.
func NewContactListener(svc *service.ContactService) *ContactListener {
	return &ContactListener{contacts: svc}
}

// ===========================================
// POST /api/contacts
// ===========================================
// Request:
//
//	{
//	  "name": "Ada Lovelace",
//	  "email": "ada@example.com",
//	  "organization": "Analytical Engines"   // optional, created on first use
//	}
//
// Response (201): the contact, with its organization embedded.
func (l *ContactListener) Create(ctx context.Context, req *Request) (any, error) {
	var in models.ContactInput
	if err := req.Bind(&in); err != nil {
		return nil, err
	}
	return l.contacts.Create(ctx, in)
}

// Fetch implements GET /api/contacts/{id}. A missing contact is a nil
// result, rendered as 404.
func (l *ContactListener) Fetch(ctx context.Context, _ *Request, id string) (any, error) {
	contact, err := l.contacts.Get(ctx, id)
	if errors.Is(err, service.ErrContactNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return contact, nil
}

// FetchAll implements GET /api/contacts. ?q filters by name or email,
// ?organization by organization ID.
func (l *ContactListener) FetchAll(_ context.Context, req *Request) (any, error) {
	return l.contacts.List(contactFilter(req)), nil
}

// Update implements PUT /api/contacts/{id}.
func (l *ContactListener) Update(ctx context.Context, req *Request, id string) (any, error) {
	var in models.ContactInput
	if err := req.Bind(&in); err != nil {
		return nil, err
	}
	return l.contacts.Update(ctx, id, in)
}

// Patch implements PATCH /api/contacts/{id}.
func (l *ContactListener) Patch(ctx context.Context, req *Request, id string) (any, error) {
	var patch models.ContactPatch
	if err := req.Bind(&patch); err != nil {
		return nil, err
	}
	return l.contacts.Patch(ctx, id, patch)
}

// Delete implements DELETE /api/contacts/{id}.
func (l *ContactListener) Delete(ctx context.Context, _ *Request, id string) (bool, error) {
	if err := l.contacts.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteList implements DELETE /api/contacts, honouring the same filters
// as FetchAll.
func (l *ContactListener) DeleteList(ctx context.Context, req *Request) (bool, error) {
	if _, err := l.contacts.DeleteAll(ctx, contactFilter(req)); err != nil {
		return false, err
	}
	return true, nil
}

func contactFilter(req *Request) models.ContactFilter {
	filter := models.ContactFilter{Query: req.Query.Get("q")}
	if raw := req.Query.Get("organization"); raw != "" {
		// An unknown organization matches nothing rather than everything.
		id, err := uuid.Parse(raw)
		if err != nil {
			id = uuid.Nil
		}
		filter.OrganizationID = &id
	}
	return filter
}
