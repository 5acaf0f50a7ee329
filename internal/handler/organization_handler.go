package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/user/halrest/internal/service"
)

// OrganizationMethods are the only methods organizations accept, for both
// the collection and its items.
var OrganizationMethods = []string{http.MethodGet}

// OrganizationListener serves the read-only organizations resource.
type OrganizationListener struct {
	BaseListener
	organizations *service.OrganizationService
}

var _ ResourceListener = (*OrganizationListener)(nil)

// NewOrganizationListener creates a new organization listener.
func NewOrganizationListener(svc *service.OrganizationService) *OrganizationListener {
	return &OrganizationListener{organizations: svc}
}

// Fetch implements GET /api/organizations/{id}. The organization's
// contacts are embedded as a collection.
func (l *OrganizationListener) Fetch(ctx context.Context, _ *Request, id string) (any, error) {
	org, err := l.organizations.Get(ctx, id)
	if errors.Is(err, service.ErrOrganizationNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return org, nil
}

// FetchAll implements GET /api/organizations.
func (l *OrganizationListener) FetchAll(context.Context, *Request) (any, error) {
	return l.organizations.List(), nil
}
