// ===========================================
// Package models - Domain Models
// ===========================================
// Models are plain data. They describe themselves to the HAL renderer
// through small interfaces instead of reflection:
//
//	ResourceType() string            type tag for metadata/hydrator lookup
//	Extract() map[string]any         fields to render
//	Property(name) (any, bool)       named lookups, used for identifiers
//
// NAMING CONVENTION:
// - Singular nouns: Contact, Organization
// - Input suffix for request DTOs
// ===========================================

package models

import (
	"time"

	"github.com/google/uuid"
)

// Type tags.
const (
	TypeContact      = "contact"
	TypeContactList  = "contactlist"
	TypeOrganization = "organization"
)

// ===========================================
// Organization
// ===========================================

// Organization is a company contacts belong to.
type Organization struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ResourceType implements hal.Typed.
func (Organization) ResourceType() string { return TypeOrganization }

// Extract implements hal.Extractable.
func (o Organization) Extract() map[string]any {
	fields := map[string]any{
		"id":         o.ID.String(),
		"name":       o.Name,
		"created_at": o.CreatedAt.UTC().Format(time.RFC3339),
	}
	if o.Website != "" {
		fields["website"] = o.Website
	}
	return fields
}

// Property implements hal.PropertyReader.
func (o Organization) Property(name string) (any, bool) {
	switch name {
	case "id":
		return o.ID.String(), true
	case "name":
		return o.Name, true
	}
	return nil, false
}

// OrganizationDetail is an organization together with its contacts. The
// contacts render as an embedded collection.
type OrganizationDetail struct {
	Organization
	Contacts ContactList
}

// Extract implements hal.Extractable.
func (d OrganizationDetail) Extract() map[string]any {
	fields := d.Organization.Extract()
	fields["contacts"] = d.Contacts
	return fields
}

// ===========================================
// Contact
// ===========================================

// Contact is a person in the address book.
type Contact struct {
	ID             uuid.UUID     `json:"id"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          string        `json:"phone,omitempty"`
	OrganizationID *uuid.UUID    `json:"organization_id,omitempty"`
	Organization   *Organization `json:"-"` // loaded with the contact when set
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// ResourceType implements hal.Typed.
func (Contact) ResourceType() string { return TypeContact }

// Extract implements hal.Extractable. A loaded organization is returned
// as-is so the renderer can embed it.
func (c Contact) Extract() map[string]any {
	fields := map[string]any{
		"id":         c.ID.String(),
		"name":       c.Name,
		"email":      c.Email,
		"created_at": c.CreatedAt.UTC().Format(time.RFC3339),
		"updated_at": c.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if c.Phone != "" {
		fields["phone"] = c.Phone
	}
	if c.Organization != nil {
		fields["organization"] = c.Organization
	} else if c.OrganizationID != nil {
		fields["organization_id"] = c.OrganizationID.String()
	}
	return fields
}

// Property implements hal.PropertyReader.
func (c Contact) Property(name string) (any, bool) {
	switch name {
	case "id":
		return c.ID.String(), true
	case "email":
		return c.Email, true
	}
	return nil, false
}

// ContactList is a fixed list of contacts, rendered as a collection.
type ContactList []*Contact

// ResourceType implements hal.Typed.
func (ContactList) ResourceType() string { return TypeContactList }

// Items implements hal.ItemLister.
func (l ContactList) Items() []any {
	items := make([]any, len(l))
	for i, c := range l {
		items[i] = c
	}
	return items
}

// ===========================================
// Request DTOs
// ===========================================

// ContactInput is the body of POST and PUT on contacts.
// Organization is an organization name; it is created on first use.
type ContactInput struct {
	Name         string `json:"name" binding:"required,max=200"`
	Email        string `json:"email" binding:"required,email,max=320"`
	Phone        string `json:"phone,omitempty" binding:"omitempty,max=50"`
	Organization string `json:"organization,omitempty" binding:"omitempty,max=200"`
}

// ContactPatch is the body of PATCH on a contact. Nil fields are left alone;
// an empty Organization detaches the contact.
type ContactPatch struct {
	Name         *string `json:"name,omitempty" binding:"omitempty,min=1,max=200"`
	Email        *string `json:"email,omitempty" binding:"omitempty,email,max=320"`
	Phone        *string `json:"phone,omitempty" binding:"omitempty,max=50"`
	Organization *string `json:"organization,omitempty" binding:"omitempty,max=200"`
}

// ContactFilter narrows contact listings.
type ContactFilter struct {
	Query          string     // substring of name or email
	OrganizationID *uuid.UUID // only contacts of this organization
}

// ===========================================
// Health Check Response
// ===========================================

// HealthResponse is returned by the /health endpoint.
type HealthResponse struct {
	Status   string            `json:"status"`   // "healthy" or "unhealthy"
	Version  string            `json:"version"`  // Application version
	Services map[string]string `json:"services"` // Dependency health (store, redis)
}
