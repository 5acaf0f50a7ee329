package models

import (
	"fmt"

	"github.com/user/halrest/pkg/hal"
)

// Route names shared by the metadata map and the HTTP layer.
const (
	RouteAPI           = "api"
	RouteContacts      = "contacts"
	RouteOrganizations = "organizations"
)

// RegisterMetadata registers the built-in rendering metadata. Entries from
// a metadata file loaded afterwards replace these.
//
// Organizations render with their own self link wherever they appear, and
// a fixed ContactList renders as a collection of linked contacts.
func RegisterMetadata(metadata *hal.MetadataMap, hydrators *hal.Hydrators) error {
	hydrators.AddHydrator(TypeContact, hal.ExtractableHydrator)

	entries := []hal.Metadata{
		{
			Type:     TypeOrganization,
			Hydrator: hal.ExtractableHydrator,
			Route:    RouteOrganizations,
			Links: []map[string]any{
				{
					"rel": "contacts",
					"route": map[string]any{
						"name":    RouteContacts,
						"options": map[string]any{hal.ReuseMatchedParamsOption: false},
					},
				},
			},
		},
		{
			Type:          TypeContactList,
			Collection:    true,
			Route:         RouteContacts,
			ResourceRoute: RouteContacts,
		},
	}

	for _, md := range entries {
		if err := metadata.Register(md); err != nil {
			return fmt.Errorf("failed to register %q metadata: %w", md.Type, err)
		}
	}
	return nil
}
