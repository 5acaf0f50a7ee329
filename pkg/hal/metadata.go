package hal

import (
	"fmt"
	"strings"
)

// Metadata is the rendering configuration for one domain type.
type Metadata struct {
	// Type is the tag returned by the domain object's ResourceType().
	Type string

	// Collection marks types that render as a Collection.
	Collection bool

	// Hydrator, when set, takes priority over the hydrator registry.
	Hydrator Hydrator

	// IdentifierName is the extracted field holding the identifier.
	IdentifierName string

	// Route builds the self link (collection route for collections).
	Route        string
	RouteParams  map[string]any
	RouteOptions map[string]any

	// ResourceRoute builds item self links for collections.
	ResourceRoute string

	// URL, when set, is used verbatim as the self link.
	URL string

	// Links are extra link specs, see LinkFromSpec.
	Links []map[string]any
}

// HasRoute reports whether a route is configured.
func (m *Metadata) HasRoute() bool { return m.Route != "" }

// HasURL reports whether an explicit URL is configured.
func (m *Metadata) HasURL() bool { return m.URL != "" }

// MetadataMap maps type tags to metadata.
//
// It is populated once at startup and read concurrently by renderers;
// registering after startup is not synchronized.
type MetadataMap struct {
	entries map[string]*Metadata
}

// NewMetadataMap returns an empty map.
func NewMetadataMap() *MetadataMap {
	return &MetadataMap{entries: make(map[string]*Metadata)}
}

// Register stores metadata under its type tag, replacing any existing
// entry. Identifier names default to "id".
func (m *MetadataMap) Register(md Metadata) error {
	if md.Type == "" {
		return fmt.Errorf("%w: metadata requires a type", ErrInvalidArgument)
	}
	if md.IdentifierName == "" {
		md.IdentifierName = DefaultIdentifierName
	}
	for i, spec := range md.Links {
		if _, err := LinkFromSpec(spec); err != nil {
			return fmt.Errorf("metadata %q link %d: %w", md.Type, i, err)
		}
	}
	m.entries[strings.ToLower(md.Type)] = &md
	return nil
}

// Get returns the metadata registered for a type tag.
func (m *MetadataMap) Get(typeTag string) (*Metadata, bool) {
	if m == nil {
		return nil, false
	}
	md, ok := m.entries[strings.ToLower(typeTag)]
	return md, ok
}

// Lookup returns the metadata for a domain object implementing Typed.
func (m *MetadataMap) Lookup(obj any) (*Metadata, bool) {
	t, ok := obj.(Typed)
	if !ok {
		return nil, false
	}
	return m.Get(t.ResourceType())
}

// Has reports whether obj has registered metadata.
func (m *MetadataMap) Has(obj any) bool {
	_, ok := m.Lookup(obj)
	return ok
}

// Len returns the number of registered types.
func (m *MetadataMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
