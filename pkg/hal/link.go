package hal

import (
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

// Link is a single hypermedia relation. Its target is either an explicit
// URL or a route name plus params/options, resolved at render time.
type Link struct {
	relation     string
	url          string
	route        string
	routeParams  map[string]any
	routeOptions map[string]any
}

// NewLink creates an incomplete link for the given relation.
func NewLink(relation string) *Link {
	return &Link{relation: relation}
}

// Relation returns the link relation (e.g. "self", "next").
func (l *Link) Relation() string { return l.relation }

// SetRoute points the link at a named route.
// Fails with ErrDomain if a URL is already set; the link is left unchanged.
func (l *Link) SetRoute(name string, params, options map[string]any) error {
	if l.HasURL() {
		return fmt.Errorf("%w: link %q already has a URL; cannot set route", ErrDomain, l.relation)
	}
	l.route = name
	if params != nil {
		l.routeParams = params
	}
	if options != nil {
		l.routeOptions = options
	}
	return nil
}

// SetRouteParams replaces the params substituted into the route.
func (l *Link) SetRouteParams(params map[string]any) {
	l.routeParams = params
}

// SetRouteOptions replaces the route options (query, fragment,
// reuse_matched_params).
func (l *Link) SetRouteOptions(options map[string]any) {
	l.routeOptions = options
}

// SetURL points the link at an explicit URL.
//
// Fails with ErrDomain if a route is already set, or ErrInvalidArgument if
// raw is not a valid URI reference. The link is unchanged on failure.
func (l *Link) SetURL(raw string) error {
	if l.HasRoute() {
		return fmt.Errorf("%w: link %q already has a route; cannot set URL", ErrDomain, l.relation)
	}
	if !isValidURI(raw) {
		return fmt.Errorf("%w: %q is not a valid URL", ErrInvalidArgument, raw)
	}
	l.url = raw
	return nil
}

// Route returns the route name, or "" for URL links.
func (l *Link) Route() string { return l.route }

// RouteParams returns the route params. Never nil.
func (l *Link) RouteParams() map[string]any {
	if l.routeParams == nil {
		return map[string]any{}
	}
	return l.routeParams
}

// RouteOptions returns the route options. Never nil.
func (l *Link) RouteOptions() map[string]any {
	if l.routeOptions == nil {
		return map[string]any{}
	}
	return l.routeOptions
}

// URL returns the explicit URL, or "" for routed links.
func (l *Link) URL() string { return l.url }

// HasRoute reports whether the link targets a route.
func (l *Link) HasRoute() bool { return l.route != "" }

// HasURL reports whether the link targets an explicit URL.
func (l *Link) HasURL() bool { return l.url != "" }

// IsComplete reports whether the link can be rendered.
func (l *Link) IsComplete() bool { return l.HasURL() || l.HasRoute() }

// ===========================================
// Declarative Construction
// ===========================================

// LinkFromSpec builds a Link from a declarative map, as found in metadata
// configuration:
//
//	{"rel": "describedby", "url": "http://example.com/docs"}
//	{"rel": "owner", "route": "users"}
//	{"rel": "owner", "route": {"name": "users", "params": {...}, "options": {...}}}
//
// "relation" is accepted as an alias of "rel".
func LinkFromSpec(spec map[string]any) (*Link, error) {
	rel, ok := specString(spec, "rel")
	if !ok {
		rel, ok = specString(spec, "relation")
	}
	if !ok || rel == "" {
		return nil, fmt.Errorf("%w: link spec is missing a relation", ErrInvalidArgument)
	}

	link := NewLink(rel)

	if raw, present := spec["url"]; present && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: link %q url must be a string, got %T", ErrInvalidArgument, rel, raw)
		}
		if err := link.SetURL(s); err != nil {
			return nil, err
		}
		return link, nil
	}

	routeInfo, present := spec["route"]
	if !present || routeInfo == nil {
		return nil, fmt.Errorf("%w: link %q must contain either a url or a route", ErrInvalidArgument, rel)
	}

	switch r := routeInfo.(type) {
	case string:
		if r == "" {
			return nil, fmt.Errorf("%w: link %q has an empty route", ErrInvalidArgument, rel)
		}
		_ = link.SetRoute(r, nil, nil)
		return link, nil
	case map[string]any:
		name, ok := specString(r, "name")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: link %q route spec is missing a name", ErrInvalidArgument, rel)
		}
		params, _ := r["params"].(map[string]any)
		options, _ := r["options"].(map[string]any)
		_ = link.SetRoute(name, params, options)
		return link, nil
	default:
		return nil, fmt.Errorf("%w: link %q route must be a string or a map, got %T", ErrInvalidArgument, rel, routeInfo)
	}
}

func specString(spec map[string]any, key string) (string, bool) {
	v, ok := spec[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// isValidURI accepts absolute URLs and relative references. Whitespace and
// control characters are never valid.
func isValidURI(raw string) bool {
	if raw == "" {
		return false
	}
	if strings.ContainsFunc(raw, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}) {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	// "http:" alone parses, but is not a usable link
	if u.Scheme != "" && u.Opaque == "" && u.Host == "" && u.Path == "" {
		return false
	}
	return true
}
