// ===========================================
// Package route - Named Routes & URL Assembly
// ===========================================
// Routes are named RFC 6570 URI templates:
//
//	contacts      /api/contacts{/id}
//	organizations /api/organizations{/id}
//
// One template serves both the collection URL (/api/contacts) and the item
// URL (/api/contacts/42): "{/id}" expands to nothing when id is absent.
// The same template is turned into gin paths for registration, so the
// links we generate always match the routes we serve.
// ===========================================

package route

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jtacoma/uritemplates"
)

// Route option keys understood by Expand.
const (
	OptionQuery    = "query"
	OptionFragment = "fragment"
)

var (
	// ErrUnknownRoute is returned when expanding an unregistered name.
	ErrUnknownRoute = errors.New("unknown route")

	// ErrInvalidTemplate is returned for templates that do not parse.
	ErrInvalidTemplate = errors.New("invalid route template")
)

// Route is a named URI template.
type Route struct {
	Name     string
	Template string
	tmpl     *uritemplates.UriTemplate
}

// Table holds named routes. Build it at startup; it is read-only after.
type Table struct {
	routes map[string]*Route
	order  []string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{routes: make(map[string]*Route)}
}

// Add registers a route template under name, replacing any previous one.
func (t *Table) Add(name, template string) error {
	tmpl, err := uritemplates.Parse(template)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidTemplate, template, err)
	}
	if _, exists := t.routes[name]; !exists {
		t.order = append(t.order, name)
	}
	t.routes[name] = &Route{Name: name, Template: template, tmpl: tmpl}
	return nil
}

// Get returns a route by name.
func (t *Table) Get(name string) (*Route, bool) {
	r, ok := t.routes[name]
	return r, ok
}

// Routes returns all routes in registration order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.routes[name])
	}
	return out
}

// Expand builds the path for a route. Params fill template variables;
// options may carry "query" (a map) and "fragment" (a string).
func (t *Table) Expand(name string, params, options map[string]any) (string, error) {
	r, ok := t.routes[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}

	values := make(map[string]interface{}, len(params))
	for k, v := range params {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}

	path, err := r.tmpl.Expand(values)
	if err != nil {
		return "", fmt.Errorf("failed to expand route %q: %w", name, err)
	}

	if query := encodeQuery(options[OptionQuery]); query != "" {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		path += sep + query
	}
	if fragment, ok := options[OptionFragment].(string); ok && fragment != "" {
		path += "#" + url.PathEscape(fragment)
	}
	return path, nil
}

// ===========================================
// gin Registration
// ===========================================

// GinPaths derives the gin paths served by a route template.
// "{var}" becomes ":var"; each "{/var}" adds an optional trailing segment.
// Query and fragment expressions do not affect the path.
func (r *Route) GinPaths() []string {
	var (
		paths []string
		b     strings.Builder
		rest  = r.Template
	)

	for rest != "" {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			b.WriteString(rest[open:])
			break
		}
		expr := rest[open+1 : open+end]
		rest = rest[open+end+1:]

		switch {
		case strings.HasPrefix(expr, "/"):
			// optional segment: the path without it is also served
			paths = append(paths, pathOrRoot(b.String()))
			for _, v := range splitVars(expr[1:]) {
				b.WriteString("/:" + v)
			}
		case expr == "" || strings.ContainsAny(expr[:1], "?&#+.;"):
			// not part of the path
		default:
			for i, v := range splitVars(expr) {
				if i > 0 {
					b.WriteString(",")
				}
				b.WriteString(":" + v)
			}
		}
	}

	paths = append(paths, pathOrRoot(b.String()))
	return slices.Compact(paths)
}

// Register registers handlers for every method on every gin path of a route. The
// handler decides which methods it allows.
func (t *Table) Register(router gin.IRoutes, name string, handlers ...gin.HandlerFunc) error {
	r, ok := t.routes[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	for _, path := range r.GinPaths() {
		router.Any(path, handlers...)
	}
	return nil
}

func splitVars(expr string) []string {
	vars := strings.Split(expr, ",")
	for i, v := range vars {
		// drop modifiers: {var*} and {var:3}
		v = strings.TrimSuffix(v, "*")
		if idx := strings.IndexByte(v, ':'); idx >= 0 {
			v = v[:idx]
		}
		vars[i] = v
	}
	return vars
}

func pathOrRoot(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

// encodeQuery encodes a query option. Keys are sorted so links are stable.
func encodeQuery(q any) string {
	values := url.Values{}
	switch m := q.(type) {
	case nil:
		return ""
	case url.Values:
		values = m
	case map[string]string:
		for k, v := range m {
			values.Set(k, v)
		}
	case map[string][]string:
		for k, v := range m {
			values[k] = v
		}
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			switch v := m[k].(type) {
			case nil:
			case []string:
				for _, s := range v {
					values.Add(k, s)
				}
			case []any:
				for _, s := range v {
					values.Add(k, fmt.Sprint(s))
				}
			default:
				values.Set(k, fmt.Sprint(v))
			}
		}
	default:
		return ""
	}
	return values.Encode()
}
