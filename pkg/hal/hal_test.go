package hal_test

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/halrest/pkg/hal"
)

const testHost = "http://localhost.localdomain"

// stubRoutes maps route names to base paths. An "id" param is appended as
// a path segment and the "query" option is encoded with sorted keys.
type stubRoutes struct {
	paths     map[string]string
	lastReuse *bool
}

func newStubRoutes(paths map[string]string) *stubRoutes {
	return &stubRoutes{paths: paths}
}

func (s *stubRoutes) Resolve(name string, params, options map[string]any, reuse bool) (string, error) {
	s.lastReuse = &reuse

	base, ok := s.paths[name]
	if !ok {
		return "", fmt.Errorf("unknown route %q", name)
	}
	if id, ok := params["id"]; ok && id != nil {
		base += "/" + fmt.Sprint(id)
	}
	if q, ok := options["query"].(map[string]any); ok && len(q) > 0 {
		keys := make([]string, 0, len(q))
		for k := range q {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		values := url.Values{}
		for _, k := range keys {
			values.Set(k, fmt.Sprint(q[k]))
		}
		base += "?" + values.Encode()
	}
	if len(options) > 0 {
		for k := range options {
			if k != "query" {
				return "", fmt.Errorf("unexpected route option %q", k)
			}
		}
	}
	return base, nil
}

type stubServer string

func (s stubServer) Compose(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return string(s) + path
}

func newTestRenderer(cfg hal.Config) *hal.Renderer {
	if cfg.Routes == nil {
		cfg.Routes = newStubRoutes(map[string]string{
			"resource": "/resource",
			"widgets":  "/widgets",
			"parts":    "/parts",
		})
	}
	if cfg.ServerURL == nil {
		cfg.ServerURL = stubServer(testHost)
	}
	return hal.NewRenderer(cfg)
}

// widget is a typed domain object extracted through its JSON form.
type widget struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (widget) ResourceType() string { return "widget" }

// part exposes its fields through Extract and its id as a property.
type part struct {
	Serial string
	Label  string
}

func (part) ResourceType() string { return "part" }

func (p part) Extract() map[string]any {
	return map[string]any{"serial": p.Serial, "label": p.Label}
}

func (p part) Property(name string) (any, bool) {
	if name == "serial" {
		return p.Serial, true
	}
	return nil, false
}

func href(t *testing.T, doc map[string]any, rel string) string {
	t.Helper()
	links, ok := doc[hal.LinksKey].(map[string]any)
	require.True(t, ok, "document has no _links")
	link, ok := links[rel].(map[string]any)
	require.Truef(t, ok, "missing %q link", rel)
	h, ok := link["href"].(string)
	require.True(t, ok)
	return h
}

func hasLink(doc map[string]any, rel string) bool {
	links, ok := doc[hal.LinksKey].(map[string]any)
	if !ok {
		return false
	}
	_, ok = links[rel]
	return ok
}

func numberedItems(n int) []any {
	items := make([]any, n)
	for i := range items {
		items[i] = map[string]any{"id": i + 1, "name": fmt.Sprintf("item %d", i+1)}
	}
	return items
}
