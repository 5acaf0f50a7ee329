package route

import (
	"maps"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Resolver resolves named routes for one request. Matched params of the
// current request are used as defaults when reuse is requested.
type Resolver struct {
	table   *Table
	matched map[string]string
}

// NewResolver binds a table to the params matched for the current request.
func NewResolver(table *Table, matched map[string]string) *Resolver {
	return &Resolver{table: table, matched: matched}
}

// Resolve implements hal.RouteResolver.
func (r *Resolver) Resolve(name string, params, options map[string]any, reuseMatchedParams bool) (string, error) {
	merged := make(map[string]any, len(r.matched)+len(params))
	if reuseMatchedParams {
		for k, v := range r.matched {
			merged[k] = v
		}
	}
	maps.Copy(merged, params)
	return r.table.Expand(name, merged, options)
}

// ServerURL composes absolute URLs from a scheme and host.
type ServerURL struct {
	Scheme string
	Host   string
}

// Compose implements hal.URLComposer.
func (s ServerURL) Compose(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	scheme := s.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + s.Host + path
}

// ServerURLFromRequest reads the scheme and host of a request, honouring
// X-Forwarded-Proto and X-Forwarded-Host set by a reverse proxy.
//
// SECURITY NOTE:
// Forwarded headers can be spoofed. Only trust them behind a proxy that
// overwrites them.
func ServerURLFromRequest(req *http.Request) ServerURL {
	scheme := "http"
	if req.TLS != nil {
		scheme = "https"
	}
	if proto := req.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}

	host := req.Host
	if fwd := req.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return ServerURL{Scheme: scheme, Host: host}
}

// FromGin builds the URL helpers for a gin request.
func FromGin(c *gin.Context, table *Table) (*Resolver, ServerURL) {
	matched := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		matched[p.Key] = p.Value
	}
	return NewResolver(table, matched), ServerURLFromRequest(c.Request)
}
