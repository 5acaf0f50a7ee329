package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/pkg/hal"
	"github.com/user/halrest/pkg/problem"
)

// HomeHandler serves the API root.
type HomeHandler struct {
	responder *Responder
	version   string
}

// NewHomeHandler creates a new home handler.
func NewHomeHandler(responder *Responder, version string) *HomeHandler {
	return &HomeHandler{responder: responder, version: version}
}

// ===========================================
// GET /api
// ===========================================
// Entry point for clients: everything else is reachable from its links.
//
//	{
//	  "name": "halrest",
//	  "version": "1.0.0",
//	  "_links": {
//	    "self":          {"href": "http://host/api"},
//	    "contacts":      {"href": "http://host/api/contacts"},
//	    "organizations": {"href": "http://host/api/organizations"}
//	  }
//	}
func (h *HomeHandler) Home(c *gin.Context) {
	if m := c.Request.Method; m != http.MethodGet && m != http.MethodHead {
		c.Header("Allow", http.MethodGet)
		h.responder.Write(c, 0, problem.MethodNotAllowed("The API root is read-only"))
		return
	}

	root := hal.NewResource(map[string]any{
		"name":    "halrest",
		"version": h.version,
	}, nil)

	for rel, name := range map[string]string{
		"self":          models.RouteAPI,
		"contacts":      models.RouteContacts,
		"organizations": models.RouteOrganizations,
	} {
		link := hal.NewLink(rel)
		if err := link.SetRoute(name, nil, nil); err != nil {
			h.responder.Write(c, 0, err)
			return
		}
		root.Links().Add(link, true)
	}

	h.responder.Write(c, 0, root)
}
