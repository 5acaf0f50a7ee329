// ===========================================
// Health Check Handler
// ===========================================
// Health checks are essential for production deployments.
//
// TYPES OF HEALTH CHECKS:
// 1. Liveness: "Is the process alive?" - Basic, fast
// 2. Readiness: "Can the process handle requests?" - Checks dependencies
// ===========================================

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/user/halrest/internal/models"
)

// Checker is a dependency that can report its health.
type Checker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	responder *Responder
	checks    map[string]Checker
	version   string
}

// NewHealthHandler creates a new health handler. checks maps a dependency
// name ("sqlite", "postgres", "redis") to its checker; optional
// dependencies that are switched off are simply left out.
func NewHealthHandler(responder *Responder, checks map[string]Checker, version string) *HealthHandler {
	return &HealthHandler{
		responder: responder,
		checks:    checks,
		version:   version,
	}
}

// ===========================================
// GET /health
// ===========================================
// Returns the health status of the service and its dependencies.
//
// Response (200 - healthy):
//
//	{
//	  "status": "healthy",
//	  "version": "1.0.0",
//	  "services": {
//	    "postgres": "ok",
//	    "redis": "ok"
//	  }
//	}
//
// Response (503 - unhealthy): same shape, with "unhealthy" and the failing
// dependency's error.
func (h *HealthHandler) Health(c *gin.Context) {
	// Use short timeout - health checks should be fast
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	services := make(map[string]string, len(h.checks))
	healthy := true

	for name, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			services[name] = "error: " + err.Error()
			healthy = false
		} else {
			services[name] = "ok"
		}
	}

	response := models.HealthResponse{
		Status:   "healthy",
		Version:  h.version,
		Services: services,
	}
	status := http.StatusOK
	if !healthy {
		response.Status = "unhealthy"
		// 503 tells load balancers to route traffic elsewhere
		status = http.StatusServiceUnavailable
	}

	h.responder.Write(c, status, response)
}

// ===========================================
// GET /ready
// ===========================================
// Simpler readiness check - just returns 200 or 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	for _, check := range h.checks {
		if err := check.Health(ctx); err != nil {
			c.Status(http.StatusServiceUnavailable)
			return
		}
	}

	c.Status(http.StatusOK)
}

// ===========================================
// GET /live
// ===========================================
// Liveness check - just confirms the process is running.
// Does NOT check dependencies (that's for readiness).
func (h *HealthHandler) Live(c *gin.Context) {
	c.Status(http.StatusOK)
}
