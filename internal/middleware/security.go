// ===========================================
// Package middleware - Security Headers & CORS
// ===========================================
// Security headers are "defense in depth": each one blocks a specific
// attack vector, and together they cost nothing.
//
// OWASP RECOMMENDATION:
// Always set security headers. They're free protection!
// ===========================================

package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// securityHeaders are set on every response.
//
//	X-Content-Type-Options   no MIME sniffing
//	X-Frame-Options          no framing (clickjacking)
//	Referrer-Policy          origin only for cross-origin requests
//	Content-Security-Policy  an API loads nothing
//	Permissions-Policy       no browser features
//	Cache-Control, Pragma    responses carry user data
//
// Strict-Transport-Security is left to the TLS-terminating proxy: once a
// browser sees it, plain HTTP stops working.
var securityHeaders = [][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Permissions-Policy", "geolocation=(), microphone=(), camera=()"},
	{"Cache-Control", "no-store, no-cache, must-revalidate"},
	{"Pragma", "no-cache"},
}

// SecurityHeaders returns middleware that sets security headers.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range securityHeaders {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}

// ===========================================
// CORS Configuration
// ===========================================
// Cross-Origin Resource Sharing controls which domains can call the API
// from JavaScript.

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // Preflight cache duration in seconds
}

// DefaultCORSConfig returns permissive defaults for a public read/write
// API. Restrict AllowedOrigins when credentials are involved.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
		ExposedHeaders: []string{
			"Location", "Allow", RequestIDHeader,
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After",
		},
		AllowCredentials: false, // Don't allow with "*" origin
		MaxAge:           86400, // Cache preflight for 24 hours
	}
}

// CORS returns CORS middleware with the given config.
//
// Only real preflights (OPTIONS with Origin and
// Access-Control-Request-Method) are answered here; any other OPTIONS
// request reaches the resource handler, which reports the allowed methods.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// Vary header tells caches that response depends on Origin
		c.Header("Vary", "Origin")

		if origin == "" {
			c.Next()
			return
		}

		if allowed := allowedOrigin(cfg.AllowedOrigins, origin); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			if exposed != "" {
				c.Header("Access-Control-Expose-Headers", exposed)
			}
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
		}

		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			c.Header("Access-Control-Max-Age", maxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowedOrigin(origins []string, origin string) string {
	for _, allowed := range origins {
		if allowed == "*" || allowed == origin {
			return allowed
		}
	}
	return ""
}
