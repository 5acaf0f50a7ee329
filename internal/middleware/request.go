package middleware

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/user/halrest/pkg/problem"
	"github.com/user/halrest/pkg/view"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "request_id"

// RequestID assigns every request an ID, reusing a client-supplied one
// when it looks sane.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogger logs one line per request. It replaces gin.Logger so that
// access logs share the application's structured format.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		level := slog.LevelInfo
		switch {
		case status >= http.StatusInternalServerError:
			level = slog.LevelError
		case status >= http.StatusBadRequest:
			level = slog.LevelWarn
		}

		logger.Log(c.Request.Context(), level, "request",
			slog.String("request_id", GetRequestID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

// Recovery turns panics into 500 problems. Stack traces are included in
// the problem detail only when displayExceptions is set; they are always
// logged.
func Recovery(logger *slog.Logger, displayExceptions bool) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		err, ok := recovered.(error)
		if !ok {
			err = fmt.Errorf("panic: %v", recovered)
		}

		prob := problem.Internal(err)
		logger.ErrorContext(c.Request.Context(), "panic recovered",
			slog.String("request_id", GetRequestID(c)),
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
			slog.String("stack", string(debug.Stack())),
		)

		prob.SetDetailIncludesStackTrace(displayExceptions)
		abortWithProblem(c, prob)
	})
}

// abortWithProblem writes prob as an API problem and stops the chain.
func abortWithProblem(c *gin.Context, prob *problem.Problem) {
	out := view.Output{
		Kind:        view.KindProblem,
		Status:      prob.TransportStatus(),
		ContentType: problem.ContentType,
		Body:        prob.ToMap(),
	}
	c.Render(out.Status, view.Render{Output: out})
	c.Abort()
}
