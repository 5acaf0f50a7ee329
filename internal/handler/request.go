package handler

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/user/halrest/internal/service"
	"github.com/user/halrest/pkg/problem"
)

// Request is what a listener sees of the HTTP request.
type Request struct {
	Method string
	Query  url.Values
	Params map[string]string

	c *gin.Context
}

func newRequest(c *gin.Context) *Request {
	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	return &Request{
		Method: c.Request.Method,
		Query:  c.Request.URL.Query(),
		Params: params,
		c:      c,
	}
}

// Bind decodes the JSON body into dst and runs its binding rules.
// Failures are returned as problems: 400 for an unreadable body, 422 with
// per-field messages for failed validation.
func (r *Request) Bind(dst any) error {
	err := r.c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		messages := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			messages[strings.ToLower(fe.Field())] = validationMessage(fe)
		}
		return problem.New(http.StatusUnprocessableEntity, "Failed Validation",
			problem.WithAdditional(map[string]any{"validation_messages": messages}))
	}

	if errors.Is(err, io.EOF) {
		return problem.New(http.StatusBadRequest, "Request body is empty")
	}
	return problem.New(http.StatusBadRequest, "Invalid JSON body: "+err.Error())
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	}
	return "failed the " + fe.Tag() + " rule"
}

// ===========================================
// Error Mapping
// ===========================================

// handleError maps service errors to HTTP status codes.
func handleError(err error) int {
	switch {
	case errors.Is(err, service.ErrContactNotFound),
		errors.Is(err, service.ErrOrganizationNotFound):
		return http.StatusNotFound

	case errors.Is(err, service.ErrDuplicateEmail):
		return http.StatusConflict

	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusUnprocessableEntity

	default:
		return http.StatusInternalServerError
	}
}
