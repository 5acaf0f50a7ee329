// ===========================================
// Package problem - API Problem Documents
// ===========================================
// A Problem is the error payload of the API:
//
//	{
//	  "httpStatus": 404,
//	  "title": "Not Found",
//	  "detail": "Resource not found.",
//	  "describedBy": "http://www.w3.org/Protocols/rfc2616/rfc2616-sec10.html"
//	}
//
// Problems are returned as values from render paths so that callers
// cannot forget to handle them. They also implement error so they can be
// carried through error returns when that is more convenient.
// ===========================================

package problem

import (
	"encoding/json"
	"fmt"
	"maps"
	"net/http"
	"runtime/debug"
)

// ContentType is the media type of problem documents.
const ContentType = "application/api-problem+json"

// DefaultDescribedBy documents the standard HTTP status codes. Titles are
// derived from the status code only while this is the describedBy URI.
const DefaultDescribedBy = "http://www.w3.org/Protocols/rfc2616/rfc2616-sec10.html"

// UnknownTitle is used when no title can be derived.
const UnknownTitle = "Unknown"

// StatusCoder is implemented by errors that carry their own HTTP status.
type StatusCoder interface {
	StatusCode() int
}

// Problem is an API problem document.
type Problem struct {
	status            int
	title             string
	detail            string
	describedBy       string
	additional        map[string]any
	err               error
	stack             []byte
	includeStackTrace bool
}

// Option customizes a Problem at construction.
type Option func(*Problem)

// WithTitle sets an explicit title.
func WithTitle(title string) Option {
	return func(p *Problem) { p.title = title }
}

// WithDescribedBy sets the URI documenting the problem type.
func WithDescribedBy(uri string) Option {
	return func(p *Problem) { p.describedBy = uri }
}

// WithAdditional adds extra members to the document. They never replace
// the standard members.
func WithAdditional(fields map[string]any) Option {
	return func(p *Problem) {
		if p.additional == nil {
			p.additional = make(map[string]any, len(fields))
		}
		maps.Copy(p.additional, fields)
	}
}

// New creates a problem from a status code and a detail message.
func New(status int, detail string, opts ...Option) *Problem {
	p := &Problem{
		status:      status,
		detail:      detail,
		describedBy: DefaultDescribedBy,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FromError creates a problem from a failure. If err carries a non-zero
// StatusCode() it replaces status. The detail is the error message; the
// stack is captured here and appended only when stack traces are enabled.
func FromError(status int, err error, opts ...Option) *Problem {
	p := New(status, "", opts...)
	p.err = err
	p.stack = debug.Stack()
	if sc, ok := err.(StatusCoder); ok && sc.StatusCode() != 0 {
		p.status = sc.StatusCode()
	}
	return p
}

// ===========================================
// Common Problems
// ===========================================

// NotFound returns a 404 problem.
func NotFound(detail string) *Problem { return New(http.StatusNotFound, detail) }

// Conflict returns a 409 problem.
func Conflict(detail string) *Problem { return New(http.StatusConflict, detail) }

// Unprocessable returns a 422 problem.
func Unprocessable(detail string) *Problem { return New(http.StatusUnprocessableEntity, detail) }

// MethodNotAllowed returns a 405 problem.
func MethodNotAllowed(detail string) *Problem { return New(http.StatusMethodNotAllowed, detail) }

// Internal returns a 500 problem wrapping err.
func Internal(err error) *Problem { return FromError(http.StatusInternalServerError, err) }

// ===========================================
// Accessors
// ===========================================

// SetDetailIncludesStackTrace toggles stack traces in the detail of
// error-derived problems.
func (p *Problem) SetDetailIncludesStackTrace(include bool) {
	p.includeStackTrace = include
}

// Status returns the status as carried in the body. It may be outside the
// valid HTTP range; see TransportStatus.
func (p *Problem) Status() int { return p.status }

// TransportStatus returns the status to put on the wire: the body status
// when it is a valid HTTP status (100-599), otherwise 500.
func (p *Problem) TransportStatus() int {
	if p.status < 100 || p.status > 599 {
		return http.StatusInternalServerError
	}
	return p.status
}

// Title returns the explicit title, else the standard status text while
// describedBy is the default, else "Unknown".
func (p *Problem) Title() string {
	if p.title != "" {
		return p.title
	}
	if p.describedBy == DefaultDescribedBy {
		if text := http.StatusText(p.status); text != "" {
			return text
		}
	}
	return UnknownTitle
}

// Detail returns the human-readable detail.
func (p *Problem) Detail() string {
	if p.err == nil {
		return p.detail
	}
	detail := p.err.Error()
	if p.includeStackTrace && len(p.stack) > 0 {
		detail += "\n" + string(p.stack)
	}
	return detail
}

// DescribedBy returns the URI documenting the problem type.
func (p *Problem) DescribedBy() string { return p.describedBy }

// Error implements error.
func (p *Problem) Error() string {
	return fmt.Sprintf("%d %s: %s", p.status, p.Title(), p.Detail())
}

// Unwrap returns the failure the problem was built from, if any.
func (p *Problem) Unwrap() error { return p.err }

// ToMap returns the document as a map.
func (p *Problem) ToMap() map[string]any {
	doc := make(map[string]any, len(p.additional)+4)
	maps.Copy(doc, p.additional)
	doc["httpStatus"] = p.status
	doc["title"] = p.Title()
	doc["detail"] = p.Detail()
	doc["describedBy"] = p.describedBy
	return doc
}

// MarshalJSON implements json.Marshaler.
func (p *Problem) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToMap())
}
