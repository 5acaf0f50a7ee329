// ===========================================
// Package view - Payload Rendering Shell
// ===========================================
// Every value a handler wants to send is classified once into a closed set
// of payload kinds. The kind decides how the value is rendered and which
// media type goes on the wire:
//
//	Kind        Body                     Content-Type
//	----------  -----------------------  ------------------------------
//	Resource    hal.Renderer document    application/hal+json
//	Collection  hal.Renderer document    application/hal+json
//	Problem     problem document         application/api-problem+json
//	Plain       value as-is              application/json
//
// A collection whose page is out of range renders as its 409 problem.
// ===========================================

package view

import (
	"context"
	"errors"
	"net/http"

	"github.com/user/halrest/pkg/hal"
	"github.com/user/halrest/pkg/problem"
)

// Media types.
const (
	HALContentType  = "application/hal+json"
	JSONContentType = "application/json"
)

// Kind is the rendering branch of a payload.
type Kind int

const (
	KindPlain Kind = iota
	KindResource
	KindCollection
	KindProblem
)

func (k Kind) String() string {
	switch k {
	case KindResource:
		return "resource"
	case KindCollection:
		return "collection"
	case KindProblem:
		return "problem"
	default:
		return "plain"
	}
}

// Payload is a classified value. Build it with Classify.
type Payload struct {
	kind       Kind
	resource   *hal.Resource
	collection *hal.Collection
	problem    *problem.Problem
	plain      any
}

// Classify decides the payload kind of v. Errors are problems: a
// *problem.Problem anywhere in the chain is used as-is, any other error
// becomes a 500 problem.
func Classify(v any) Payload {
	switch t := v.(type) {
	case *hal.Resource:
		return Payload{kind: KindResource, resource: t}
	case *hal.Collection:
		return Payload{kind: KindCollection, collection: t}
	case *problem.Problem:
		return Payload{kind: KindProblem, problem: t}
	case error:
		var prob *problem.Problem
		if errors.As(t, &prob) {
			return Payload{kind: KindProblem, problem: prob}
		}
		return Payload{kind: KindProblem, problem: problem.Internal(t)}
	}
	return Payload{kind: KindPlain, plain: v}
}

// Kind returns the payload kind.
func (p Payload) Kind() Kind { return p.kind }

// Problem returns the problem of a KindProblem payload.
func (p Payload) Problem() *problem.Problem { return p.problem }

// ContentType returns the media type for the payload kind.
func (p Payload) ContentType() string {
	switch p.kind {
	case KindResource, KindCollection:
		return HALContentType
	case KindProblem:
		return problem.ContentType
	default:
		return JSONContentType
	}
}

// ContentType classifies v and returns its media type.
func ContentType(v any) string {
	return Classify(v).ContentType()
}

// Output is an encoded payload ready to be written.
type Output struct {
	Kind        Kind
	Status      int
	ContentType string
	Body        any
}

// Options control encoding.
type Options struct {
	// DisplayExceptions appends stack traces to error-derived problems.
	DisplayExceptions bool
}

// Encode renders a payload. Resources and collections go through r.
// Success payloads get 200; problems get their transport status.
func Encode(ctx context.Context, r *hal.Renderer, p Payload, opts Options) (Output, error) {
	switch p.kind {
	case KindResource:
		doc, err := r.RenderResource(ctx, p.resource)
		if err != nil {
			return Output{}, err
		}
		return Output{Kind: p.kind, Status: http.StatusOK, ContentType: HALContentType, Body: doc}, nil

	case KindCollection:
		doc, prob, err := r.RenderCollection(ctx, p.collection)
		if err != nil {
			return Output{}, err
		}
		if prob != nil {
			return encodeProblem(prob, opts), nil
		}
		return Output{Kind: p.kind, Status: http.StatusOK, ContentType: HALContentType, Body: doc}, nil

	case KindProblem:
		return encodeProblem(p.problem, opts), nil
	}

	return Output{Kind: KindPlain, Status: http.StatusOK, ContentType: JSONContentType, Body: p.plain}, nil
}

func encodeProblem(prob *problem.Problem, opts Options) Output {
	prob.SetDetailIncludesStackTrace(opts.DisplayExceptions)
	return Output{
		Kind:        KindProblem,
		Status:      prob.TransportStatus(),
		ContentType: problem.ContentType,
		Body:        prob.ToMap(),
	}
}
