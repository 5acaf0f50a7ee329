// ===========================================
// Package handler - HTTP Handlers
// ===========================================
// Handlers are thin: they parse the request, call a listener or service,
// and hand the result to the Responder for rendering.
//
// A ResourceHandler serves one named route for both the collection
// (/api/contacts) and its items (/api/contacts/{id}). Listeners implement
// the operations and return plain values, resources, collections or
// problems; the handler turns them into HAL documents.
//
//	Method  Collection     Item
//	------  -------------  ------
//	GET     FetchAll       Fetch
//	POST    Create         -
//	PUT     ReplaceList    Update
//	PATCH   PatchList      Patch
//	DELETE  DeleteList     Delete
// ===========================================

package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/user/halrest/pkg/hal"
	"github.com/user/halrest/pkg/problem"
)

// Default allowed methods. OPTIONS and HEAD are always allowed.
var (
	DefaultResourceMethods   = []string{http.MethodDelete, http.MethodGet, http.MethodPatch, http.MethodPut}
	DefaultCollectionMethods = []string{http.MethodGet, http.MethodPost}
)

// ResourceListener implements the operations of a REST resource.
//
// Results may be a domain object, a *hal.Resource, a *hal.Collection, a
// paginator or a *problem.Problem. A returned problem (as result or error)
// is rendered as-is. A nil result from Fetch is a 404.
type ResourceListener interface {
	Create(ctx context.Context, req *Request) (any, error)
	Fetch(ctx context.Context, req *Request, id string) (any, error)
	FetchAll(ctx context.Context, req *Request) (any, error)
	Update(ctx context.Context, req *Request, id string) (any, error)
	Patch(ctx context.Context, req *Request, id string) (any, error)
	ReplaceList(ctx context.Context, req *Request) (any, error)
	PatchList(ctx context.Context, req *Request) (any, error)
	Delete(ctx context.Context, req *Request, id string) (bool, error)
	DeleteList(ctx context.Context, req *Request) (bool, error)
}

// BaseListener answers every operation with a 405 problem. Embed it and
// override the operations a resource supports.
type BaseListener struct{}

var _ ResourceListener = BaseListener{}

func notDefined(method string) *problem.Problem {
	return problem.MethodNotAllowed(fmt.Sprintf("The %s method has not been defined", method))
}

func (BaseListener) Create(context.Context, *Request) (any, error) {
	return notDefined("POST"), nil
}

func (BaseListener) Fetch(context.Context, *Request, string) (any, error) {
	return notDefined("GET"), nil
}

func (BaseListener) FetchAll(context.Context, *Request) (any, error) {
	return notDefined("GET"), nil
}

func (BaseListener) Update(context.Context, *Request, string) (any, error) {
	return notDefined("PUT"), nil
}

func (BaseListener) Patch(context.Context, *Request, string) (any, error) {
	return notDefined("PATCH"), nil
}

func (BaseListener) ReplaceList(context.Context, *Request) (any, error) {
	return notDefined("PUT (replace list)"), nil
}

func (BaseListener) PatchList(context.Context, *Request) (any, error) {
	return notDefined("PATCH (patch list)"), nil
}

func (BaseListener) Delete(context.Context, *Request, string) (bool, error) {
	return false, notDefined("DELETE")
}

func (BaseListener) DeleteList(context.Context, *Request) (bool, error) {
	return false, notDefined("DELETE (delete list)")
}

// HookFunc observes a handler event such as "create.pre" or "get.post".
type HookFunc func(c *gin.Context, event string, params map[string]any)

// ResourceOptions configure a ResourceHandler.
type ResourceOptions struct {
	// Route is the route name used for self, item and pagination links.
	Route string
	// IdentifierName is the route param (and item field) holding the ID.
	IdentifierName string
	// CollectionName is the _embedded key for collection items.
	CollectionName string
	// PageSize is the default page size.
	PageSize int
	// PageSizeParam names a query param that overrides PageSize.
	PageSizeParam string
	// MaxPageSize caps a requested page size. Zero means no cap.
	MaxPageSize int
	// QueryWhitelist lists query params carried onto collection links.
	QueryWhitelist []string

	ResourceMethods   []string
	CollectionMethods []string
}

// ResourceHandler dispatches requests for one route to a listener.
type ResourceHandler struct {
	listener  ResourceListener
	responder *Responder
	opts      ResourceOptions
	pre       []HookFunc
	post      []HookFunc
}

// NewResourceHandler creates a resource handler.
func NewResourceHandler(listener ResourceListener, responder *Responder, opts ResourceOptions) *ResourceHandler {
	if opts.IdentifierName == "" {
		opts.IdentifierName = hal.DefaultIdentifierName
	}
	if opts.CollectionName == "" {
		opts.CollectionName = hal.DefaultCollectionName
	}
	if opts.PageSize < 1 {
		opts.PageSize = hal.DefaultPageSize
	}
	if opts.ResourceMethods == nil {
		opts.ResourceMethods = DefaultResourceMethods
	}
	if opts.CollectionMethods == nil {
		opts.CollectionMethods = DefaultCollectionMethods
	}
	opts.ResourceMethods = upper(opts.ResourceMethods)
	opts.CollectionMethods = upper(opts.CollectionMethods)

	return &ResourceHandler{listener: listener, responder: responder, opts: opts}
}

// OnPre registers a hook run before each operation.
func (h *ResourceHandler) OnPre(fn HookFunc) { h.pre = append(h.pre, fn) }

// OnPost registers a hook run after each successful operation.
func (h *ResourceHandler) OnPost(fn HookFunc) { h.post = append(h.post, fn) }

// Handle is the gin handler for every method on the route.
func (h *ResourceHandler) Handle(c *gin.Context) {
	id := h.identifier(c)
	method := c.Request.Method

	allowed := h.opts.CollectionMethods
	if id != "" {
		allowed = h.opts.ResourceMethods
	}

	if method == http.MethodOptions {
		h.options(c, allowed)
		return
	}
	if !h.isAllowed(method, allowed) {
		c.Header("Allow", strings.Join(allowed, ", "))
		h.responder.Write(c, 0, problem.MethodNotAllowed(fmt.Sprintf("The %s method is not allowed here", method)))
		return
	}

	req := newRequest(c)
	renderer := h.responder.Renderer(c)

	var (
		status int
		result any
	)
	switch method {
	case http.MethodGet, http.MethodHead:
		if id != "" {
			result = h.get(c, req, renderer, id)
		} else {
			result = h.getList(c, req, renderer)
		}
	case http.MethodPost:
		status, result = h.create(c, req, renderer)
	case http.MethodPut:
		if id != "" {
			result = h.update(c, req, renderer, id)
		} else {
			result = h.replaceList(c, req, renderer)
		}
	case http.MethodPatch:
		if id != "" {
			result = h.patch(c, req, renderer, id)
		} else {
			result = h.patchList(c, req, renderer)
		}
	case http.MethodDelete:
		if id != "" {
			status, result = h.delete(c, req, id)
		} else {
			status, result = h.deleteList(c, req)
		}
	default:
		c.Header("Allow", strings.Join(allowed, ", "))
		result = problem.MethodNotAllowed(fmt.Sprintf("The %s method is not allowed here", method))
	}

	if status == http.StatusNoContent {
		c.Status(http.StatusNoContent)
		return
	}
	h.responder.write(c, renderer, status, result)
}

// ===========================================
// Operations
// ===========================================

func (h *ResourceHandler) create(c *gin.Context, req *Request, r *hal.Renderer) (int, any) {
	h.trigger(h.pre, c, "create.pre", nil)

	result, err := h.listener.Create(c.Request.Context(), req)
	if prob := asProblem(result, err); prob != nil {
		return 0, prob
	}

	res, prob := h.createResource(r, result)
	if prob != nil {
		return 0, prob
	}

	self, _ := res.Links().First("self")
	href, err := r.Href(self)
	if err != nil {
		return 0, toProblem(err)
	}
	c.Header("Location", href)

	h.trigger(h.post, c, "create.post", map[string]any{"resource": res})
	return http.StatusCreated, res
}

func (h *ResourceHandler) get(c *gin.Context, req *Request, r *hal.Renderer, id string) any {
	h.trigger(h.pre, c, "get.pre", map[string]any{"id": id})

	result, err := h.listener.Fetch(c.Request.Context(), req, id)
	if prob := asProblem(result, err); prob != nil {
		return prob
	}
	if result == nil {
		return problem.NotFound("Resource not found.")
	}

	res, prob := h.createResource(r, result)
	if prob != nil {
		return prob
	}

	h.trigger(h.post, c, "get.post", map[string]any{"id": id, "resource": res})
	return res
}

func (h *ResourceHandler) getList(c *gin.Context, req *Request, r *hal.Renderer) any {
	h.trigger(h.pre, c, "getList.pre", nil)

	result, err := h.listener.FetchAll(c.Request.Context(), req)
	if prob := asProblem(result, err); prob != nil {
		return prob
	}

	pageSize := h.opts.PageSize
	if h.opts.PageSizeParam != "" {
		if raw := req.Query.Get(h.opts.PageSizeParam); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return problem.New(http.StatusBadRequest, "Invalid page size provided")
			}
			pageSize = n
		}
	}
	if h.opts.MaxPageSize > 0 {
		pageSize = min(pageSize, h.opts.MaxPageSize)
	}

	coll, prob := h.createCollection(r, req, result, pageSize)
	if prob != nil {
		return prob
	}

	h.trigger(h.post, c, "getList.post", map[string]any{"collection": coll})
	return coll
}

func (h *ResourceHandler) update(c *gin.Context, req *Request, r *hal.Renderer, id string) any {
	h.trigger(h.pre, c, "update.pre", map[string]any{"id": id})

	result, err := h.listener.Update(c.Request.Context(), req, id)
	if prob := asProblem(result, err); prob != nil {
		return prob
	}

	res, prob := h.createResource(r, result)
	if prob != nil {
		return prob
	}

	h.trigger(h.post, c, "update.post", map[string]any{"id": id, "resource": res})
	return res
}

func (h *ResourceHandler) patch(c *gin.Context, req *Request, r *hal.Renderer, id string) any {
	h.trigger(h.pre, c, "patch.pre", map[string]any{"id": id})

	result, err := h.listener.Patch(c.Request.Context(), req, id)
	if prob := asProblem(result, err); prob != nil {
		return prob
	}

	res, prob := h.createResource(r, result)
	if prob != nil {
		return prob
	}

	h.trigger(h.post, c, "patch.post", map[string]any{"id": id, "resource": res})
	return res
}

func (h *ResourceHandler) replaceList(c *gin.Context, req *Request, r *hal.Renderer) any {
	h.trigger(h.pre, c, "replaceList.pre", nil)

	result, err := h.listener.ReplaceList(c.Request.Context(), req)
	if prob := asProblem(result, err); prob != nil {
		return prob
	}

	coll, prob := h.createCollection(r, req, result, h.opts.PageSize)
	if prob != nil {
		return prob
	}

	h.trigger(h.post, c, "replaceList.post", map[string]any{"collection": coll})
	return coll
}

func (h *ResourceHandler) patchList(c *gin.Context, req *Request, r *hal.Renderer) any {
	h.trigger(h.pre, c, "patchList.pre", nil)

	result, err := h.listener.PatchList(c.Request.Context(), req)
	if prob := asProblem(result, err); prob != nil {
		return prob
	}

	coll, prob := h.createCollection(r, req, result, h.opts.PageSize)
	if prob != nil {
		return prob
	}

	h.trigger(h.post, c, "patchList.post", map[string]any{"collection": coll})
	return coll
}

func (h *ResourceHandler) delete(c *gin.Context, req *Request, id string) (int, any) {
	h.trigger(h.pre, c, "delete.pre", map[string]any{"id": id})

	ok, err := h.listener.Delete(c.Request.Context(), req, id)
	if err != nil {
		return 0, toProblem(err)
	}
	if !ok {
		return 0, problem.Unprocessable("Unable to delete resource.")
	}

	h.trigger(h.post, c, "delete.post", map[string]any{"id": id})
	return http.StatusNoContent, nil
}

func (h *ResourceHandler) deleteList(c *gin.Context, req *Request) (int, any) {
	h.trigger(h.pre, c, "deleteList.pre", nil)

	ok, err := h.listener.DeleteList(c.Request.Context(), req)
	if err != nil {
		return 0, toProblem(err)
	}
	if !ok {
		return 0, problem.Unprocessable("Unable to delete collection.")
	}

	h.trigger(h.post, c, "deleteList.post", nil)
	return http.StatusNoContent, nil
}

func (h *ResourceHandler) options(c *gin.Context, allowed []string) {
	h.trigger(h.pre, c, "options.pre", map[string]any{"options": allowed})

	c.Header("Allow", strings.Join(allowed, ", "))
	c.Status(http.StatusNoContent)

	h.trigger(h.post, c, "options.post", map[string]any{"options": allowed})
}

// ===========================================
// Helper Functions
// ===========================================

func (h *ResourceHandler) createResource(r *hal.Renderer, result any) (*hal.Resource, *problem.Problem) {
	res, prob, err := r.CreateResource(result, h.opts.Route, h.opts.IdentifierName)
	if err != nil {
		return nil, toProblem(err)
	}
	return res, prob
}

func (h *ResourceHandler) createCollection(r *hal.Renderer, req *Request, result any, pageSize int) (*hal.Collection, *problem.Problem) {
	coll, err := r.CreateCollection(result, h.opts.Route)
	if err != nil {
		return nil, toProblem(err)
	}

	coll.CollectionRoute = h.opts.Route
	coll.ResourceRoute = h.opts.Route
	coll.IdentifierName = h.opts.IdentifierName
	coll.CollectionName = h.opts.CollectionName
	coll.SetPage(pageFromQuery(req.Query))
	if err := coll.SetPageSize(pageSize); err != nil {
		return nil, toProblem(err)
	}

	if query := h.whitelistedQuery(req.Query); len(query) > 0 {
		if coll.CollectionRouteOptions == nil {
			coll.CollectionRouteOptions = map[string]any{}
		}
		coll.CollectionRouteOptions["query"] = query
	}
	return coll, nil
}

// pageFromQuery reads ?page. Missing means 1; anything unparsable becomes 0,
// which renders as an invalid page.
func pageFromQuery(q url.Values) int {
	raw := q.Get("page")
	if raw == "" {
		return 1
	}
	page, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return page
}

func (h *ResourceHandler) whitelistedQuery(q url.Values) map[string]string {
	out := make(map[string]string)
	for _, key := range h.opts.QueryWhitelist {
		if q.Has(key) {
			out[key] = q.Get(key)
		}
	}
	return out
}

// identifier reads the ID from the route, falling back to the query
// string.
func (h *ResourceHandler) identifier(c *gin.Context) string {
	if id := c.Param(h.opts.IdentifierName); id != "" {
		return id
	}
	return c.Query(h.opts.IdentifierName)
}

func (h *ResourceHandler) isAllowed(method string, allowed []string) bool {
	return method == http.MethodHead || slices.Contains(allowed, method)
}

func (h *ResourceHandler) trigger(hooks []HookFunc, c *gin.Context, event string, params map[string]any) {
	for _, fn := range hooks {
		fn(c, event, params)
	}
}

// asProblem returns the problem carried by a listener result, if any.
func asProblem(result any, err error) *problem.Problem {
	if err != nil {
		return toProblem(err)
	}
	if prob, ok := result.(*problem.Problem); ok {
		return prob
	}
	return nil
}

// toProblem converts an error into a problem: problems pass through,
// errors with a StatusCode() keep it, known service errors are mapped by
// handleError, anything else is a 500.
func toProblem(err error) *problem.Problem {
	var prob *problem.Problem
	if errors.As(err, &prob) {
		return prob
	}

	var sc problem.StatusCoder
	if errors.As(err, &sc) && sc.StatusCode() != 0 {
		return problem.FromError(sc.StatusCode(), err)
	}

	return problem.FromError(handleError(err), err)
}

func upper(methods []string) []string {
	out := make([]string, len(methods))
	for i, m := range methods {
		out[i] = strings.ToUpper(m)
	}
	return out
}
