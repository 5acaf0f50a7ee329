package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/user/halrest/pkg/hal"
	"github.com/user/halrest/pkg/problem"
	"github.com/user/halrest/pkg/route"
	"github.com/user/halrest/pkg/view"
)

// Responder renders handler results. It owns the rendering state shared
// by every request and builds a request-bound hal.Renderer on demand.
type Responder struct {
	routes            *route.Table
	metadata          *hal.MetadataMap
	hydrators         *hal.Hydrators
	hooks             *hal.Hooks
	logger            *slog.Logger
	displayExceptions bool
}

// ResponderConfig wires a Responder. Nil parts get empty defaults.
type ResponderConfig struct {
	Routes            *route.Table
	Metadata          *hal.MetadataMap
	Hydrators         *hal.Hydrators
	Hooks             *hal.Hooks
	Logger            *slog.Logger
	DisplayExceptions bool
}

// NewResponder creates a new responder.
func NewResponder(cfg ResponderConfig) *Responder {
	r := &Responder{
		routes:            cfg.Routes,
		metadata:          cfg.Metadata,
		hydrators:         cfg.Hydrators,
		hooks:             cfg.Hooks,
		logger:            cfg.Logger,
		displayExceptions: cfg.DisplayExceptions,
	}
	if r.routes == nil {
		r.routes = route.NewTable()
	}
	if r.metadata == nil {
		r.metadata = hal.NewMetadataMap()
	}
	if r.hydrators == nil {
		r.hydrators = hal.NewHydrators()
	}
	if r.hooks == nil {
		r.hooks = hal.NewHooks()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Routes returns the route table.
func (r *Responder) Routes() *route.Table { return r.routes }

// Renderer returns a renderer bound to the request's matched params and
// server URL.
func (r *Responder) Renderer(c *gin.Context) *hal.Renderer {
	resolver, server := route.FromGin(c, r.routes)
	return hal.NewRenderer(hal.Config{
		Routes:    resolver,
		ServerURL: server,
		Metadata:  r.metadata,
		Hydrators: r.hydrators,
		Hooks:     r.hooks,
		Logger:    r.logger,
	})
}

// Write renders v and writes it. status overrides the success status
// (e.g. 201); problems always use their own. Pass 0 for the default.
func (r *Responder) Write(c *gin.Context, status int, v any) {
	r.write(c, r.Renderer(c), status, v)
}

func (r *Responder) write(c *gin.Context, renderer *hal.Renderer, status int, v any) {
	opts := view.Options{DisplayExceptions: r.displayExceptions}

	out, err := view.Encode(c.Request.Context(), renderer, view.Classify(v), opts)
	if err != nil {
		r.logger.ErrorContext(c.Request.Context(), "render failed",
			"path", c.Request.URL.Path,
			"error", err,
		)
		out, _ = view.Encode(c.Request.Context(), renderer,
			view.Classify(problem.FromError(http.StatusInternalServerError, err)), opts)
	}

	if status != 0 && out.Kind != view.KindProblem {
		out.Status = status
	}
	if out.Kind == view.KindProblem && out.Status >= http.StatusInternalServerError {
		r.logger.ErrorContext(c.Request.Context(), "request failed",
			"path", c.Request.URL.Path,
			"status", out.Status,
			"detail", out.Body.(map[string]any)["detail"],
		)
	}

	c.Render(out.Status, view.Render{Output: out})
}
