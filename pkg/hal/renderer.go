package hal

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/user/halrest/pkg/problem"
)

// Reserved document members.
const (
	LinksKey    = "_links"
	EmbeddedKey = "_embedded"
)

// ReuseMatchedParamsOption is the route option controlling whether the
// current request's matched route params are used as defaults. It is
// consumed before the route is resolved.
const ReuseMatchedParamsOption = "reuse_matched_params"

// RouteResolver turns a route name plus params/options into a path.
type RouteResolver interface {
	Resolve(name string, params, options map[string]any, reuseMatchedParams bool) (string, error)
}

// URLComposer prefixes a path with the current scheme and host.
type URLComposer interface {
	Compose(path string) string
}

// Config wires a Renderer. Metadata, Hydrators and Hooks are shared and
// read-only once built; Routes and ServerURL are usually per request.
type Config struct {
	Routes    RouteResolver
	ServerURL URLComposer
	Metadata  *MetadataMap
	Hydrators *Hydrators
	Hooks     *Hooks
	Logger    *slog.Logger
}

// Renderer assembles links and renders resources and collections into
// JSON-ready maps. A Renderer is cheap; build one per request.
type Renderer struct {
	routes    RouteResolver
	server    URLComposer
	metadata  *MetadataMap
	hydrators *Hydrators
	hooks     *Hooks
	logger    *slog.Logger
}

// NewRenderer creates a renderer, filling unset shared parts with empty
// defaults.
func NewRenderer(cfg Config) *Renderer {
	r := &Renderer{
		routes:    cfg.Routes,
		server:    cfg.ServerURL,
		metadata:  cfg.Metadata,
		hydrators: cfg.Hydrators,
		hooks:     cfg.Hooks,
		logger:    cfg.Logger,
	}
	if r.metadata == nil {
		r.metadata = NewMetadataMap()
	}
	if r.hydrators == nil {
		r.hydrators = NewHydrators()
	}
	if r.hooks == nil {
		r.hooks = NewHooks()
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// ===========================================
// Rendering
// ===========================================

// RenderResource renders a resource: its data as a field map, nested
// resources and collections moved under _embedded, and its links under
// _links.
func (r *Renderer) RenderResource(ctx context.Context, res *Resource) (map[string]any, error) {
	r.hooks.fireRenderResource(res)

	links, err := r.FromLinkCollection(res.Links())
	if err != nil {
		return nil, err
	}

	fields, err := r.toFields(res.Data)
	if err != nil {
		return nil, err
	}
	if err := r.embed(ctx, fields); err != nil {
		return nil, err
	}

	fields[LinksKey] = links
	return fields, nil
}

// RenderCollection renders a collection. Paginated collections get
// self/first/last/prev/next links; an out-of-range page yields a 409
// problem instead of a document.
func (r *Renderer) RenderCollection(ctx context.Context, c *Collection) (map[string]any, *problem.Problem, error) {
	r.hooks.fireRenderCollection(c)

	if c.IsPaginated() {
		prob, err := r.injectPaginationLinks(ctx, c)
		if err != nil || prob != nil {
			return nil, prob, err
		}
	}

	payload := make(map[string]any, len(c.Attributes)+2)
	maps.Copy(payload, c.Attributes)

	links, err := r.FromLinkCollection(c.Links())
	if err != nil {
		return nil, nil, err
	}
	items, err := r.extractCollection(ctx, c)
	if err != nil {
		return nil, nil, err
	}

	payload[LinksKey] = links
	payload[EmbeddedKey] = map[string]any{c.collectionName(): items}
	return payload, nil, nil
}

// injectPaginationLinks validates the page and adds pagination links.
func (r *Renderer) injectPaginationLinks(ctx context.Context, c *Collection) (*problem.Problem, error) {
	count, err := c.paginator.PageCount(ctx, c.pageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}
	if count == 0 {
		return nil, nil
	}
	if c.page < 1 || c.page > count {
		return problem.Conflict("Invalid page provided"), nil
	}
	if c.CollectionRoute == "" {
		return nil, nil
	}

	links := c.Links()
	add := func(rel string, page int) {
		options := c.CollectionRouteOptions
		if page > 0 {
			options = withPageQuery(options, page)
		}
		link := NewLink(rel)
		_ = link.SetRoute(c.CollectionRoute, maps.Clone(c.CollectionRouteParams), options)
		links.Add(link, true)
	}

	add("self", c.page)
	add("first", 0)
	add("last", count)
	if c.page > 1 {
		add("prev", c.page-1)
	}
	if c.page < count {
		add("next", c.page+1)
	}
	return nil, nil
}

// extractCollection renders every item of a collection.
func (r *Renderer) extractCollection(ctx context.Context, c *Collection) ([]any, error) {
	items := c.items
	if c.paginator != nil {
		var err error
		items, err = c.paginator.PageItems(ctx, c.page, c.pageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", c.page, err)
		}
	}

	idName := c.identifierName()
	rendered := make([]any, 0, len(items))

	for _, item := range items {
		ev := &CollectionItemEvent{
			Collection:   c,
			Resource:     item,
			Route:        c.ResourceRoute,
			RouteParams:  maps.Clone(c.ResourceRouteParams),
			RouteOptions: maps.Clone(c.ResourceRouteOptions),
		}
		r.hooks.fireCollectionItem(ev)

		if res, ok := ev.Resource.(*Resource); ok {
			doc, err := r.RenderResource(ctx, res)
			if err != nil {
				return nil, err
			}
			rendered = append(rendered, doc)
			continue
		}

		fields, err := r.toFields(ev.Resource)
		if err != nil {
			return nil, err
		}
		if err := r.embed(ctx, fields); err != nil {
			return nil, err
		}

		id, ok := r.identifier(fields, idName)
		if !ok {
			r.logger.Debug("collection item has no identifier; rendering without links",
				slog.String("collection", c.collectionName()),
				slog.String("identifier_name", idName),
			)
			rendered = append(rendered, fields)
			continue
		}

		links := NewLinkCollection()
		if aware, ok := ev.Resource.(LinkCollectionAware); ok {
			for _, existing := range aware.Links().All() {
				for _, link := range existing {
					links.Add(link, false)
				}
			}
		}
		if ev.Route != "" {
			params := make(map[string]any, len(ev.RouteParams)+1)
			maps.Copy(params, ev.RouteParams)
			params[idName] = id

			self := NewLink("self")
			_ = self.SetRoute(ev.Route, params, ev.RouteOptions)
			links.Add(self, false)
		}
		if links.Len() == 0 {
			rendered = append(rendered, fields)
			continue
		}

		hrefs, err := r.FromLinkCollection(links)
		if err != nil {
			return nil, err
		}
		fields[LinksKey] = hrefs
		rendered = append(rendered, fields)
	}

	return rendered, nil
}

// embed moves nested resources and collections out of fields and into
// fields["_embedded"], rendering them on the way. Values with registered
// metadata are converted first.
func (r *Renderer) embed(ctx context.Context, fields map[string]any) error {
	keys := slices.Sorted(maps.Keys(fields))
	for _, key := range keys {
		value := fields[key]

		if md, ok := r.metadata.Lookup(value); ok {
			converted, err := r.fromMetadata(value, md)
			if err != nil {
				return err
			}
			value = converted
		}

		switch v := value.(type) {
		case *Resource:
			doc, err := r.RenderResource(ctx, v)
			if err != nil {
				return err
			}
			setEmbedded(fields, key, doc)
		case *Collection:
			items, err := r.extractCollection(ctx, v)
			if err != nil {
				return err
			}
			setEmbedded(fields, key, items)
		}
	}
	return nil
}

func setEmbedded(fields map[string]any, key string, rendered any) {
	embedded, ok := fields[EmbeddedKey].(map[string]any)
	if ok {
		embedded = maps.Clone(embedded)
	} else {
		embedded = make(map[string]any)
	}
	embedded[key] = rendered
	fields[EmbeddedKey] = embedded
	delete(fields, key)
}

// ===========================================
// Links
// ===========================================

// FromLink renders a single link as {"href": url}.
func (r *Renderer) FromLink(link *Link) (map[string]any, error) {
	href, err := r.Href(link)
	if err != nil {
		return nil, err
	}
	return map[string]any{"href": href}, nil
}

// Href resolves a link to its URL. Route links are resolved through the
// route resolver and made absolute with the server URL.
func (r *Renderer) Href(link *Link) (string, error) {
	if link == nil || !link.IsComplete() {
		rel := ""
		if link != nil {
			rel = link.Relation()
		}
		return "", fmt.Errorf("%w: link %q is incomplete; it must contain a URL or a route", ErrDomain, rel)
	}
	if link.HasURL() {
		return link.URL(), nil
	}

	options := maps.Clone(link.RouteOptions())
	reuse := true
	if v, ok := options[ReuseMatchedParamsOption]; ok {
		reuse = truthy(v)
		delete(options, ReuseMatchedParamsOption)
	}
	return r.resolve(link.Route(), link.RouteParams(), options, reuse)
}

// FromLinkCollection renders every relation: a single link as an object,
// several as an array.
func (r *Renderer) FromLinkCollection(c *LinkCollection) (map[string]any, error) {
	out := make(map[string]any, c.Len())
	for rel, links := range c.All() {
		if len(links) == 1 {
			doc, err := r.FromLink(links[0])
			if err != nil {
				return nil, err
			}
			out[rel] = doc
			continue
		}

		aggregate := make([]any, 0, len(links))
		for _, link := range links {
			doc, err := r.FromLink(link)
			if err != nil {
				return nil, err
			}
			aggregate = append(aggregate, doc)
		}
		out[rel] = aggregate
	}
	return out, nil
}

// CreateLink builds an absolute URL for a route, passing id as the "id"
// param. CreateLink hooks may change the route and params first.
func (r *Renderer) CreateLink(route string, id any, resource any) (string, error) {
	params := map[string]any{}
	if id != nil {
		params[DefaultIdentifierName] = id
	}

	ev := &CreateLinkEvent{Route: route, ID: id, Resource: resource, Params: params}
	r.hooks.fireCreateLink(ev)

	return r.resolve(ev.Route, ev.Params, nil, true)
}

func (r *Renderer) resolve(route string, params, options map[string]any, reuse bool) (string, error) {
	if r.routes == nil {
		return "", fmt.Errorf("%w: no route resolver configured for route %q", ErrRuntime, route)
	}
	path, err := r.routes.Resolve(route, params, options, reuse)
	if err != nil {
		return "", fmt.Errorf("failed to resolve route %q: %w", route, err)
	}
	if r.server == nil || isAbsoluteURL(path) {
		return path, nil
	}
	return r.server.Compose(path), nil
}

// ===========================================
// Resource & Collection Construction
// ===========================================

// CreateResource wraps obj in a Resource with a self link for route.
//
// Objects with metadata are converted through it. Otherwise the
// identifier is resolved from obj; if none is found a 422 problem is
// returned.
func (r *Renderer) CreateResource(obj any, route, identifierName string) (*Resource, *problem.Problem, error) {
	if identifierName == "" {
		identifierName = DefaultIdentifierName
	}

	var res *Resource
	switch v := obj.(type) {
	case *Resource:
		res = v
	default:
		if md, ok := r.metadata.Lookup(obj); ok {
			var err error
			res, err = r.CreateResourceFromMetadata(obj, md)
			if err != nil {
				return nil, nil, err
			}
			break
		}

		id, ok := r.identifier(obj, identifierName)
		if !ok {
			return nil, problem.Unprocessable("No resource identifier present following resource creation."), nil
		}
		res = NewResource(obj, id)
	}

	if route != "" {
		r.InjectSelfLink(res, route, identifierName)
	}
	return res, nil, nil
}

// CreateCollection wraps items in a Collection with a self link for route.
// items may be a *Collection, a Paginator, a slice, an ItemLister, or a
// type registered as a collection in the metadata map.
func (r *Renderer) CreateCollection(items any, route string) (*Collection, error) {
	var c *Collection

	switch v := items.(type) {
	case *Collection:
		c = v
	case []any:
		c = NewCollection(v)
	case []map[string]any:
		c = NewCollection(Items(v))
	default:
		if md, ok := r.metadata.Lookup(items); ok && md.Collection {
			var err error
			c, err = r.CreateCollectionFromMetadata(items, md)
			if err != nil {
				return nil, err
			}
			break
		}
		switch src := items.(type) {
		case Paginator:
			c = NewPaginatedCollection(src)
		case ItemLister:
			c = NewCollection(src.Items())
		default:
			return nil, fmt.Errorf("%w: cannot build a collection from %T", ErrInvalidArgument, items)
		}
	}

	if route != "" {
		r.InjectSelfLink(c, route, "")
	}
	return c, nil
}

// CreateResourceFromMetadata extracts obj through its metadata hydrator
// and builds a Resource with the metadata's links and self link.
func (r *Renderer) CreateResourceFromMetadata(obj any, md *Metadata) (*Resource, error) {
	if md.Collection {
		return nil, fmt.Errorf("%w: type %q is registered as a collection", ErrInvalidArgument, md.Type)
	}

	hydrator := md.Hydrator
	if hydrator == nil {
		hydrator = r.hydrators.For(obj)
	}
	if hydrator == nil {
		return nil, fmt.Errorf("%w: unable to extract %q; no hydrator registered", ErrRuntime, md.Type)
	}

	data, err := hydrator.Extract(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to extract %q: %w", md.Type, err)
	}

	idName := md.IdentifierName
	if idName == "" {
		idName = DefaultIdentifierName
	}
	id, ok := data[idName]
	if !ok || id == nil {
		return nil, fmt.Errorf("%w: unable to determine identifier for object of type %q; no fields matching %q",
			ErrRuntime, md.Type, idName)
	}

	res := NewResource(data, id)
	if err := marshalMetadataLinks(md, res.Links()); err != nil {
		return nil, err
	}
	if !res.Links().Has("self") {
		self, err := selfLinkFromMetadata(md, id, idName)
		if err != nil {
			return nil, err
		}
		res.Links().Add(self, false)
	}
	return res, nil
}

// CreateCollectionFromMetadata builds a Collection from a domain
// collection object (Paginator or ItemLister) using its metadata routes.
func (r *Renderer) CreateCollectionFromMetadata(obj any, md *Metadata) (*Collection, error) {
	var c *Collection
	switch src := obj.(type) {
	case Paginator:
		c = NewPaginatedCollection(src)
	case ItemLister:
		c = NewCollection(src.Items())
	default:
		return nil, fmt.Errorf("%w: %q is registered as a collection but %T cannot be iterated",
			ErrRuntime, md.Type, obj)
	}

	c.CollectionRoute = md.Route
	c.CollectionRouteParams = maps.Clone(md.RouteParams)
	c.CollectionRouteOptions = maps.Clone(md.RouteOptions)
	c.ResourceRoute = md.ResourceRoute
	if md.IdentifierName != "" {
		c.IdentifierName = md.IdentifierName
	}

	if err := marshalMetadataLinks(md, c.Links()); err != nil {
		return nil, err
	}
	if !c.Links().Has("self") && (md.HasURL() || md.HasRoute()) {
		self, err := selfLinkFromMetadata(md, nil, "")
		if err != nil {
			return nil, err
		}
		c.Links().Add(self, false)
	}
	return c, nil
}

// InjectSelfLink sets the "self" link of a resource or collection to
// route, replacing any existing self link. Resources get their identifier
// as the identifierName route param.
func (r *Renderer) InjectSelfLink(target LinkCollectionAware, route, identifierName string) {
	if identifierName == "" {
		identifierName = DefaultIdentifierName
	}
	params := map[string]any{}
	if res, ok := target.(*Resource); ok {
		params[identifierName] = res.ID
	}

	self := NewLink("self")
	_ = self.SetRoute(route, params, nil)
	target.Links().Add(self, true)
}

func (r *Renderer) fromMetadata(obj any, md *Metadata) (any, error) {
	if md.Collection {
		return r.CreateCollectionFromMetadata(obj, md)
	}
	return r.CreateResourceFromMetadata(obj, md)
}

func marshalMetadataLinks(md *Metadata, links *LinkCollection) error {
	for _, spec := range md.Links {
		link, err := LinkFromSpec(spec)
		if err != nil {
			return err
		}
		links.Add(link, false)
	}
	return nil
}

func selfLinkFromMetadata(md *Metadata, id any, idName string) (*Link, error) {
	self := NewLink("self")
	if md.HasURL() {
		if err := self.SetURL(md.URL); err != nil {
			return nil, err
		}
		return self, nil
	}
	if !md.HasRoute() {
		return nil, fmt.Errorf("%w: unable to create a self link for resource of type %q; metadata does not contain a route or a url",
			ErrRuntime, md.Type)
	}

	params := make(map[string]any, len(md.RouteParams)+1)
	maps.Copy(params, md.RouteParams)
	if idName != "" {
		params[idName] = id
	}
	_ = self.SetRoute(md.Route, params, maps.Clone(md.RouteOptions))
	return self, nil
}

// ===========================================
// Helpers
// ===========================================

func (r *Renderer) identifier(obj any, identifierName string) (any, bool) {
	return r.hooks.resolveIdentifier(&IdentifierEvent{Resource: obj, IdentifierName: identifierName})
}

// toFields converts obj into a mutable field map using, in order: the
// metadata hydrator, the per-type registry, the default hydrator, then
// the object's own fields.
func (r *Renderer) toFields(obj any) (map[string]any, error) {
	var hydrator Hydrator
	if md, ok := r.metadata.Lookup(obj); ok && md.Hydrator != nil {
		hydrator = md.Hydrator
	} else {
		hydrator = r.hydrators.For(obj)
	}
	return toFields(obj, hydrator)
}

// withPageQuery returns a copy of options whose "query" carries page.
func withPageQuery(options map[string]any, page int) map[string]any {
	out := maps.Clone(options)
	if out == nil {
		out = make(map[string]any, 1)
	}

	query := map[string]any{}
	switch q := out["query"].(type) {
	case map[string]any:
		maps.Copy(query, q)
	case map[string]string:
		for k, v := range q {
			query[k] = v
		}
	case url.Values:
		for k, v := range q {
			query[k] = v
		}
	}
	query["page"] = page
	out["query"] = query
	return out
}

func isAbsoluteURL(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.IsAbs()
}

func truthy(v any) bool {
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return b != "" && b != "0"
		}
		return parsed
	case int:
		return b != 0
	case int64:
		return b != 0
	case float64:
		return b != 0
	}
	return true
}
