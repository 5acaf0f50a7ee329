package hal

import "slices"

// ===========================================
// Extension Points
// ===========================================
// Each extension point is an ordered list of typed callbacks.
// Higher priority runs first; equal priorities run in registration order.
//
// Extension point            Callback            Contract
// -------------------------  ------------------  ------------------------------
// identifier resolution      IdentifierHook      first definitive answer wins
// link creation              CreateLinkHook      mutate route/params in place
// resource render            RenderResourceHook  observe or amend the resource
// collection render          RenderCollectionHook observe or amend the collection
// collection item            CollectionItemHook  mutate the per-item event
// ===========================================

// DefaultIdentifierPriority is the priority of the built-in identifier
// resolver. Hooks registered above it take precedence.
const DefaultIdentifierPriority = 1

// IdentifierEvent is passed to identifier hooks.
type IdentifierEvent struct {
	Resource       any
	IdentifierName string
}

// IdentifierHook returns (id, true) to answer definitively, or
// (nil, false) for no opinion.
type IdentifierHook func(ev *IdentifierEvent) (any, bool)

// CreateLinkEvent is passed to createLink hooks. Route and Params may be
// changed; the result is used to build the URL.
type CreateLinkEvent struct {
	Route    string
	ID       any
	Resource any
	Params   map[string]any
}

// CreateLinkHook observes or mutates a CreateLinkEvent.
type CreateLinkHook func(ev *CreateLinkEvent)

// RenderResourceHook runs before a resource is rendered.
type RenderResourceHook func(r *Resource)

// RenderCollectionHook runs before a collection is rendered.
type RenderCollectionHook func(c *Collection)

// CollectionItemEvent is passed to collection item hooks for every item.
// Replacing Resource or changing the route fields affects how the item
// renders.
type CollectionItemEvent struct {
	Collection   *Collection
	Resource     any
	Route        string
	RouteParams  map[string]any
	RouteOptions map[string]any
}

// CollectionItemHook observes or mutates a CollectionItemEvent.
type CollectionItemHook func(ev *CollectionItemEvent)

// Hooks holds the registered extension callbacks. Register at startup;
// renderers only read it.
type Hooks struct {
	identifier       hookList[IdentifierHook]
	createLink       hookList[CreateLinkHook]
	renderResource   hookList[RenderResourceHook]
	renderCollection hookList[RenderCollectionHook]
	collectionItem   hookList[CollectionItemHook]
}

// NewHooks returns a hook set with the default identifier resolver
// registered at DefaultIdentifierPriority.
func NewHooks() *Hooks {
	h := &Hooks{}
	h.OnIdentifier(DefaultIdentifierPriority, DefaultIdentifier)
	return h
}

// OnIdentifier registers an identifier resolver.
func (h *Hooks) OnIdentifier(priority int, fn IdentifierHook) {
	h.identifier.add(priority, fn)
}

// OnCreateLink registers a createLink hook.
func (h *Hooks) OnCreateLink(priority int, fn CreateLinkHook) {
	h.createLink.add(priority, fn)
}

// OnRenderResource registers a renderResource hook.
func (h *Hooks) OnRenderResource(priority int, fn RenderResourceHook) {
	h.renderResource.add(priority, fn)
}

// OnRenderCollection registers a renderCollection hook.
func (h *Hooks) OnRenderCollection(priority int, fn RenderCollectionHook) {
	h.renderCollection.add(priority, fn)
}

// OnCollectionItem registers a per-item hook for collection rendering.
func (h *Hooks) OnCollectionItem(priority int, fn CollectionItemHook) {
	h.collectionItem.add(priority, fn)
}

// resolveIdentifier runs identifier hooks until one answers with a usable id.
func (h *Hooks) resolveIdentifier(ev *IdentifierEvent) (any, bool) {
	for _, fn := range h.identifier.ordered() {
		if id, ok := fn(ev); ok && !isEmptyID(id) {
			return id, true
		}
	}
	return nil, false
}

func (h *Hooks) fireCreateLink(ev *CreateLinkEvent) {
	for _, fn := range h.createLink.ordered() {
		fn(ev)
	}
}

func (h *Hooks) fireRenderResource(r *Resource) {
	for _, fn := range h.renderResource.ordered() {
		fn(r)
	}
}

func (h *Hooks) fireRenderCollection(c *Collection) {
	for _, fn := range h.renderCollection.ordered() {
		fn(c)
	}
}

func (h *Hooks) fireCollectionItem(ev *CollectionItemEvent) {
	for _, fn := range h.collectionItem.ordered() {
		fn(ev)
	}
}

// ===========================================
// Default Identifier Resolution
// ===========================================

// PropertyReader is implemented by objects exposing named properties.
type PropertyReader interface {
	Property(name string) (any, bool)
}

// Identifiable is the conventional identifier accessor.
type Identifiable interface {
	Identifier() any
}

// DefaultIdentifier resolves an identifier from, in order: a map key,
// a PropertyReader property, the Identifiable accessor.
func DefaultIdentifier(ev *IdentifierEvent) (any, bool) {
	name := ev.IdentifierName
	if name == "" {
		name = DefaultIdentifierName
	}

	if m, ok := ev.Resource.(map[string]any); ok {
		id, found := m[name]
		return id, found
	}
	if p, ok := ev.Resource.(PropertyReader); ok {
		if id, found := p.Property(name); found {
			return id, true
		}
	}
	if i, ok := ev.Resource.(Identifiable); ok {
		return i.Identifier(), true
	}
	return nil, false
}

// isEmptyID treats nil, "" and false as "no identifier".
func isEmptyID(id any) bool {
	switch v := id.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case bool:
		return !v
	}
	return false
}

// ===========================================
// Priority List
// ===========================================

type hookEntry[F any] struct {
	priority int
	fn       F
}

type hookList[F any] struct {
	entries []hookEntry[F]
}

func (l *hookList[F]) add(priority int, fn F) {
	l.entries = append(l.entries, hookEntry[F]{priority: priority, fn: fn})
	slices.SortStableFunc(l.entries, func(a, b hookEntry[F]) int {
		return b.priority - a.priority
	})
}

func (l *hookList[F]) ordered() []F {
	fns := make([]F, len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	return fns
}
