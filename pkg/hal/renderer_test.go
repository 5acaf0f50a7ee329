package hal_test

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/halrest/pkg/hal"
)

func TestRenderResource_SelfLink(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	res := hal.NewResource(map[string]any{"foo": "bar", "id": "identifier"}, "identifier")
	r.InjectSelfLink(res, "resource", "id")

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"foo": "bar",
		"id":  "identifier",
		"_links": map[string]any{
			"self": map[string]any{"href": "http://localhost.localdomain/resource/identifier"},
		},
	}, doc)
}

func TestRenderResource_MultipleLinksPerRelation(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	res := hal.NewResource(map[string]any{"id": 1}, 1)
	for _, u := range []string{"http://example.com/a", "http://example.com/b"} {
		link := hal.NewLink("alternate")
		require.NoError(t, link.SetURL(u))
		res.Links().Add(link, false)
	}

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)

	links := doc[hal.LinksKey].(map[string]any)
	assert.Equal(t, []any{
		map[string]any{"href": "http://example.com/a"},
		map[string]any{"href": "http://example.com/b"},
	}, links["alternate"])
}

func TestRenderResource_IncompleteLink(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	res := hal.NewResource(map[string]any{"id": 1}, 1)
	res.Links().Add(hal.NewLink("broken"), false)

	_, err := r.RenderResource(context.Background(), res)
	require.ErrorIs(t, err, hal.ErrDomain)
}

func TestRenderResource_EmbedsNestedResource(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	child := hal.NewResource(map[string]any{"id": "c1", "name": "child"}, "c1")
	r.InjectSelfLink(child, "resource", "")

	parent := hal.NewResource(map[string]any{"id": "p1", "child": child}, "p1")
	r.InjectSelfLink(parent, "resource", "")

	doc, err := r.RenderResource(context.Background(), parent)
	require.NoError(t, err)

	assert.NotContains(t, doc, "child")
	embedded, ok := doc[hal.EmbeddedKey].(map[string]any)
	require.True(t, ok)
	childDoc, ok := embedded["child"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "child", childDoc["name"])
	assert.Equal(t, testHost+"/resource/c1", href(t, childDoc, "self"))
	assert.Equal(t, testHost+"/resource/p1", href(t, doc, "self"))
}

func TestRenderResource_EmbedsThroughMetadata(t *testing.T) {
	t.Parallel()

	md := hal.NewMetadataMap()
	require.NoError(t, md.Register(hal.Metadata{
		Type:     "widget",
		Hydrator: hal.JSONHydrator,
		Route:    "widgets",
	}))
	r := newTestRenderer(hal.Config{Metadata: md})

	res := hal.NewResource(map[string]any{
		"id":     "p1",
		"widget": widget{ID: "w1", Name: "sprocket"},
	}, "p1")

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)

	assert.NotContains(t, doc, "widget")
	embedded := doc[hal.EmbeddedKey].(map[string]any)
	widgetDoc := embedded["widget"].(map[string]any)
	assert.Equal(t, "sprocket", widgetDoc["name"])
	assert.Equal(t, testHost+"/widgets/w1", href(t, widgetDoc, "self"))
}

// order is a plain struct with no hydrator; its fields are read directly.
type order struct {
	ID       string        `json:"id"`
	Customer *hal.Resource `json:"customer"`
	Item     widget        `json:"item"`
	Lines    *hal.Collection
	Note     string `json:"note,omitempty"`
	internal string
}

func TestRenderResource_EmbedsFromStructFields(t *testing.T) {
	t.Parallel()

	md := hal.NewMetadataMap()
	require.NoError(t, md.Register(hal.Metadata{
		Type:     "widget",
		Hydrator: hal.JSONHydrator,
		Route:    "widgets",
	}))
	r := newTestRenderer(hal.Config{Metadata: md})

	customer := hal.NewResource(map[string]any{"id": "c1"}, "c1")
	r.InjectSelfLink(customer, "resource", "")

	lines := hal.NewCollection(numberedItems(2))
	lines.ResourceRoute = "parts"

	res := hal.NewResource(order{
		ID:       "o1",
		Customer: customer,
		Item:     widget{ID: "w1", Name: "sprocket"},
		Lines:    lines,
		internal: "hidden",
	}, "o1")
	r.InjectSelfLink(res, "resource", "")

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)

	assert.Equal(t, "o1", doc["id"])
	assert.Equal(t, testHost+"/resource/o1", href(t, doc, "self"))
	for _, key := range []string{"customer", "item", "Lines", "note", "internal"} {
		assert.NotContains(t, doc, key)
	}

	embedded, ok := doc[hal.EmbeddedKey].(map[string]any)
	require.True(t, ok)

	customerDoc := embedded["customer"].(map[string]any)
	assert.Equal(t, testHost+"/resource/c1", href(t, customerDoc, "self"))

	itemDoc := embedded["item"].(map[string]any)
	assert.Equal(t, "sprocket", itemDoc["name"])
	assert.Equal(t, testHost+"/widgets/w1", href(t, itemDoc, "self"))

	lineDocs := embedded["Lines"].([]any)
	require.Len(t, lineDocs, 2)
	assert.Equal(t, testHost+"/parts/1", href(t, lineDocs[0].(map[string]any), "self"))
}

func TestRenderResource_NilData(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	res := hal.NewResource(nil, "x1")
	r.InjectSelfLink(res, "resource", "")

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"_links": map[string]any{
			"self": map[string]any{"href": testHost + "/resource/x1"},
		},
	}, doc)
}

func TestRenderResource_EmbedsCollection(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	parts := hal.NewCollection(numberedItems(2))
	parts.ResourceRoute = "parts"

	res := hal.NewResource(map[string]any{"id": 7, "parts": parts}, 7)

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)

	embedded := doc[hal.EmbeddedKey].(map[string]any)
	items, ok := embedded["parts"].([]any)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, testHost+"/parts/2", href(t, items[1].(map[string]any), "self"))
}

func TestRenderResource_HookRuns(t *testing.T) {
	t.Parallel()

	hooks := hal.NewHooks()
	hooks.OnRenderResource(0, func(res *hal.Resource) {
		link := hal.NewLink("describedby")
		_ = link.SetURL("http://example.com/docs")
		res.Links().Add(link, false)
	})
	r := newTestRenderer(hal.Config{Hooks: hooks})

	doc, err := r.RenderResource(context.Background(), hal.NewResource(map[string]any{"id": 1}, 1))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/docs", href(t, doc, "describedby"))
}

func TestRenderCollection_Pagination(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	c := hal.NewPaginatedCollection(hal.SlicePaginator(numberedItems(100)))
	c.CollectionRoute = "resource"
	c.ResourceRoute = "resource"
	c.SetPage(3)
	require.NoError(t, c.SetPageSize(5))

	doc, prob, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)
	require.Nil(t, prob)

	assert.Equal(t, testHost+"/resource?page=3", href(t, doc, "self"))
	assert.Equal(t, testHost+"/resource", href(t, doc, "first"))
	assert.Equal(t, testHost+"/resource?page=20", href(t, doc, "last"))
	assert.Equal(t, testHost+"/resource?page=2", href(t, doc, "prev"))
	assert.Equal(t, testHost+"/resource?page=4", href(t, doc, "next"))

	embedded := doc[hal.EmbeddedKey].(map[string]any)
	items := embedded["items"].([]any)
	require.Len(t, items, 5)
	for i, item := range items {
		id := 11 + i
		fields := item.(map[string]any)
		assert.Equal(t, id, fields["id"])
		assert.Equal(t, testHost+"/resource/"+strconv.Itoa(id), href(t, fields, "self"))
	}
}

func TestRenderCollection_PageBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		page     int
		wantProb bool
		wantPrev bool
		wantNext bool
	}{
		{name: "page zero", page: 0, wantProb: true},
		{name: "negative page", page: -1, wantProb: true},
		{name: "past last page", page: 21, wantProb: true},
		{name: "far past last page", page: 1000, wantProb: true},
		{name: "first page", page: 1, wantNext: true},
		{name: "middle page", page: 2, wantPrev: true, wantNext: true},
		{name: "last page", page: 20, wantPrev: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newTestRenderer(hal.Config{})

			c := hal.NewPaginatedCollection(hal.SlicePaginator(numberedItems(100)))
			c.CollectionRoute = "resource"
			c.SetPage(tt.page)
			require.NoError(t, c.SetPageSize(5))

			doc, prob, err := r.RenderCollection(context.Background(), c)
			require.NoError(t, err)

			if tt.wantProb {
				require.NotNil(t, prob)
				assert.Nil(t, doc)
				assert.Equal(t, http.StatusConflict, prob.Status())
				assert.Equal(t, "Invalid page provided", prob.Detail())
				return
			}

			require.Nil(t, prob)
			for _, rel := range []string{"self", "first", "last"} {
				assert.Truef(t, hasLink(doc, rel), "missing %q", rel)
			}
			assert.Equal(t, tt.wantPrev, hasLink(doc, "prev"))
			assert.Equal(t, tt.wantNext, hasLink(doc, "next"))
		})
	}
}

func TestRenderCollection_EmptySource(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	c := hal.NewPaginatedCollection(hal.SlicePaginator(nil))
	c.CollectionRoute = "resource"
	c.SetPage(5)

	doc, prob, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)
	require.Nil(t, prob)

	assert.False(t, hasLink(doc, "first"))
	assert.Equal(t, []any{}, doc[hal.EmbeddedKey].(map[string]any)["items"])
}

func TestRenderCollection_QueryCarriedOnPaginationLinks(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	c := hal.NewPaginatedCollection(hal.SlicePaginator(numberedItems(10)))
	c.CollectionRoute = "resource"
	c.CollectionRouteOptions = map[string]any{"query": map[string]any{"query": "foo"}}
	c.SetPage(2)
	require.NoError(t, c.SetPageSize(3))

	doc, prob, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)
	require.Nil(t, prob)

	for _, rel := range []string{"self", "first", "last", "prev", "next"} {
		h := href(t, doc, rel)
		assert.Containsf(t, h, "query=foo", "%s: %s", rel, h)
		if rel == "first" {
			assert.NotContains(t, h, "page=")
			continue
		}
		assert.Containsf(t, h, "page=", "%s: %s", rel, h)
	}

	// the configured options are not mutated by link injection
	assert.Equal(t, map[string]any{"query": "foo"}, c.CollectionRouteOptions["query"])
}

func TestRenderCollection_AttributesAndName(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	c := hal.NewCollection(numberedItems(3))
	c.CollectionName = "things"
	c.Attributes = map[string]any{"total": 3}
	r.InjectSelfLink(c, "resource", "")

	doc, prob, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)
	require.Nil(t, prob)

	assert.Equal(t, 3, doc["total"])
	assert.Equal(t, testHost+"/resource", href(t, doc, "self"))
	items := doc[hal.EmbeddedKey].(map[string]any)["things"].([]any)
	assert.Len(t, items, 3)
	// no resource route: items carry no links
	assert.NotContains(t, items[0].(map[string]any), hal.LinksKey)
}

func TestRenderCollection_ItemWithoutIdentifier(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	c := hal.NewCollection([]any{map[string]any{"name": "anonymous"}})
	c.ResourceRoute = "resource"

	doc, prob, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)
	require.Nil(t, prob)

	items := doc[hal.EmbeddedKey].(map[string]any)["items"].([]any)
	assert.Equal(t, map[string]any{"name": "anonymous"}, items[0])
}

func TestRenderCollection_ItemHookChangesRoute(t *testing.T) {
	t.Parallel()

	hooks := hal.NewHooks()
	hooks.OnCollectionItem(0, func(ev *hal.CollectionItemEvent) {
		if ev.Resource.(map[string]any)["id"] == 2 {
			ev.Route = "widgets"
		}
	})
	r := newTestRenderer(hal.Config{Hooks: hooks})

	c := hal.NewCollection(numberedItems(2))
	c.ResourceRoute = "resource"

	doc, _, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)

	items := doc[hal.EmbeddedKey].(map[string]any)["items"].([]any)
	assert.Equal(t, testHost+"/resource/1", href(t, items[0].(map[string]any), "self"))
	assert.Equal(t, testHost+"/widgets/2", href(t, items[1].(map[string]any), "self"))
}

func TestRenderCollection_ResourceItems(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	res := hal.NewResource(map[string]any{"id": "x"}, "x")
	r.InjectSelfLink(res, "widgets", "")

	c := hal.NewCollection([]any{res})
	c.ResourceRoute = "resource"

	doc, _, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)

	items := doc[hal.EmbeddedKey].(map[string]any)["items"].([]any)
	assert.Equal(t, testHost+"/widgets/x", href(t, items[0].(map[string]any), "self"))
}

func TestCreateResource(t *testing.T) {
	t.Parallel()

	t.Run("map with identifier", func(t *testing.T) {
		t.Parallel()
		r := newTestRenderer(hal.Config{})

		res, prob, err := r.CreateResource(map[string]any{"id": 42}, "resource", "")
		require.NoError(t, err)
		require.Nil(t, prob)
		assert.Equal(t, 42, res.ID)

		link, ok := res.Links().First("self")
		require.True(t, ok)
		assert.Equal(t, "resource", link.Route())
		assert.Equal(t, 42, link.RouteParams()["id"])
	})

	t.Run("property reader with custom identifier name", func(t *testing.T) {
		t.Parallel()
		r := newTestRenderer(hal.Config{})

		res, prob, err := r.CreateResource(part{Serial: "sn-1"}, "parts", "serial")
		require.NoError(t, err)
		require.Nil(t, prob)
		assert.Equal(t, "sn-1", res.ID)

		link, _ := res.Links().First("self")
		assert.Equal(t, "sn-1", link.RouteParams()["serial"])
	})

	t.Run("missing identifier", func(t *testing.T) {
		t.Parallel()
		r := newTestRenderer(hal.Config{})

		res, prob, err := r.CreateResource(map[string]any{"name": "x"}, "resource", "")
		require.NoError(t, err)
		assert.Nil(t, res)
		require.NotNil(t, prob)
		assert.Equal(t, http.StatusUnprocessableEntity, prob.Status())
		assert.Equal(t, "No resource identifier present following resource creation.", prob.Detail())
	})

	t.Run("empty identifier", func(t *testing.T) {
		t.Parallel()
		r := newTestRenderer(hal.Config{})

		_, prob, err := r.CreateResource(map[string]any{"id": ""}, "resource", "")
		require.NoError(t, err)
		require.NotNil(t, prob)
	})

	t.Run("identifier hook overrides default", func(t *testing.T) {
		t.Parallel()

		hooks := hal.NewHooks()
		hooks.OnIdentifier(hal.DefaultIdentifierPriority+1, func(ev *hal.IdentifierEvent) (any, bool) {
			return "override", true
		})
		r := newTestRenderer(hal.Config{Hooks: hooks})

		res, prob, err := r.CreateResource(map[string]any{"id": 1}, "resource", "")
		require.NoError(t, err)
		require.Nil(t, prob)
		assert.Equal(t, "override", res.ID)
	})

	t.Run("low priority hook is a fallback", func(t *testing.T) {
		t.Parallel()

		hooks := hal.NewHooks()
		hooks.OnIdentifier(0, func(ev *hal.IdentifierEvent) (any, bool) {
			return "fallback", true
		})
		r := newTestRenderer(hal.Config{Hooks: hooks})

		res, _, err := r.CreateResource(map[string]any{"id": 1}, "resource", "")
		require.NoError(t, err)
		assert.Equal(t, 1, res.ID)

		res, _, err = r.CreateResource(map[string]any{"name": "x"}, "resource", "")
		require.NoError(t, err)
		assert.Equal(t, "fallback", res.ID)
	})

	t.Run("typed object through metadata", func(t *testing.T) {
		t.Parallel()

		md := hal.NewMetadataMap()
		require.NoError(t, md.Register(hal.Metadata{Type: "widget", Hydrator: hal.JSONHydrator, Route: "widgets"}))
		r := newTestRenderer(hal.Config{Metadata: md})

		res, prob, err := r.CreateResource(widget{ID: "w9"}, "resource", "")
		require.NoError(t, err)
		require.Nil(t, prob)

		doc, err := r.RenderResource(context.Background(), res)
		require.NoError(t, err)
		// the explicit route wins over the metadata route
		assert.Equal(t, testHost+"/resource/w9", href(t, doc, "self"))
	})
}

func TestCreateCollection(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	t.Run("slice", func(t *testing.T) {
		c, err := r.CreateCollection(numberedItems(2), "resource")
		require.NoError(t, err)
		assert.Len(t, c.Items(), 2)
		assert.False(t, c.IsPaginated())
		assert.True(t, c.Links().Has("self"))
	})

	t.Run("paginator", func(t *testing.T) {
		c, err := r.CreateCollection(hal.SlicePaginator(numberedItems(2)), "")
		require.NoError(t, err)
		assert.True(t, c.IsPaginated())
		assert.False(t, c.Links().Has("self"))
	})

	t.Run("scalar", func(t *testing.T) {
		_, err := r.CreateCollection(42, "resource")
		require.ErrorIs(t, err, hal.ErrInvalidArgument)
	})
}

func TestCreateResourceFromMetadata_Errors(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	t.Run("missing identifier field", func(t *testing.T) {
		md := &hal.Metadata{Type: "widget", Hydrator: hal.JSONHydrator, Route: "widgets", IdentifierName: "uuid"}
		_, err := r.CreateResourceFromMetadata(widget{ID: "w1"}, md)
		require.ErrorIs(t, err, hal.ErrRuntime)
	})

	t.Run("no hydrator", func(t *testing.T) {
		md := &hal.Metadata{Type: "widget", Route: "widgets"}
		_, err := r.CreateResourceFromMetadata(widget{ID: "w1"}, md)
		require.ErrorIs(t, err, hal.ErrRuntime)
	})

	t.Run("no route or url", func(t *testing.T) {
		md := &hal.Metadata{Type: "widget", Hydrator: hal.JSONHydrator}
		_, err := r.CreateResourceFromMetadata(widget{ID: "w1"}, md)
		require.ErrorIs(t, err, hal.ErrRuntime)
	})

	t.Run("registered as collection", func(t *testing.T) {
		md := &hal.Metadata{Type: "widget", Collection: true}
		_, err := r.CreateResourceFromMetadata(widget{ID: "w1"}, md)
		require.ErrorIs(t, err, hal.ErrInvalidArgument)
	})
}

func TestCreateResourceFromMetadata_Links(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	md := &hal.Metadata{
		Type:     "part",
		Hydrator: hal.ExtractableHydrator,
		URL:      "http://example.com/parts/fixed",
		Links: []map[string]any{
			{"rel": "catalog", "url": "http://example.com/catalog"},
			{"relation": "siblings", "route": "parts"},
		},
		IdentifierName: "serial",
	}

	res, err := r.CreateResourceFromMetadata(part{Serial: "s1", Label: "bolt"}, md)
	require.NoError(t, err)
	assert.Equal(t, "s1", res.ID)

	doc, err := r.RenderResource(context.Background(), res)
	require.NoError(t, err)
	assert.Equal(t, "bolt", doc["label"])
	assert.Equal(t, "http://example.com/parts/fixed", href(t, doc, "self"))
	assert.Equal(t, "http://example.com/catalog", href(t, doc, "catalog"))
	assert.Equal(t, testHost+"/parts", href(t, doc, "siblings"))
}

func TestCreateCollectionFromMetadata(t *testing.T) {
	t.Parallel()
	r := newTestRenderer(hal.Config{})

	md := &hal.Metadata{
		Type:          "widgets",
		Collection:    true,
		Route:         "widgets",
		ResourceRoute: "widgets",
	}

	c, err := r.CreateCollectionFromMetadata(hal.SlicePaginator(numberedItems(3)), md)
	require.NoError(t, err)
	assert.True(t, c.IsPaginated())
	assert.Equal(t, "widgets", c.CollectionRoute)

	doc, prob, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)
	require.Nil(t, prob)
	assert.Equal(t, testHost+"/widgets?page=1", href(t, doc, "self"))

	_, err = r.CreateCollectionFromMetadata(42, md)
	require.ErrorIs(t, err, hal.ErrRuntime)
}

func TestCreateLink(t *testing.T) {
	t.Parallel()

	hooks := hal.NewHooks()
	hooks.OnCreateLink(0, func(ev *hal.CreateLinkEvent) {
		if ev.Route == "legacy" {
			ev.Route = "widgets"
		}
	})
	r := newTestRenderer(hal.Config{Hooks: hooks})

	u, err := r.CreateLink("resource", "abc", nil)
	require.NoError(t, err)
	assert.Equal(t, testHost+"/resource/abc", u)

	u, err = r.CreateLink("legacy", 5, nil)
	require.NoError(t, err)
	assert.Equal(t, testHost+"/widgets/5", u)

	_, err = r.CreateLink("missing", 1, nil)
	require.Error(t, err)
}

func TestHref_ReuseMatchedParamsOption(t *testing.T) {
	t.Parallel()

	routes := newStubRoutes(map[string]string{"resource": "/resource"})
	r := newTestRenderer(hal.Config{Routes: routes})

	link := hal.NewLink("self")
	require.NoError(t, link.SetRoute("resource", nil, map[string]any{hal.ReuseMatchedParamsOption: false}))

	u, err := r.Href(link)
	require.NoError(t, err)
	assert.Equal(t, testHost+"/resource", u)
	require.NotNil(t, routes.lastReuse)
	assert.False(t, *routes.lastReuse)

	// the option is consumed, not removed from the link
	assert.Contains(t, link.RouteOptions(), hal.ReuseMatchedParamsOption)

	require.NoError(t, link.SetRoute("resource", nil, map[string]any{}))
	_, err = r.Href(link)
	require.NoError(t, err)
	assert.True(t, *routes.lastReuse)
}

func TestHref_NoRouteResolver(t *testing.T) {
	t.Parallel()
	r := hal.NewRenderer(hal.Config{})

	link := hal.NewLink("self")
	require.NoError(t, link.SetRoute("resource", nil, nil))

	_, err := r.Href(link)
	require.ErrorIs(t, err, hal.ErrRuntime)
}
