package hal_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/halrest/pkg/hal"
)

func TestHydrators(t *testing.T) {
	t.Parallel()

	t.Run("named hydrators", func(t *testing.T) {
		h := hal.NewHydrators()

		for _, name := range []string{hal.HydratorJSON, hal.HydratorFields, hal.HydratorExtractable, "JSON"} {
			_, err := h.Named(name)
			assert.NoError(t, err, name)
		}
		_, err := h.Named("reflection")
		assert.ErrorIs(t, err, hal.ErrInvalidArgument)
	})

	t.Run("per type then default", func(t *testing.T) {
		h := hal.NewHydrators()
		assert.Nil(t, h.For(widget{}))

		require.NoError(t, h.AddHydratorByName("Widget", hal.HydratorJSON))
		assert.NotNil(t, h.For(widget{}))
		assert.Nil(t, h.For(part{}))

		h.SetDefault(hal.ExtractableHydrator)
		fields, err := h.For(part{Serial: "s"}).Extract(part{Serial: "s"})
		require.NoError(t, err)
		assert.Equal(t, "s", fields["serial"])

		assert.ErrorIs(t, h.AddHydratorByName("part", "missing"), hal.ErrInvalidArgument)
	})

	t.Run("custom registration", func(t *testing.T) {
		h := hal.NewHydrators()
		h.Register("upper", hal.HydratorFunc(func(obj any) (map[string]any, error) {
			return map[string]any{"id": "X"}, nil
		}))
		hydrator, err := h.Named("UPPER")
		require.NoError(t, err)
		fields, err := hydrator.Extract(nil)
		require.NoError(t, err)
		assert.Equal(t, "X", fields["id"])
	})

	t.Run("fields hydrator", func(t *testing.T) {
		type base struct {
			Kind string `json:"kind"`
		}
		type thing struct {
			base
			ID     string `json:"id"`
			Count  int
			Skip   string `json:"-"`
			Empty  string `json:"empty,omitempty"`
			Nested widget `json:"nested"`
			hidden bool
		}

		fields, err := hal.FieldsHydrator.Extract(&thing{
			base:   base{Kind: "t"},
			ID:     "t1",
			Count:  3,
			Skip:   "x",
			Nested: widget{ID: "w"},
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"kind":   "t",
			"id":     "t1",
			"Count":  3,
			"nested": widget{ID: "w"},
		}, fields)

		fields, err = hal.FieldsHydrator.Extract(map[string]int{"a": 1})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"a": 1}, fields)

		fields, err = hal.FieldsHydrator.Extract((*thing)(nil))
		require.NoError(t, err)
		assert.Empty(t, fields)

		_, err = hal.FieldsHydrator.Extract(42)
		assert.ErrorIs(t, err, hal.ErrInvalidArgument)
	})

	t.Run("json hydrator", func(t *testing.T) {
		fields, err := hal.JSONHydrator.Extract(widget{ID: "w", Name: "n"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"id": "w", "name": "n"}, fields)

		fields, err = hal.JSONHydrator.Extract(struct {
			Count int `json:"count"`
		}{Count: 3})
		require.NoError(t, err)
		assert.Equal(t, json.Number("3"), fields["count"])

		_, err = hal.JSONHydrator.Extract(42)
		assert.ErrorIs(t, err, hal.ErrInvalidArgument)
	})

	t.Run("extractable hydrator rejects other types", func(t *testing.T) {
		_, err := hal.ExtractableHydrator.Extract(widget{})
		assert.ErrorIs(t, err, hal.ErrRuntime)
	})
}

func TestRenderer_UsesTypeHydrator(t *testing.T) {
	t.Parallel()

	hydrators := hal.NewHydrators()
	hydrators.AddHydrator("widget", hal.HydratorFunc(func(obj any) (map[string]any, error) {
		w := obj.(widget)
		return map[string]any{"id": w.ID, "label": "custom:" + w.Name}, nil
	}))
	r := newTestRenderer(hal.Config{Hydrators: hydrators})

	c := hal.NewCollection(hal.Items([]widget{{ID: "a", Name: "one"}}))
	c.ResourceRoute = "widgets"

	doc, _, err := r.RenderCollection(context.Background(), c)
	require.NoError(t, err)

	item := doc[hal.EmbeddedKey].(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, "custom:one", item["label"])
	assert.Equal(t, testHost+"/widgets/a", href(t, item, "self"))
}

func TestRenderer_HydratorError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	hydrators := hal.NewHydrators()
	hydrators.AddHydrator("widget", hal.HydratorFunc(func(any) (map[string]any, error) {
		return nil, boom
	}))
	r := newTestRenderer(hal.Config{Hydrators: hydrators})

	c := hal.NewCollection([]any{widget{ID: "a"}})
	_, _, err := r.RenderCollection(context.Background(), c)
	require.ErrorIs(t, err, boom)
}

func TestMetadataMap(t *testing.T) {
	t.Parallel()

	m := hal.NewMetadataMap()
	require.NoError(t, m.Register(hal.Metadata{Type: "Widget", Route: "widgets"}))

	md, ok := m.Get("widget")
	require.True(t, ok)
	assert.Equal(t, hal.DefaultIdentifierName, md.IdentifierName)
	assert.True(t, md.HasRoute())
	assert.False(t, md.HasURL())

	assert.True(t, m.Has(widget{}))
	assert.False(t, m.Has(part{}))
	assert.False(t, m.Has(map[string]any{}))
	assert.Equal(t, 1, m.Len())

	assert.ErrorIs(t, m.Register(hal.Metadata{}), hal.ErrInvalidArgument)
	assert.ErrorIs(t, m.Register(hal.Metadata{
		Type:  "part",
		Links: []map[string]any{{"rel": "broken"}},
	}), hal.ErrInvalidArgument)

	var nilMap *hal.MetadataMap
	_, ok = nilMap.Get("widget")
	assert.False(t, ok)
}

func TestHooks_IdentifierOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	hooks := hal.NewHooks()
	hooks.OnIdentifier(5, func(*hal.IdentifierEvent) (any, bool) {
		calls = append(calls, "five-a")
		return nil, false
	})
	hooks.OnIdentifier(5, func(*hal.IdentifierEvent) (any, bool) {
		calls = append(calls, "five-b")
		return false, true
	})
	hooks.OnIdentifier(10, func(*hal.IdentifierEvent) (any, bool) {
		calls = append(calls, "ten")
		return "", true
	})

	r := newTestRenderer(hal.Config{Hooks: hooks})
	res, prob, err := r.CreateResource(map[string]any{"id": "from-map"}, "resource", "")
	require.NoError(t, err)
	require.Nil(t, prob)

	// empty answers fall through to the next hook
	assert.Equal(t, []string{"ten", "five-a", "five-b"}, calls)
	assert.Equal(t, "from-map", res.ID)
}

func TestDefaultIdentifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		obj    any
		idName string
		want   any
		found  bool
	}{
		{name: "map key", obj: map[string]any{"id": 3}, want: 3, found: true},
		{name: "custom map key", obj: map[string]any{"uuid": "u"}, idName: "uuid", want: "u", found: true},
		{name: "missing map key", obj: map[string]any{"name": "x"}, found: false},
		{name: "property reader", obj: part{Serial: "s"}, idName: "serial", want: "s", found: true},
		{name: "unknown property", obj: part{Serial: "s"}, idName: "id", found: false},
		{name: "plain value", obj: 42, found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found := hal.DefaultIdentifier(&hal.IdentifierEvent{Resource: tt.obj, IdentifierName: tt.idName})
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, id)
			}
		})
	}
}

func TestSlicePaginator(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := hal.SlicePaginator(numberedItems(7))

	count, err := p.PageCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	items, err := p.PageItems(ctx, 3, 3)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = p.PageItems(ctx, 4, 3)
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = p.PageItems(ctx, 0, 3)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCollection_Defaults(t *testing.T) {
	t.Parallel()

	c := hal.NewCollection(nil)
	assert.Equal(t, 1, c.Page())
	assert.Equal(t, hal.DefaultPageSize, c.PageSize())
	assert.Equal(t, hal.DefaultCollectionName, c.CollectionName)
	assert.Equal(t, hal.DefaultIdentifierName, c.IdentifierName)
	assert.ErrorIs(t, c.SetPageSize(0), hal.ErrInvalidArgument)
}
