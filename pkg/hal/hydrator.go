package hal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"
)

// Hydrator extracts a field map from a domain object.
type Hydrator interface {
	Extract(obj any) (map[string]any, error)
}

// HydratorFunc adapts a function to the Hydrator interface.
type HydratorFunc func(obj any) (map[string]any, error)

// Extract implements Hydrator.
func (f HydratorFunc) Extract(obj any) (map[string]any, error) { return f(obj) }

// Typed is implemented by domain objects that participate in the metadata
// map and the per-type hydrator registry. The tag is matched
// case-insensitively.
type Typed interface {
	ResourceType() string
}

// Extractable is implemented by domain objects that know how to export
// their own fields.
type Extractable interface {
	Extract() map[string]any
}

// Built-in hydrator names, usable from metadata configuration.
const (
	HydratorExtractable = "extractable"
	HydratorFields      = "fields"
	HydratorJSON        = "json"
)

// ExtractableHydrator extracts objects implementing Extractable.
var ExtractableHydrator = HydratorFunc(func(obj any) (map[string]any, error) {
	e, ok := obj.(Extractable)
	if !ok {
		return nil, fmt.Errorf("%w: %T does not implement Extractable", ErrRuntime, obj)
	}
	return e.Extract(), nil
})

// FieldsHydrator extracts the exported top-level fields of a struct, or the
// entries of a string-keyed map. Keys follow json struct tags ("-" skips a
// field, omitempty drops zero values) and embedded structs are flattened.
// Values are kept as they are, so nested resources, collections and typed
// objects can still be embedded. A nil object has no fields.
var FieldsHydrator = HydratorFunc(func(obj any) (map[string]any, error) {
	fields := make(map[string]any)
	v := reflect.ValueOf(obj)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return fields, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Invalid:
		return fields, nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			break
		}
		iter := v.MapRange()
		for iter.Next() {
			fields[iter.Key().String()] = iter.Value().Interface()
		}
		return fields, nil
	case reflect.Struct:
		structFields(v, fields)
		return fields, nil
	}
	return nil, fmt.Errorf("%w: %T has no fields to extract", ErrInvalidArgument, obj)
})

func structFields(v reflect.Value, fields map[string]any) {
	t := v.Type()
	for i := range t.NumField() {
		sf := t.Field(i)
		name, opts, _ := strings.Cut(sf.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}
		fv := v.Field(i)

		if sf.Anonymous && name == "" {
			inner := fv
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				structFields(inner, fields)
				continue
			}
		}
		if !sf.IsExported() {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		fields[name] = fv.Interface()
	}
}

// JSONHydrator extracts the public fields of an object through its JSON
// encoding, honouring json struct tags. Numbers stay json.Number so they
// re-encode unchanged. Nested values come back as plain maps, so nothing
// below the top level is embedded; use it only when that is wanted.
var JSONHydrator = HydratorFunc(func(obj any) (map[string]any, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", obj, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %T does not encode to a JSON object", ErrInvalidArgument, obj)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: cannot extract fields from nil %T", ErrInvalidArgument, obj)
	}
	return fields, nil
})

// ===========================================
// Hydrator Registry
// ===========================================

// Hydrators holds named hydrators and the per-type hydrator map.
// Populate it at startup; lookups are safe for concurrent use afterwards.
type Hydrators struct {
	named    map[string]Hydrator
	byType   map[string]Hydrator
	fallback Hydrator
}

// NewHydrators returns a registry with the built-in hydrators registered
// by name and no default.
func NewHydrators() *Hydrators {
	return &Hydrators{
		named: map[string]Hydrator{
			HydratorExtractable: ExtractableHydrator,
			HydratorFields:      FieldsHydrator,
			HydratorJSON:        JSONHydrator,
		},
		byType: make(map[string]Hydrator),
	}
}

// Register makes a hydrator available by name.
func (h *Hydrators) Register(name string, hydrator Hydrator) {
	h.named[strings.ToLower(name)] = hydrator
}

// Named looks up a registered hydrator.
func (h *Hydrators) Named(name string) (Hydrator, error) {
	hydrator, ok := h.named[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: invalid hydrator name %q", ErrInvalidArgument, name)
	}
	return hydrator, nil
}

// AddHydrator maps a type tag to a hydrator.
func (h *Hydrators) AddHydrator(typeTag string, hydrator Hydrator) {
	h.byType[strings.ToLower(typeTag)] = hydrator
}

// AddHydratorByName maps a type tag to a registered hydrator.
func (h *Hydrators) AddHydratorByName(typeTag, name string) error {
	hydrator, err := h.Named(name)
	if err != nil {
		return err
	}
	h.AddHydrator(typeTag, hydrator)
	return nil
}

// SetDefault sets the hydrator used when no per-type hydrator matches.
func (h *Hydrators) SetDefault(hydrator Hydrator) {
	h.fallback = hydrator
}

// For returns the hydrator for obj: the per-type entry for its tag, then
// the default. Returns nil when neither applies.
func (h *Hydrators) For(obj any) Hydrator {
	if h == nil {
		return nil
	}
	if t, ok := obj.(Typed); ok {
		if hydrator, ok := h.byType[strings.ToLower(t.ResourceType())]; ok {
			return hydrator
		}
	}
	return h.fallback
}

// toFields converts obj into a fresh field map that the renderer is free
// to mutate. nil has no fields; maps are cloned; Extractable objects
// export themselves; anything else goes through FieldsHydrator.
func toFields(obj any, hydrator Hydrator) (map[string]any, error) {
	if obj == nil {
		return map[string]any{}, nil
	}
	if m, ok := obj.(map[string]any); ok {
		return maps.Clone(m), nil
	}
	if hydrator != nil {
		fields, err := hydrator.Extract(obj)
		if err != nil {
			return nil, err
		}
		return maps.Clone(fields), nil
	}
	if e, ok := obj.(Extractable); ok {
		return maps.Clone(e.Extract()), nil
	}
	return FieldsHydrator.Extract(obj)
}
