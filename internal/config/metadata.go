package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/user/halrest/pkg/hal"
)

// Metadata file keys, per type tag.
const (
	mdKeyCollection     = "collection"
	mdKeyHydrator       = "hydrator"
	mdKeyIdentifierName = "identifier_name"
	mdKeyRoute          = "route"
	mdKeyResourceRoute  = "resource_route"
	mdKeyRouteParams    = "route_params"
	mdKeyRouteOptions   = "route_options"
	mdKeyURL            = "url"
	mdKeyLinks          = "links"
)

// LoadMetadata reads a YAML metadata map and registers every entry into
// metadata. Top-level keys are type tags:
//
//	organization:
//	  hydrator: extractable
//	  route: organizations
//	  links:
//	    - rel: contacts
//	      route: contacts
//
// Entry keys are case-insensitive. Route params, route options and link
// specs keep the case they are written in. A missing file is not an
// error. It returns the number of entries registered.
func LoadMetadata(path string, metadata *hal.MetadataMap, hydrators *hal.Hydrators) (int, error) {
	if path == "" {
		return 0, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read metadata file: %w", err)
	}

	raw, err := readRawEntries(v.ConfigFileUsed())
	if err != nil {
		return 0, err
	}

	settings := v.AllSettings()
	for _, tag := range slices.Sorted(maps.Keys(settings)) {
		sub := v.Sub(tag)
		if sub == nil {
			return 0, fmt.Errorf("%w: metadata for %q must be a map", hal.ErrInvalidArgument, tag)
		}

		md, err := metadataFromConfig(tag, sub, raw[tag], hydrators)
		if err != nil {
			return 0, err
		}
		if err := metadata.Register(md); err != nil {
			return 0, err
		}
	}
	return len(settings), nil
}

// readRawEntries decodes the metadata file a second time without viper,
// which lowercases every nested key. Entries are indexed by lowercased type
// tag and their own keys are lowercased; nested values are left alone.
func readRawEntries(path string) (map[string]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata file: %w", err)
	}

	entries := make(map[string]map[string]any, len(doc))
	for tag, value := range doc {
		entry, ok := stringMap(value)
		if !ok {
			continue
		}
		lowered := make(map[string]any, len(entry))
		for k, v := range entry {
			lowered[strings.ToLower(k)] = v
		}
		entries[strings.ToLower(tag)] = lowered
	}
	return entries, nil
}

func metadataFromConfig(tag string, sub *viper.Viper, raw map[string]any, hydrators *hal.Hydrators) (hal.Metadata, error) {
	md := hal.Metadata{
		Type:           tag,
		Collection:     sub.GetBool(mdKeyCollection),
		IdentifierName: sub.GetString(mdKeyIdentifierName),
		Route:          sub.GetString(mdKeyRoute),
		ResourceRoute:  sub.GetString(mdKeyResourceRoute),
		URL:            sub.GetString(mdKeyURL),
	}
	for key, dst := range map[string]*map[string]any{
		mdKeyRouteParams:  &md.RouteParams,
		mdKeyRouteOptions: &md.RouteOptions,
	} {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		m, ok := stringMap(value)
		if !ok {
			return hal.Metadata{}, fmt.Errorf("%w: metadata %q %s must be a map", hal.ErrInvalidArgument, tag, key)
		}
		*dst = m
	}

	if name := sub.GetString(mdKeyHydrator); name != "" {
		hydrator, err := hydrators.Named(name)
		if err != nil {
			return hal.Metadata{}, fmt.Errorf("metadata %q: %w", tag, err)
		}
		md.Hydrator = hydrator
	}

	if links := raw[mdKeyLinks]; links != nil {
		list, ok := links.([]any)
		if !ok {
			return hal.Metadata{}, fmt.Errorf("%w: metadata %q links must be a list", hal.ErrInvalidArgument, tag)
		}
		for i, item := range list {
			spec, ok := stringMap(item)
			if !ok {
				return hal.Metadata{}, fmt.Errorf("%w: metadata %q link %d must be a map", hal.ErrInvalidArgument, tag, i)
			}
			md.Links = append(md.Links, spec)
		}
	}
	return md, nil
}

// stringMap normalizes decoded YAML maps, including nested ones, to
// map[string]any.
func stringMap(v any) (map[string]any, bool) {
	var out map[string]any
	switch m := v.(type) {
	case map[string]any:
		out = make(map[string]any, len(m))
		for k, val := range m {
			out[k] = normalize(val)
		}
	case map[any]any:
		out = make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = normalize(val)
		}
	default:
		return nil, false
	}
	return out, true
}

func normalize(v any) any {
	if m, ok := stringMap(v); ok {
		return m
	}
	if list, ok := v.([]any); ok {
		out := make([]any, len(list))
		for i, item := range list {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
