// ===========================================
// Package hal - HAL Link Assembly & Rendering
// ===========================================
// This package turns application data into HAL documents:
//
//	{
//	  "id": "...",
//	  "_links":    {"self": {"href": "http://host/api/contacts/..."}},
//	  "_embedded": {"organization": {...}}
//	}
//
// Building blocks, leaves first:
// 1. Link / LinkCollection - relations and their targets
// 2. Resource / Collection - data plus links and routing hints
// 3. MetadataMap / Hydrators - per-type rendering configuration
// 4. Renderer - resolves identifiers, links, pagination and embeds
//
// Business failures (invalid page, missing identifier) come back as
// *problem.Problem values, never as errors.
// ===========================================

package hal

import "errors"

// Error taxonomy. Callers check with errors.Is().
var (
	// ErrInvalidArgument reports malformed input to a constructor or setter.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDomain reports a state conflict, such as a URL set on a routed link.
	ErrDomain = errors.New("domain error")

	// ErrRuntime reports a configuration problem found while rendering:
	// missing hydrator, missing identifier field, metadata without a route.
	ErrRuntime = errors.New("runtime error")
)
