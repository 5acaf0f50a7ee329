package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/user/halrest/internal/database"
	"github.com/user/halrest/pkg/hal"
)

// PageCache caches collection page counts. *database.RedisDB implements it.
//
// Entries are keyed by a scope version; bumping the version on every write
// retires all counts cached for that scope.
type PageCache interface {
	GetInt(ctx context.Context, key string) (int64, bool, error)
	SetInt(ctx context.Context, key string, value int64) error
	Version(ctx context.Context, scope string) (int64, error)
	BumpVersion(ctx context.Context, scope string) error
}

var _ PageCache = (*database.RedisDB)(nil)

// Cache scopes.
const (
	scopeContacts      = "contacts"
	scopeOrganizations = "organizations"
)

// storePages pages over a repository listing.
type storePages struct {
	count func(ctx context.Context) (int, error)
	list  func(ctx context.Context, limit, offset int) ([]any, error)
}

// PageCount implements hal.Paginator.
func (p storePages) PageCount(ctx context.Context, pageSize int) (int, error) {
	if pageSize < 1 {
		pageSize = 1
	}
	total, err := p.count(ctx)
	if err != nil {
		return 0, err
	}
	return (total + pageSize - 1) / pageSize, nil
}

// PageItems implements hal.Paginator.
func (p storePages) PageItems(ctx context.Context, page, pageSize int) ([]any, error) {
	if page < 1 || pageSize < 1 {
		return nil, nil
	}
	return p.list(ctx, pageSize, (page-1)*pageSize)
}

// cachedPages serves page counts from a PageCache, falling back to the
// wrapped paginator on a miss. Cache failures are never fatal.
type cachedPages struct {
	hal.Paginator
	cache PageCache
	scope string
	key   string
}

// withPageCache wraps p when a cache is configured. key distinguishes
// listings within scope, e.g. different filters.
func withPageCache(p hal.Paginator, cache PageCache, scope, key string) hal.Paginator {
	if cache == nil {
		return p
	}
	sum := sha256.Sum256([]byte(key))
	return &cachedPages{
		Paginator: p,
		cache:     cache,
		scope:     scope,
		key:       scope + ":" + hex.EncodeToString(sum[:8]),
	}
}

// PageCount implements hal.Paginator.
func (p *cachedPages) PageCount(ctx context.Context, pageSize int) (int, error) {
	version, err := p.cache.Version(ctx, p.scope)
	if err != nil {
		return p.Paginator.PageCount(ctx, pageSize)
	}

	key := database.PageCountKey(p.key, version, pageSize)
	if cached, ok, err := p.cache.GetInt(ctx, key); err == nil && ok {
		return int(cached), nil
	}

	count, err := p.Paginator.PageCount(ctx, pageSize)
	if err != nil {
		return 0, err
	}

	// We don't fail if cache fails - it's just an optimization
	_ = p.cache.SetInt(ctx, key, int64(count))
	return count, nil
}

// invalidate bumps the version of every scope. Errors are dropped; stale
// counts expire with the cache TTL.
func invalidate(ctx context.Context, cache PageCache, scopes ...string) {
	if cache == nil {
		return
	}
	for _, scope := range scopes {
		_ = cache.BumpVersion(ctx, scope)
	}
}
