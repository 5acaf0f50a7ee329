package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/halrest/internal/database"
	"github.com/user/halrest/internal/models"
	"github.com/user/halrest/internal/repository"
)

// memCache is an in-memory PageCache.
type memCache struct {
	values   map[string]int64
	versions map[string]int64
	failGet  bool
}

func newMemCache() *memCache {
	return &memCache{values: map[string]int64{}, versions: map[string]int64{}}
}

func (c *memCache) GetInt(_ context.Context, key string) (int64, bool, error) {
	if c.failGet {
		return 0, false, errors.New("cache down")
	}
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memCache) SetInt(_ context.Context, key string, value int64) error {
	c.values[key] = value
	return nil
}

func (c *memCache) Version(_ context.Context, scope string) (int64, error) {
	return c.versions[scope], nil
}

func (c *memCache) BumpVersion(_ context.Context, scope string) error {
	c.versions[scope]++
	return nil
}

func newTestStore(t *testing.T) repository.Store {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return repository.NewSQLiteStore(db.DB)
}

func TestContactService_CreateWithOrganization(t *testing.T) {
	ctx := context.Background()
	svc := NewContactService(newTestStore(t), nil)

	first, err := svc.Create(ctx, models.ContactInput{Name: " Ada ", Email: "ada@acme.test", Organization: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", first.Name)
	require.NotNil(t, first.Organization)

	second, err := svc.Create(ctx, models.ContactInput{Name: "Bob", Email: "bob@acme.test", Organization: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, first.Organization.ID, second.Organization.ID, "organization is reused by name")

	_, err = svc.Create(ctx, models.ContactInput{Name: "Ada Again", Email: "ada@acme.test"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = svc.Create(ctx, models.ContactInput{Name: "  ", Email: "blank@acme.test"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestContactService_GetUpdatePatchDelete(t *testing.T) {
	ctx := context.Background()
	svc := NewContactService(newTestStore(t), nil)

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrContactNotFound)

	c, err := svc.Create(ctx, models.ContactInput{Name: "Ada", Email: "ada@example.com", Organization: "Acme"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, c.ID.String(), models.ContactInput{Name: "Ada L", Email: "ada@example.com", Phone: "1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)
	assert.Nil(t, updated.OrganizationID, "PUT without organization detaches it")

	phone := "2"
	org := "Initech"
	patched, err := svc.Patch(ctx, c.ID.String(), models.ContactPatch{Phone: &phone, Organization: &org})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", patched.Name)
	assert.Equal(t, "2", patched.Phone)
	require.NotNil(t, patched.Organization)
	assert.Equal(t, "Initech", patched.Organization.Name)

	blank := ""
	_, err = svc.Patch(ctx, c.ID.String(), models.ContactPatch{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, c.ID.String()))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID.String()), ErrContactNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, "nope"), ErrContactNotFound)
}

func TestContactService_ListPages(t *testing.T) {
	ctx := context.Background()
	svc := NewContactService(newTestStore(t), nil)

	for i := range 7 {
		_, err := svc.Create(ctx, models.ContactInput{Name: fmt.Sprintf("C%d", i), Email: fmt.Sprintf("c%d@example.com", i)})
		require.NoError(t, err)
	}

	pages := svc.List(models.ContactFilter{})
	count, err := pages.PageCount(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	items, err := pages.PageItems(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "C6", items[0].(*models.Contact).Name)

	items, err = pages.PageItems(ctx, 0, 3)
	require.NoError(t, err)
	assert.Empty(t, items)

	deleted, err := svc.DeleteAll(ctx, models.ContactFilter{Query: "c1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
}

func TestContactService_PageCountCache(t *testing.T) {
	ctx := context.Background()
	cache := newMemCache()
	svc := NewContactService(newTestStore(t), cache)

	_, err := svc.Create(ctx, models.ContactInput{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	count, err := svc.List(models.ContactFilter{}).PageCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, cache.values, 1)

	// A cached value is served as-is.
	for k := range cache.values {
		cache.values[k] = 42
	}
	count, err = svc.List(models.ContactFilter{}).PageCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 42, count)

	// Writes bump the version, so the stale count is no longer reachable.
	_, err = svc.Create(ctx, models.ContactInput{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)
	count, err = svc.List(models.ContactFilter{}).PageCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Cache failures fall back to the store.
	cache.failGet = true
	count, err = svc.List(models.ContactFilter{Query: "b"}).PageCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestOrganizationService(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	contacts := NewContactService(store, nil)
	orgs := NewOrganizationService(store, nil)

	c, err := contacts.Create(ctx, models.ContactInput{Name: "Ada", Email: "ada@acme.test", Organization: "Acme"})
	require.NoError(t, err)
	_, err = contacts.Create(ctx, models.ContactInput{Name: "Eve", Email: "eve@other.test", Organization: "Other"})
	require.NoError(t, err)

	detail, err := orgs.Get(ctx, c.Organization.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Acme", detail.Name)
	require.Len(t, detail.Contacts, 1)
	assert.Equal(t, "Ada", detail.Contacts[0].Name)
	assert.Nil(t, detail.Contacts[0].Organization)

	_, err = orgs.Get(ctx, "bogus")
	assert.ErrorIs(t, err, ErrOrganizationNotFound)

	count, err := orgs.List().PageCount(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	items, err := orgs.List().PageItems(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Acme", items[0].(*models.Organization).Name)
}
