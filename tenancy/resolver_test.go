package tenancy

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChildren struct {
	tree  map[string][]string
	fail  map[string]bool
	calls int
}

func (f *fakeChildren) ChildIDs(_ context.Context, parentID string) ([]string, error) {
	f.calls++
	if f.fail[parentID] {
		return nil, errors.New("store down")
	}
	return f.tree[parentID], nil
}

type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{data: make(map[string]string)} }

func (f *fakeCache) Get(key string) (string, error) { return f.data[key], nil }

func (f *fakeCache) Set(key, value string, _ time.Duration) error {
	f.data[key] = value
	return nil
}

func (f *fakeCache) Del(keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func TestAuthorizedTenantsSubtree(t *testing.T) {
	children := &fakeChildren{tree: map[string][]string{
		"A": {"B"},
		"B": {"C"},
	}}
	r := NewResolver(children, nil)

	assert.ElementsMatch(t, []string{"A", "B", "C"}, r.AuthorizedTenants(context.Background(), "A"))
	assert.ElementsMatch(t, []string{"B", "C"}, r.AuthorizedTenants(context.Background(), "B"))
	assert.Equal(t, []string{"C"}, r.AuthorizedTenants(context.Background(), "C"))
}

func TestAuthorizedTenantsEmptyID(t *testing.T) {
	r := NewResolver(&fakeChildren{}, nil)
	assert.Nil(t, r.AuthorizedTenants(context.Background(), ""))
}

func TestAuthorizedTenantsCycleTerminates(t *testing.T) {
	children := &fakeChildren{tree: map[string][]string{
		"A": {"B"},
		"B": {"A"},
	}}
	r := NewResolver(children, nil)

	got := r.AuthorizedTenants(context.Background(), "A")
	assert.ElementsMatch(t, []string{"A", "B"}, got)
}

func TestAuthorizedTenantsLookupFailureKeepsPartialSet(t *testing.T) {
	children := &fakeChildren{
		tree: map[string][]string{"A": {"B"}, "B": {"C"}},
		fail: map[string]bool{"B": true},
	}
	r := NewResolver(children, nil)

	got := r.AuthorizedTenants(context.Background(), "A")
	// B was discovered before the failing lookup; the input id is always there.
	assert.ElementsMatch(t, []string{"A", "B"}, got)
	assert.Contains(t, got, "A")
}

func TestAuthorizedTenantsDepthCap(t *testing.T) {
	tree := make(map[string][]string)
	for i := 0; i < 100; i++ {
		tree[fmt.Sprintf("t%d", i)] = []string{fmt.Sprintf("t%d", i+1)}
	}
	r := NewResolver(&fakeChildren{tree: tree}, nil)

	got := r.AuthorizedTenants(context.Background(), "t0")
	assert.Len(t, got, maxDepth+1)
}

func TestAuthorizedTenantsCaches(t *testing.T) {
	children := &fakeChildren{tree: map[string][]string{"A": {"B"}}}
	cache := newFakeCache()
	r := NewResolver(children, cache)

	first := r.AuthorizedTenants(context.Background(), "A")
	callsAfterFirst := children.calls

	second := r.AuthorizedTenants(context.Background(), "A")
	assert.Equal(t, first, second)
	assert.Equal(t, callsAfterFirst, children.calls, "second call should be served from cache")
}

func TestInvalidateDropsCachedClosure(t *testing.T) {
	children := &fakeChildren{tree: map[string][]string{"A": {"B"}}}
	cache := newFakeCache()
	r := NewResolver(children, cache)

	r.AuthorizedTenants(context.Background(), "A")
	require.NotEmpty(t, cache.data)

	r.Invalidate("A")
	assert.Empty(t, cache.data)

	callsBefore := children.calls
	r.AuthorizedTenants(context.Background(), "A")
	assert.Greater(t, children.calls, callsBefore, "invalidated entry must be recomputed")
}
