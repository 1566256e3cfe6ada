package tenancy

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// ChildLister returns the ids of tenants whose parent is the given tenant.
// The Mongo implementation lives in store.go; tests plug in fakes.
type ChildLister interface {
	ChildIDs(ctx context.Context, parentID string) ([]string, error)
}

// Cache is an optional closure cache. All errors are treated as misses.
type Cache interface {
	Get(key string) (string, error)
	Set(key, value string, ttl time.Duration) error
	Del(keys ...string) error
}

const (
	// maxDepth bounds the walk so a corrupted parent cycle, or a pathologically
	// deep tree, cannot stall a request.
	maxDepth = 32

	cacheTTL    = time.Minute
	cachePrefix = "tenancy:closure:"
)

// Resolver computes authorized tenant sets: a tenant id plus the ids of all
// its descendants.
type Resolver struct {
	children ChildLister
	cache    Cache
}

func NewResolver(children ChildLister, cache Cache) *Resolver {
	return &Resolver{children: children, cache: cache}
}

// AuthorizedTenants returns tenantID and every tenant reachable downward from
// it. The walk is a breadth-first scan with a visited set, so accidental
// cycles terminate. If a lookup fails partway, the ids collected so far are
// returned rather than an error; the caller never gets less than the input
// id, which keeps the access layer from locking everyone out over a
// transient store failure.
func (r *Resolver) AuthorizedTenants(ctx context.Context, tenantID string) []string {
	if tenantID == "" {
		return nil
	}

	if ids, ok := r.cacheGet(tenantID); ok {
		return ids
	}

	visited := map[string]bool{tenantID: true}
	result := []string{tenantID}
	frontier := []string{tenantID}

	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			childIDs, err := r.children.ChildIDs(ctx, id)
			if err != nil {
				log.Printf("tenancy: child lookup failed for %s: %v", id, err)
				return result
			}
			for _, child := range childIDs {
				if visited[child] {
					continue
				}
				visited[child] = true
				result = append(result, child)
				next = append(next, child)
			}
		}
		frontier = next
	}

	r.cacheSet(tenantID, result)
	return result
}

// Invalidate drops cached closures. Called whenever a tenant is created,
// reparented, or deleted. The whole subtree above the changed tenant is
// stale, but entries expire within cacheTTL anyway, so only the directly
// affected ids are dropped eagerly.
func (r *Resolver) Invalidate(tenantIDs ...string) {
	if r.cache == nil || len(tenantIDs) == 0 {
		return
	}
	keys := make([]string, 0, len(tenantIDs))
	for _, id := range tenantIDs {
		keys = append(keys, cachePrefix+id)
	}
	if err := r.cache.Del(keys...); err != nil {
		log.Printf("tenancy: cache invalidation failed: %v", err)
	}
}

func (r *Resolver) cacheGet(tenantID string) ([]string, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, err := r.cache.Get(cachePrefix + tenantID)
	if err != nil || raw == "" {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (r *Resolver) cacheSet(tenantID string, ids []string) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := r.cache.Set(cachePrefix+tenantID, string(raw), cacheTTL); err != nil {
		log.Printf("tenancy: cache write failed: %v", err)
	}
}
