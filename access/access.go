// Package access builds tenant-scoped authorization decisions for every
// collection operation. A decision is either a flat allow/deny or an allow
// narrowed by a bson filter that the calling handler merges into its query.
package access

import (
	"context"
	"log"

	"eventra/globals"
	"eventra/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Request carries the authorization context of one inbound operation.
type Request struct {
	// Actor is the authenticated user, nil when the request carries no valid
	// credentials.
	Actor *models.User
	// Tenant is the tenant addressed by the request under the path/domain
	// strategies. Empty under the user strategy.
	Tenant string
}

// Decision is the outcome of a predicate. A nil Filter on an allowed
// decision means unrestricted; otherwise the handler must AND the filter
// into its store query.
type Decision struct {
	Allowed bool
	Filter  bson.M
}

func Allow() Decision              { return Decision{Allowed: true} }
func Deny() Decision               { return Decision{} }
func AllowWhere(f bson.M) Decision { return Decision{Allowed: true, Filter: f} }

// Predicate is a composable access rule. Handlers may pass domain-specific
// predicates that the engine layers its tenant scoping on top of.
type Predicate func(ctx context.Context, req Request) (Decision, error)

// HierarchyResolver yields a tenant id plus all descendant ids. It never
// fails hard: on lookup trouble it degrades to a partial set containing at
// least the input id.
type HierarchyResolver interface {
	AuthorizedTenants(ctx context.Context, tenantID string) []string
}

// TenantCounter reports how many tenants exist, which drives the bootstrap
// carve-outs: an unprovisioned system keeps its gates open.
type TenantCounter interface {
	CountTenants(ctx context.Context) (int64, error)
}

// Engine evaluates access for one configured isolation strategy.
type Engine struct {
	Strategy string
	// FailClosed turns every allow-on-error fallback into a deny. Leave off
	// until the system is provisioned, then enable in production.
	FailClosed bool
	Resolver   HierarchyResolver
	Tenants    TenantCounter
}

func NewEngine(strategy string, failClosed bool, resolver HierarchyResolver, tenants TenantCounter) *Engine {
	return &Engine{Strategy: strategy, FailClosed: failClosed, Resolver: resolver, Tenants: tenants}
}

func (e *Engine) addressed() bool {
	return e.Strategy == globals.StrategyPath || e.Strategy == globals.StrategyDomain
}

// onError resolves a lookup failure according to the configured posture.
func (e *Engine) onError(op string, err error, fallback Decision) Decision {
	log.Printf("access: %s failed: %v (fail-closed=%v)", op, err, e.FailClosed)
	if e.FailClosed {
		return Deny()
	}
	return fallback
}

// defaultAccess is the rule applied when a handler supplies no predicate of
// its own: the actor must be logged in and, under path/domain strategies,
// authorized for the addressed tenant. An absent actor is let through so the
// very first operator can provision the system.
func (e *Engine) defaultAccess(ctx context.Context, req Request) (Decision, error) {
	if req.Actor == nil {
		return Allow(), nil
	}
	if req.Actor.Tenant == "" {
		return Deny(), nil
	}
	if !e.addressed() {
		return Allow(), nil
	}
	authorized := e.Resolver.AuthorizedTenants(ctx, req.Actor.Tenant)
	if contains(authorized, req.Tenant) {
		return Allow(), nil
	}
	return Deny(), nil
}

func (e *Engine) original(p Predicate) Predicate {
	if p != nil {
		return p
	}
	return e.defaultAccess
}

// limit narrows an upstream decision with an additional filter.
func limit(d Decision, f bson.M) Decision {
	if !d.Allowed {
		return Deny()
	}
	if d.Filter == nil {
		return AllowWhere(f)
	}
	return AllowWhere(bson.M{"$and": []bson.M{d.Filter, f}})
}

// zeroTenants reports whether the system has no tenants yet; every gate is
// open in that state. Counting errors resolve per the failure posture.
func (e *Engine) zeroTenants(ctx context.Context) (bool, error) {
	n, err := e.Tenants.CountTenants(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// ResourceRead scopes reads of a generic tenant-owned collection (events,
// bookings, notifications, logs).
func (e *Engine) ResourceRead(ctx context.Context, req Request, original Predicate) Decision {
	orig := e.original(original)

	if e.addressed() {
		if req.Tenant == "" {
			return Deny()
		}
		d, err := orig(ctx, req)
		if err != nil {
			return e.onError("resource read", err, AllowWhere(bson.M{"tenant": req.Tenant}))
		}
		return limit(d, bson.M{"tenant": req.Tenant})
	}

	if req.Actor == nil {
		return Deny()
	}
	// A logged-in actor without a tenant is a bootstrap operator; returning a
	// tenant filter here would match nothing and brick setup.
	if req.Actor.Tenant == "" {
		return Allow()
	}

	authorized := e.Resolver.AuthorizedTenants(ctx, req.Actor.Tenant)
	d, err := orig(ctx, req)
	if err != nil {
		return e.onError("resource read", err, AllowWhere(bson.M{"tenant": bson.M{"$in": authorized}}))
	}
	return limit(d, bson.M{"tenant": bson.M{"$in": authorized}})
}

// ResourceCreate gates creation of tenant-owned resources.
func (e *Engine) ResourceCreate(ctx context.Context, req Request, original Predicate) Decision {
	orig := e.original(original)

	if zero, err := e.zeroTenants(ctx); err != nil {
		return e.onError("tenant count", err, Allow())
	} else if zero {
		return Allow()
	}

	if e.addressed() {
		d, err := orig(ctx, req)
		if err != nil {
			return e.onError("resource create", err, Allow())
		}
		return d
	}

	if req.Actor == nil {
		return Deny()
	}
	if req.Actor.Tenant == "" {
		// Bootstrap: a logged-in operator without a tenant may still create
		// resources so the first data can be seeded.
		return Allow()
	}
	d, err := orig(ctx, req)
	if err != nil {
		return e.onError("resource create", err, Allow())
	}
	return d
}

// TenantRead scopes reads of the tenant collection itself: a tenant may see
// itself and its descendants.
func (e *Engine) TenantRead(ctx context.Context, req Request, original Predicate) Decision {
	orig := e.original(original)

	if e.addressed() {
		if req.Tenant == "" {
			return Deny()
		}
		authorized := e.Resolver.AuthorizedTenants(ctx, req.Tenant)
		d, err := orig(ctx, req)
		if err != nil {
			return e.onError("tenant read", err, AllowWhere(bson.M{"tenantid": bson.M{"$in": authorized}}))
		}
		return limit(d, bson.M{"tenantid": bson.M{"$in": authorized}})
	}

	// The initial user has no tenant during installation and must be able to
	// list tenants to create the first one.
	if req.Actor == nil || req.Actor.Tenant == "" {
		return Allow()
	}

	authorized := e.Resolver.AuthorizedTenants(ctx, req.Actor.Tenant)
	d, err := orig(ctx, req)
	if err != nil {
		return e.onError("tenant read", err, AllowWhere(bson.M{"tenantid": bson.M{"$in": authorized}}))
	}
	return limit(d, bson.M{"tenantid": bson.M{"$in": authorized}})
}

// TenantDelete permits deleting tenants below the acting context only: the
// doc's parent must sit inside the authorized set, so you can remove
// children but never the tenant you are standing on (unless it is itself a
// descendant of the addressed one).
func (e *Engine) TenantDelete(ctx context.Context, req Request, original Predicate) Decision {
	orig := e.original(original)

	if req.Actor == nil || req.Actor.Tenant == "" {
		return Deny()
	}

	base := req.Actor.Tenant
	if e.addressed() {
		if req.Tenant == "" {
			return Deny()
		}
		base = req.Tenant
	}

	authorized := e.Resolver.AuthorizedTenants(ctx, base)
	d, err := orig(ctx, req)
	if err != nil {
		return e.onError("tenant delete", err, AllowWhere(bson.M{"parent": bson.M{"$in": authorized}}))
	}
	return limit(d, bson.M{"parent": bson.M{"$in": authorized}})
}

// UserRead scopes reads of the users collection. An actor can always read
// its own profile regardless of tenant scoping.
func (e *Engine) UserRead(ctx context.Context, req Request, original Predicate) Decision {
	orig := e.original(original)

	selfID := ""
	if req.Actor != nil {
		selfID = req.Actor.UserID
	}

	if e.addressed() {
		if req.Tenant == "" {
			return Deny()
		}
		authorized := e.Resolver.AuthorizedTenants(ctx, req.Tenant)
		f := bson.M{"$or": []bson.M{
			{"tenant": bson.M{"$in": authorized}},
			{"userid": selfID},
		}}
		d, err := orig(ctx, req)
		if err != nil {
			return e.onError("user read", err, AllowWhere(f))
		}
		return limit(d, f)
	}

	if req.Actor == nil || req.Actor.Tenant == "" {
		return Allow()
	}

	authorized := e.Resolver.AuthorizedTenants(ctx, req.Actor.Tenant)
	f := bson.M{"$or": []bson.M{
		{"tenant": bson.M{"$in": authorized}},
		{"userid": selfID},
	}}
	d, err := orig(ctx, req)
	if err != nil {
		return e.onError("user read", err, AllowWhere(f))
	}
	return limit(d, f)
}

// UserCreate gates account creation.
func (e *Engine) UserCreate(ctx context.Context, req Request, original Predicate) Decision {
	orig := e.original(original)

	if zero, err := e.zeroTenants(ctx); err != nil {
		return e.onError("tenant count", err, Allow())
	} else if zero {
		// First ever actor is being created before any authorization context
		// exists.
		return Allow()
	}

	if e.addressed() {
		d, err := orig(ctx, req)
		if err != nil {
			return e.onError("user create", err, Allow())
		}
		return d
	}

	if req.Actor == nil {
		return Deny()
	}
	d, err := orig(ctx, req)
	if err != nil {
		return e.onError("user create", err, Allow())
	}
	return d
}

// AdminAccess gates the management UI. Only the path/domain strategies add a
// restriction: the actor's authorized set must contain the addressed tenant.
func (e *Engine) AdminAccess(ctx context.Context, req Request) bool {
	if req.Actor == nil {
		return true // initial admin setup
	}

	if e.addressed() {
		if req.Actor.Tenant == "" {
			return true
		}
		authorized := e.Resolver.AuthorizedTenants(ctx, req.Actor.Tenant)
		return contains(authorized, req.Tenant)
	}

	return true
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
