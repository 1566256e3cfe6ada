package tenants

import (
	"context"
	"errors"

	"eventra/models"
	"eventra/utils"
)

var (
	ErrSelfParent      = errors.New("Cannot relate to itself")
	ErrRootParent      = errors.New("Cannot assign parent to root tenant")
	ErrParentForbidden = errors.New("Parent tenant is not in your authorized set")
	ErrParentNotFound  = errors.New("Parent tenant does not exist")
	ErrTenantNotFound  = errors.New("Tenant not found")
)

// TenantReader is the store slice parent validation needs.
type TenantReader interface {
	TenantByID(ctx context.Context, id string) (models.Tenant, error)
	CountTenants(ctx context.Context) (int64, error)
}

// HierarchyResolver mirrors tenancy.Resolver.
type HierarchyResolver interface {
	AuthorizedTenants(ctx context.Context, tenantID string) []string
}

// ValidateParent checks a parent assignment for the tenant identified by
// tenantID (empty when the tenant is being created). Rules: no
// self-reference; a root tenant never gains a parent; once the system holds
// more than one tenant, a named parent must exist and lie inside the acting
// user's authorized set. The first tenant, and the second while only one
// exists, skip the chain check so installation cannot deadlock on
// authorization that doesn't exist yet.
func ValidateParent(ctx context.Context, store TenantReader, resolver HierarchyResolver, actor *models.User, tenantID, parent string) error {
	if tenantID != "" && parent == tenantID {
		return ErrSelfParent
	}

	count, err := store.CountTenants(ctx)
	if err != nil {
		// Can't tell how provisioned the system is; let the write through
		// rather than brick setup.
		return nil
	}
	if count == 0 {
		return nil
	}
	if count == 1 && tenantID == "" {
		// Second tenant: parent may be empty or point at the first tenant,
		// no chain check yet.
		return nil
	}

	if tenantID != "" {
		original, err := store.TenantByID(ctx, tenantID)
		if err != nil {
			return ErrTenantNotFound
		}
		if original.Parent == "" {
			// Roots stay roots.
			if parent != "" {
				return ErrRootParent
			}
			return nil
		}
	}

	if parent == "" {
		return nil
	}

	if _, err := store.TenantByID(ctx, parent); err != nil {
		return ErrParentNotFound
	}

	// Programmatic writes and bootstrap operators skip the chain check.
	if actor == nil || actor.Tenant == "" {
		return nil
	}

	authorized := resolver.AuthorizedTenants(ctx, actor.Tenant)
	if !utils.Contains(authorized, parent) {
		return ErrParentForbidden
	}
	return nil
}
