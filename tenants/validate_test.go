package tenants

import (
	"context"
	"errors"
	"testing"

	"eventra/models"

	"github.com/stretchr/testify/assert"
)

type fakeTenants struct {
	docs     map[string]models.Tenant
	countErr error
}

func (f *fakeTenants) TenantByID(_ context.Context, id string) (models.Tenant, error) {
	t, ok := f.docs[id]
	if !ok {
		return models.Tenant{}, ErrTenantNotFound
	}
	return t, nil
}

func (f *fakeTenants) CountTenants(context.Context) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return int64(len(f.docs)), nil
}

type fakeResolver struct {
	sets map[string][]string
}

func (f *fakeResolver) AuthorizedTenants(_ context.Context, tenantID string) []string {
	if ids, ok := f.sets[tenantID]; ok {
		return ids
	}
	return []string{tenantID}
}

func provisioned() (*fakeTenants, *fakeResolver) {
	store := &fakeTenants{docs: map[string]models.Tenant{
		"root": {TenantID: "root", Name: "Root"},
		"B":    {TenantID: "B", Name: "B", Parent: "root"},
		"C":    {TenantID: "C", Name: "C", Parent: "B"},
	}}
	resolver := &fakeResolver{sets: map[string][]string{
		"root": {"root", "B", "C"},
		"B":    {"B", "C"},
	}}
	return store, resolver
}

func TestValidateParentSelfReference(t *testing.T) {
	store, resolver := provisioned()
	err := ValidateParent(context.Background(), store, resolver, nil, "B", "B")
	assert.ErrorIs(t, err, ErrSelfParent)
}

func TestValidateParentBootstrap(t *testing.T) {
	empty := &fakeTenants{docs: map[string]models.Tenant{}}
	resolver := &fakeResolver{}

	assert.NoError(t, ValidateParent(context.Background(), empty, resolver, nil, "", ""))

	one := &fakeTenants{docs: map[string]models.Tenant{"root": {TenantID: "root"}}}
	assert.NoError(t, ValidateParent(context.Background(), one, resolver, nil, "", "root"),
		"second tenant may pick the first as parent without a chain check")
}

func TestValidateParentRootStaysRoot(t *testing.T) {
	store, resolver := provisioned()

	err := ValidateParent(context.Background(), store, resolver, nil, "root", "B")
	assert.ErrorIs(t, err, ErrRootParent)

	assert.NoError(t, ValidateParent(context.Background(), store, resolver, nil, "root", ""))
}

func TestValidateParentMustExist(t *testing.T) {
	store, resolver := provisioned()
	err := ValidateParent(context.Background(), store, resolver, nil, "", "ghost")
	assert.ErrorIs(t, err, ErrParentNotFound)
}

func TestValidateParentChainCheck(t *testing.T) {
	store, resolver := provisioned()
	admin := &models.User{UserID: "u1", Role: models.RoleAdmin, Tenant: "B"}

	assert.NoError(t, ValidateParent(context.Background(), store, resolver, admin, "", "C"),
		"parent inside the actor's subtree is fine")

	err := ValidateParent(context.Background(), store, resolver, admin, "", "root")
	assert.ErrorIs(t, err, ErrParentForbidden)
}

func TestValidateParentBootstrapActorSkipsChainCheck(t *testing.T) {
	store, resolver := provisioned()
	installer := &models.User{UserID: "u1", Role: models.RoleAdmin}

	assert.NoError(t, ValidateParent(context.Background(), store, resolver, installer, "", "root"))
	assert.NoError(t, ValidateParent(context.Background(), store, resolver, nil, "", "root"))
}

func TestValidateParentCountFailureIsPermissive(t *testing.T) {
	store, resolver := provisioned()
	store.countErr = errors.New("store down")

	assert.NoError(t, ValidateParent(context.Background(), store, resolver, nil, "", "ghost"))
}
