package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"eventra/access"
	"eventra/db"
	"eventra/models"
	"eventra/tenancy"
	"eventra/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTenants implements TenantReader off the shared collection.
type MongoTenants struct{}

func (MongoTenants) TenantByID(ctx context.Context, id string) (models.Tenant, error) {
	var tenant models.Tenant
	err := db.TenantsCollection.FindOne(ctx, bson.M{"tenantid": id}).Decode(&tenant)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Tenant{}, ErrTenantNotFound
	}
	return tenant, err
}

func (MongoTenants) CountTenants(ctx context.Context) (int64, error) {
	return db.TenantsCollection.CountDocuments(ctx, bson.M{})
}

// CreateTenant handles POST /api/tenants.
func CreateTenant(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Name    string   `json:"name"`
		Parent  string   `json:"parent"`
		Domains []string `json:"domains"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Name required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	req := access.FromRequest(r)
	store := MongoTenants{}

	count, err := store.CountTenants(ctx)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}
	// Past bootstrap, only authenticated actors may add tenants.
	if count > 0 && req.Actor == nil {
		utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := ValidateParent(ctx, store, tenancy.Default, req.Actor, "", body.Parent); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	for i, d := range body.Domains {
		body.Domains[i] = strings.ToLower(strings.TrimSpace(d))
	}

	tenant := models.Tenant{
		TenantID:  utils.GenerateID(14),
		Name:      strings.TrimSpace(body.Name),
		Parent:    body.Parent,
		Domains:   body.Domains,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := db.TenantsCollection.InsertOne(ctx, tenant); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	// The parent's cached closure no longer covers the new child.
	tenancy.Default.Invalidate(tenant.Parent, tenant.TenantID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tenant": tenant})
}

// ListTenants handles GET /api/tenants.
func ListTenants(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	req := access.FromRequest(r)
	dec := access.Default.TenantRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{}
	if dec.Filter != nil {
		filter = dec.Filter
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	skip, limit := utils.ParsePagination(r, 20, 100)
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "createdAt", Value: 1}})
	list, err := utils.FindAndDecode[models.Tenant](ctx, db.TenantsCollection, filter, opts)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tenants": list})
}

// GetTenant handles GET /api/tenants/:tenantid.
func GetTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	req := access.FromRequest(r)
	dec := access.Default.TenantRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{"tenantid": ps.ByName("tenantid")}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var tenant models.Tenant
	if err := db.TenantsCollection.FindOne(ctx, filter).Decode(&tenant); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tenant": tenant})
}

// UpdateTenant handles PUT /api/tenants/:tenantid (rename, reparent, domain
// changes).
func UpdateTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenantid")

	var body struct {
		Name    *string   `json:"name"`
		Parent  *string   `json:"parent"`
		Domains *[]string `json:"domains"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	req := access.FromRequest(r)
	dec := access.Default.TenantRead(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{"tenantid": tenantID}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var existing models.Tenant
	if err := db.TenantsCollection.FindOne(ctx, filter).Decode(&existing); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
		return
	}

	store := MongoTenants{}
	update := bson.M{"updatedAt": time.Now().UTC()}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		update["name"] = strings.TrimSpace(*body.Name)
	}
	if body.Parent != nil {
		if err := ValidateParent(ctx, store, tenancy.Default, req.Actor, tenantID, *body.Parent); err != nil {
			utils.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		update["parent"] = *body.Parent
	}
	if body.Domains != nil {
		domains := *body.Domains
		for i, d := range domains {
			domains[i] = strings.ToLower(strings.TrimSpace(d))
		}
		update["domains"] = domains
	}

	res := db.TenantsCollection.FindOneAndUpdate(ctx,
		bson.M{"tenantid": tenantID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var updated models.Tenant
	if err := res.Decode(&updated); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
		return
	}

	tenancy.Default.Invalidate(existing.Parent, updated.Parent, tenantID)

	utils.RespondWithJSON(w, http.StatusOK, utils.M{"tenant": updated})
}

// DeleteTenant handles DELETE /api/tenants/:tenantid. The delete predicate
// only matches tenants whose parent lies inside the caller's authorized set,
// so a tenant can remove its children but not itself.
func DeleteTenant(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID := ps.ByName("tenantid")

	req := access.FromRequest(r)
	dec := access.Default.TenantDelete(r.Context(), req, nil)
	if !dec.Allowed {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return
	}

	filter := bson.M{"tenantid": tenantID}
	if dec.Filter != nil {
		filter = bson.M{"$and": []bson.M{filter, dec.Filter}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var tenant models.Tenant
	if err := db.TenantsCollection.FindOne(ctx, filter).Decode(&tenant); err != nil {
		utils.RespondWithError(w, http.StatusNotFound, "Tenant not found")
		return
	}

	if _, err := db.TenantsCollection.DeleteOne(ctx, bson.M{"tenantid": tenant.TenantID}); err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, "db error")
		return
	}

	tenancy.Default.Invalidate(tenant.Parent, tenant.TenantID)

	w.WriteHeader(http.StatusNoContent)
}
