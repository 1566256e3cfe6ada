package access

import (
	"context"
	"net/http"
	"time"

	"eventra/db"
	"eventra/globals"
	"eventra/models"
	"eventra/tenancy"

	"go.mongodb.org/mongo-driver/bson"
)

// MongoTenantCounter counts tenants straight off the collection.
type MongoTenantCounter struct{}

func (MongoTenantCounter) CountTenants(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return db.TenantsCollection.CountDocuments(ctx, bson.M{})
}

// Default is the engine used by the HTTP layer.
var Default *Engine

func InitDefault() {
	Default = NewEngine(globals.IsolationStrategy, globals.AccessFailClosed, tenancy.Default, MongoTenantCounter{})
}

// FromRequest assembles the authorization context of an HTTP request: the
// actor loaded from the users collection (when authenticated) and the
// addressed tenant resolved by the middleware (under path/domain).
func FromRequest(r *http.Request) Request {
	req := Request{}
	if id, ok := r.Context().Value(globals.RequestTenantKey).(string); ok {
		req.Tenant = id
	}

	userID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || userID == "" {
		return req
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	var user models.User
	if err := db.UserCollection.FindOne(ctx, bson.M{"userid": userID}).Decode(&user); err == nil {
		req.Actor = &user
	}
	return req
}
