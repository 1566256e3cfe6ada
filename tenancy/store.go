package tenancy

import (
	"context"
	"time"

	"eventra/db"
	"eventra/rdx"

	"go.mongodb.org/mongo-driver/bson"
)

// MongoChildren lists child tenants straight from the tenants collection.
type MongoChildren struct{}

func (MongoChildren) ChildIDs(ctx context.Context, parentID string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	cur, err := db.TenantsCollection.Find(ctx, bson.M{"parent": parentID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			TenantID string `bson:"tenantid"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.TenantID)
	}
	return ids, cur.Err()
}

// RedisCache adapts the shared redis connection to the resolver's Cache.
type RedisCache struct{}

func (RedisCache) Get(key string) (string, error) { return rdx.RdxGet(key) }
func (RedisCache) Set(key, value string, ttl time.Duration) error {
	return rdx.RdxSet(key, value, ttl)
}
func (RedisCache) Del(keys ...string) error { return rdx.RdxDel(keys...) }

// Default is the resolver used by the HTTP layer. Wired in main after db and
// redis come up.
var Default *Resolver

func InitDefault() {
	Default = NewResolver(MongoChildren{}, RedisCache{})
}
