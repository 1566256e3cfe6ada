package rdx

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

var Conn *redis.Client

// Init connects to redis. The cache is optional; if redis is unreachable the
// rest of the system keeps working, callers treat cache errors as misses.
func Init() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	Conn = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := Conn.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s: %v (continuing without cache)", addr, err)
	}
}

func RdxSet(key, value string, ttl time.Duration) error {
	return Conn.Set(context.Background(), key, value, ttl).Err()
}

func RdxGet(key string) (string, error) {
	return Conn.Get(context.Background(), key).Result()
}

func RdxDel(keys ...string) error {
	return Conn.Del(context.Background(), keys...).Err()
}

func RdxHset(hash, field, value string) error {
	return Conn.HSet(context.Background(), hash, field, value).Err()
}

func RdxHget(hash, field string) (string, error) {
	return Conn.HGet(context.Background(), hash, field).Result()
}

func RdxHdel(hash, field string) error {
	return Conn.HDel(context.Background(), hash, field).Err()
}
