package globals

import (
	"context"
	"os"
	"strings"
)

// Context keys
type ContextKey string

const UserIDKey ContextKey = "userId"
const RoleKey ContextKey = "role"
const UserTenantKey ContextKey = "userTenant"
const RequestTenantKey ContextKey = "requestTenant"

// Isolation strategies. The strategy decides which tenant a request is
// scoped to: the actor's own tenant, or a tenant addressed by path/domain.
const (
	StrategyUser   = "user"
	StrategyPath   = "path"
	StrategyDomain = "domain"
)

var (
	JwtSecret  = []byte(envOr("JWT_SECRET", "change_me_in_production"))
	HmacSecret = []byte(envOr("TICKET_HMAC_SECRET", "change_me_too"))
)

// IsolationStrategy is read once at startup. Defaults to "user".
var IsolationStrategy = loadStrategy()

// AccessFailClosed flips every allow-on-error fallback in the access layer
// to deny-on-error. Off by default so a fresh install can bootstrap itself.
var AccessFailClosed = strings.EqualFold(os.Getenv("ACCESS_FAIL_CLOSED"), "true")

var Ctx = context.Background()

func loadStrategy() string {
	switch s := strings.ToLower(os.Getenv("ISOLATION_STRATEGY")); s {
	case StrategyPath, StrategyDomain:
		return s
	default:
		return StrategyUser
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
