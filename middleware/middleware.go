package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"eventra/db"
	"eventra/globals"
	"eventra/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// JWT claims
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Tenant string `json:"tenant,omitempty"`
	jwt.RegisteredClaims
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
			return globals.JwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
		ctx = context.WithValue(ctx, globals.UserTenantKey, claims.Tenant)
		next(w, r.WithContext(ctx), ps)
	}
}

// OptionalAuth decodes the token when present but lets the request through
// either way. Read endpoints use it so bootstrap actors are not locked out.
func OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if len(tokenString) >= 8 && tokenString[:7] == "Bearer " {
			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
				return globals.JwtSecret, nil
			})
			if err == nil && token.Valid {
				ctx := context.WithValue(r.Context(), globals.UserIDKey, claims.UserID)
				ctx = context.WithValue(ctx, globals.RoleKey, claims.Role)
				ctx = context.WithValue(ctx, globals.UserTenantKey, claims.Tenant)
				r = r.WithContext(ctx)
			}
		}
		next(w, r, ps)
	}
}

func ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" || len(tokenString) < 8 {
		return nil, fmt.Errorf("invalid token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	return claims, nil
}

// RequestTenant resolves the tenant a request addresses and stores its id in
// the context. Under the "path" strategy the tenant comes from the X-Tenant
// header (set by the fronting proxy that strips the path prefix); under
// "domain" it is looked up by the request's hostname. Under "user" strategy
// nothing is addressed and this is a pass-through.
func RequestTenant(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		switch globals.IsolationStrategy {
		case globals.StrategyPath:
			if id := r.Header.Get("X-Tenant"); id != "" {
				r = r.WithContext(context.WithValue(r.Context(), globals.RequestTenantKey, id))
			}
		case globals.StrategyDomain:
			host := r.Host
			if h, _, err := net.SplitHostPort(r.Host); err == nil {
				host = h
			}
			if id, err := tenantByDomain(r.Context(), strings.ToLower(host)); err == nil && id != "" {
				r = r.WithContext(context.WithValue(r.Context(), globals.RequestTenantKey, id))
			}
		}
		next(w, r, ps)
	}
}

func tenantByDomain(ctx context.Context, host string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var tenant models.Tenant
	err := db.TenantsCollection.FindOne(ctx, bson.M{"domains": host}).Decode(&tenant)
	if err != nil {
		return "", err
	}
	return tenant.TenantID, nil
}
