package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"parkhub/internal/identity"
)

type contextKey string

const identityKey contextKey = "identity"

// Resolver turns an Authorization header into a verified identity.
type Resolver interface {
	Resolve(ctx context.Context, authHeader string) (identity.Identity, error)
}

// AdminChecker reports whether an identity has admin capability.
type AdminChecker interface {
	IsAdmin(ctx context.Context, uid string) (bool, error)
}

// Auth validates the bearer credential and stores the identity in the request
// context. Every verification failure is a uniform 401.
func Auth(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly rejects identities without an admin record. Must run inside Auth.
func AdminOnly(checker AdminChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			isAdmin, err := checker.IsAdmin(r.Context(), id.UID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to check admin role")
				return
			}
			if !isAdmin {
				writeError(w, http.StatusForbidden, "Admin only")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityFromContext retrieves the verified identity from the request context.
func IdentityFromContext(ctx context.Context) (identity.Identity, bool) {
	val := ctx.Value(identityKey)
	if val == nil {
		return identity.Identity{}, false
	}
	id, ok := val.(identity.Identity)
	return id, ok
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
