package handlers

import (
	"context"
	"net/http"

	"parkhub/internal/http/middleware"
	"parkhub/internal/identity"
)

// IdentityService is the role/sync surface consumed by identity handlers.
type IdentityService interface {
	Role(ctx context.Context, uid string) (string, error)
	SyncUser(ctx context.Context, id identity.Identity) (string, error)
}

// NewWhoamiHandler returns GET /api/whoami.
func NewWhoamiHandler(svc IdentityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		role, err := svc.Role(r.Context(), id.UID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to resolve role")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"role": role})
	}
}

// NewSyncUserHandler returns POST /api/sync-user.
func NewSyncUserHandler(svc IdentityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := middleware.IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		message, err := svc.SyncUser(r.Context(), id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to sync user")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}
