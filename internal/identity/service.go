package identity

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"parkhub/internal/models"
)

// UserStore persists lazily-registered users.
type UserStore interface {
	ExistsByExternalUID(ctx context.Context, uid string) (bool, error)
	// Upsert creates the user if missing; an existing row is left untouched.
	Upsert(ctx context.Context, uid, email string) error
}

// AdminStore looks up out-of-band provisioned admins.
type AdminStore interface {
	ExistsByExternalUID(ctx context.Context, uid string) (bool, error)
}

// Service resolves bearer credentials to identities and roles.
type Service struct {
	verifier Verifier
	users    UserStore
	admins   AdminStore
	logger   *zap.Logger
}

// NewService builds the resolver.
func NewService(verifier Verifier, users UserStore, admins AdminStore, logger *zap.Logger) *Service {
	return &Service{
		verifier: verifier,
		users:    users,
		admins:   admins,
		logger:   logger,
	}
}

// Resolve parses an Authorization header value and verifies the bearer token.
func (s *Service) Resolve(ctx context.Context, authHeader string) (Identity, error) {
	if authHeader == "" {
		return Identity{}, ErrUnauthenticated
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}, ErrUnauthenticated
	}

	id, err := s.verifier.Verify(ctx, strings.TrimSpace(parts[1]))
	if err != nil {
		s.logger.Debug("token verification failed", zap.Error(err))
		return Identity{}, ErrUnauthenticated
	}
	return id, nil
}

// IsAdmin reports whether an admin record exists for the identifier.
func (s *Service) IsAdmin(ctx context.Context, uid string) (bool, error) {
	return s.admins.ExistsByExternalUID(ctx, uid)
}

// Role classifies a resolved identity as admin, user or unknown.
func (s *Service) Role(ctx context.Context, uid string) (string, error) {
	isAdmin, err := s.admins.ExistsByExternalUID(ctx, uid)
	if err != nil {
		return "", err
	}
	if isAdmin {
		return models.RoleAdmin, nil
	}

	isUser, err := s.users.ExistsByExternalUID(ctx, uid)
	if err != nil {
		return "", err
	}
	if isUser {
		return models.RoleUser, nil
	}
	return models.RoleUnknown, nil
}

// SyncUser ensures a user record exists for a resolved non-admin identity.
// Idempotent; admins are never mirrored into the users table.
func (s *Service) SyncUser(ctx context.Context, id Identity) (string, error) {
	isAdmin, err := s.admins.ExistsByExternalUID(ctx, id.UID)
	if err != nil {
		return "", err
	}
	if isAdmin {
		return "Admin synced", nil
	}

	if err := s.users.Upsert(ctx, id.UID, id.Email); err != nil {
		return "", err
	}
	return "User synced", nil
}
