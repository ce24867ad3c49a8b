package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthenticated covers every credential failure uniformly: missing,
// malformed, expired and rejected tokens all look the same to callers.
var ErrUnauthenticated = errors.New("identity: unauthenticated")

// Identity is the stable external identifier a verified credential resolves to.
type Identity struct {
	UID   string
	Email string
}

// Verifier validates an opaque bearer token against the trust authority.
type Verifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// Claims represents the token payload issued by the identity provider.
type Claims struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenVerifier verifies HS256-signed identity tokens with a shared secret.
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier returns a configured verifier.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// Verify decodes and validates the token, returning the identity it carries.
func (v *TokenVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return Identity{}, ErrUnauthenticated
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("identity: unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, ErrUnauthenticated
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Identity{}, ErrUnauthenticated
	}

	uid := claims.UID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		return Identity{}, ErrUnauthenticated
	}

	return Identity{UID: uid, Email: claims.Email}, nil
}
