package repository

import (
	"context"
	"database/sql"
)

// UserRepository handles persistence of lazily-registered users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository returns repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// ExistsByExternalUID reports whether a user row exists for the identifier.
func (r *UserRepository) ExistsByExternalUID(ctx context.Context, uid string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE external_uid = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, uid).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Upsert registers the user on first sight; existing rows are left untouched.
func (r *UserRepository) Upsert(ctx context.Context, uid, email string) error {
	const query = `
		INSERT INTO users (external_uid, email)
		VALUES ($1, $2)
		ON CONFLICT (external_uid) DO NOTHING
	`
	_, err := r.db.ExecContext(ctx, query, uid, email)
	return err
}

// AdminRepository looks up out-of-band provisioned admins.
type AdminRepository struct {
	db *sql.DB
}

// NewAdminRepository returns repository.
func NewAdminRepository(db *sql.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// ExistsByExternalUID reports whether an admin row exists for the identifier.
func (r *AdminRepository) ExistsByExternalUID(ctx context.Context, uid string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM admins WHERE external_uid = $1)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, uid).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
