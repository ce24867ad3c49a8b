package models

// User is a regular account, registered lazily on first token verification.
type User struct {
	ID          int64  `db:"user_id" json:"user_id"`
	ExternalUID string `db:"external_uid" json:"external_uid"`
	Email       string `db:"email" json:"email"`
}

// Admin accounts are provisioned out-of-band; a matching row grants admin capability.
type Admin struct {
	ID          int64  `db:"admin_id" json:"admin_id"`
	ExternalUID string `db:"external_uid" json:"external_uid"`
	Email       string `db:"email" json:"email"`
}

// Role values reported by whoami.
const (
	RoleAdmin   = "admin"
	RoleUser    = "user"
	RoleUnknown = "unknown"
)
