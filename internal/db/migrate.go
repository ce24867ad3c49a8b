package db

import (
	"context"
	"database/sql"
	"fmt"
)

// The partial unique index on bookings is the storage-level guarantee that a
// user holds at most one open booking, regardless of how requests interleave.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		user_id      BIGSERIAL PRIMARY KEY,
		external_uid TEXT NOT NULL UNIQUE,
		email        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		admin_id     BIGSERIAL PRIMARY KEY,
		external_uid TEXT NOT NULL UNIQUE,
		email        TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS parking_lots (
		lot_id         BIGSERIAL PRIMARY KEY,
		name           TEXT NOT NULL UNIQUE,
		latitude       DOUBLE PRECISION NOT NULL DEFAULT 0,
		longitude      DOUBLE PRECISION NOT NULL DEFAULT 0,
		price_per_hour DOUBLE PRECISION NOT NULL,
		max_spots      INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS spots (
		spot_id     BIGSERIAL PRIMARY KEY,
		lot_id      BIGINT NOT NULL REFERENCES parking_lots (lot_id) ON DELETE CASCADE,
		is_occupied BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS spots_lot_idx ON spots (lot_id)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		booking_id     BIGSERIAL PRIMARY KEY,
		user_uid       TEXT NOT NULL,
		spot_id        BIGINT NOT NULL,
		vehicle_number TEXT NOT NULL,
		start_time     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		end_time       TIMESTAMPTZ,
		duration_hours DOUBLE PRECISION,
		cost           DOUBLE PRECISION,
		payment_status TEXT NOT NULL DEFAULT 'PENDING'
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS bookings_one_active_per_user
		ON bookings (user_uid) WHERE end_time IS NULL`,
	`CREATE INDEX IF NOT EXISTS bookings_user_idx ON bookings (user_uid, start_time DESC)`,
}

// Migrate bootstraps the schema. Safe to run on every startup.
func Migrate(ctx context.Context, pool *sql.DB) error {
	for _, stmt := range statements {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
	}
	return nil
}
