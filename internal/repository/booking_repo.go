package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"parkhub/internal/models"
	"parkhub/internal/service"
)

// BookingRepository implements the booking engine's transactional store over
// Postgres. Row locks (FOR UPDATE) carry the atomicity requirements: a claim
// and a release each run as one transaction, and the partial unique index on
// bookings enforces the single-active-booking rule even if two claims race
// past the in-transaction pre-check.
type BookingRepository struct {
	db *sql.DB
}

// NewBookingRepository returns repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// InTx runs fn inside a single transaction. The unconditional rollback is a
// no-op after commit and releases the transaction even if fn panics.
func (r *BookingRepository) InTx(ctx context.Context, fn func(service.BookingTx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&bookingTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

type bookingTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *bookingTx) HasActiveBooking(userUID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bookings WHERE user_uid = $1 AND end_time IS NULL)`
	var exists bool
	if err := t.tx.QueryRowContext(t.ctx, query, userUID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (t *bookingTx) LotExists(lotID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM parking_lots WHERE lot_id = $1)`
	var exists bool
	if err := t.tx.QueryRowContext(t.ctx, query, lotID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// LockFreeSpot picks any free spot in the lot. SKIP LOCKED makes concurrent
// claims against the same lot pick distinct spots instead of queueing on one.
func (t *bookingTx) LockFreeSpot(lotID int64) (int64, error) {
	const query = `
		SELECT spot_id
		FROM spots
		WHERE lot_id = $1 AND NOT is_occupied
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`
	var spotID int64
	if err := t.tx.QueryRowContext(t.ctx, query, lotID).Scan(&spotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, service.ErrNoAvailability
		}
		return 0, err
	}
	return spotID, nil
}

func (t *bookingTx) SetSpotOccupied(spotID int64, occupied bool) error {
	const query = `UPDATE spots SET is_occupied = $2 WHERE spot_id = $1`
	_, err := t.tx.ExecContext(t.ctx, query, spotID, occupied)
	return err
}

func (t *bookingTx) InsertBooking(b *models.Booking) error {
	const query = `
		INSERT INTO bookings (user_uid, spot_id, vehicle_number, start_time, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING booking_id
	`
	err := t.tx.QueryRowContext(t.ctx, query,
		b.UserUID,
		b.SpotID,
		b.VehicleNumber,
		b.StartTime,
		b.PaymentStatus,
	).Scan(&b.ID)
	if err != nil {
		if isUniqueViolation(err, "one_active_per_user") {
			return service.ErrAlreadyActive
		}
		return err
	}
	return nil
}

func (t *bookingTx) LockBooking(bookingID int64) (*models.Booking, error) {
	const query = `
		SELECT booking_id, user_uid, spot_id, vehicle_number, start_time,
		       end_time, duration_hours, cost, payment_status
		FROM bookings
		WHERE booking_id = $1
		FOR UPDATE
	`
	var b models.Booking
	err := t.tx.QueryRowContext(t.ctx, query, bookingID).Scan(
		&b.ID,
		&b.UserUID,
		&b.SpotID,
		&b.VehicleNumber,
		&b.StartTime,
		&b.EndTime,
		&b.DurationHours,
		&b.Cost,
		&b.PaymentStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (t *bookingTx) LotBySpot(spotID int64) (*models.ParkingLot, error) {
	const query = `
		SELECT l.lot_id, l.name, l.latitude, l.longitude, l.price_per_hour, l.max_spots
		FROM parking_lots l
		JOIN spots s ON s.lot_id = l.lot_id
		WHERE s.spot_id = $1
	`
	var lot models.ParkingLot
	err := t.tx.QueryRowContext(t.ctx, query, spotID).Scan(
		&lot.ID,
		&lot.Name,
		&lot.Latitude,
		&lot.Longitude,
		&lot.PricePerHour,
		&lot.MaxSpots,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, service.ErrLotNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// CloseBooking fills the billed fields. The end_time IS NULL guard makes the
// transition happen at most once.
func (t *bookingTx) CloseBooking(bookingID int64, end time.Time, hours, cost float64) error {
	const query = `
		UPDATE bookings
		SET end_time = $2,
		    duration_hours = $3,
		    cost = $4,
		    payment_status = $5
		WHERE booking_id = $1 AND end_time IS NULL
	`
	result, err := t.tx.ExecContext(t.ctx, query, bookingID, end, hours, cost, models.PaymentPaid)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return service.ErrBookingNotFound
	}
	return nil
}

// ActiveByUser returns the user's open booking, or nil when there is none.
func (r *BookingRepository) ActiveByUser(ctx context.Context, userUID string) (*models.Booking, error) {
	const query = `
		SELECT booking_id, user_uid, spot_id, vehicle_number, start_time,
		       end_time, duration_hours, cost, payment_status
		FROM bookings
		WHERE user_uid = $1 AND end_time IS NULL
		LIMIT 1
	`
	var b models.Booking
	err := r.db.QueryRowContext(ctx, query, userUID).Scan(
		&b.ID,
		&b.UserUID,
		&b.SpotID,
		&b.VehicleNumber,
		&b.StartTime,
		&b.EndTime,
		&b.DurationHours,
		&b.Cost,
		&b.PaymentStatus,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// HistoryByUser returns all of the user's bookings joined with their lot
// names, most recent first.
func (r *BookingRepository) HistoryByUser(ctx context.Context, userUID string) ([]models.BookingView, error) {
	const query = `
		SELECT b.booking_id, l.name, b.vehicle_number,
		       b.end_time IS NULL,
		       b.start_time, b.end_time, b.duration_hours, b.cost, b.payment_status
		FROM bookings b
		JOIN spots s ON s.spot_id = b.spot_id
		JOIN parking_lots l ON l.lot_id = s.lot_id
		WHERE b.user_uid = $1
		ORDER BY b.start_time DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var views []models.BookingView
	for rows.Next() {
		var v models.BookingView
		if err := rows.Scan(
			&v.BookingID,
			&v.ParkingLot,
			&v.VehicleNumber,
			&v.Active,
			&v.StartTime,
			&v.EndTime,
			&v.Duration,
			&v.Cost,
			&v.PaymentStatus,
		); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return views, nil
}
