package repository

import (
	"context"
	"database/sql"

	"parkhub/internal/models"
	"parkhub/internal/service"
)

// LotRepository handles persistence of parking lots and their spots.
type LotRepository struct {
	db *sql.DB
}

// NewLotRepository returns repository.
func NewLotRepository(db *sql.DB) *LotRepository {
	return &LotRepository{db: db}
}

// List returns every lot with its live spot counts.
func (r *LotRepository) List(ctx context.Context) ([]models.LotAvailability, error) {
	const query = `
		SELECT l.lot_id, l.name, l.latitude, l.longitude, l.price_per_hour,
		       COUNT(s.spot_id),
		       COUNT(s.spot_id) FILTER (WHERE NOT s.is_occupied)
		FROM parking_lots l
		LEFT JOIN spots s ON s.lot_id = l.lot_id
		GROUP BY l.lot_id
		ORDER BY l.lot_id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []models.LotAvailability
	for rows.Next() {
		var lot models.LotAvailability
		if err := rows.Scan(
			&lot.LotID,
			&lot.Name,
			&lot.Latitude,
			&lot.Longitude,
			&lot.PricePerHour,
			&lot.TotalSpots,
			&lot.Available,
		); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lots, nil
}

// Availability returns one lot's live spot counts.
func (r *LotRepository) Availability(ctx context.Context, lotID int64) (*models.LotAvailability, error) {
	const query = `
		SELECT l.lot_id, l.name, l.latitude, l.longitude, l.price_per_hour,
		       COUNT(s.spot_id),
		       COUNT(s.spot_id) FILTER (WHERE NOT s.is_occupied)
		FROM parking_lots l
		LEFT JOIN spots s ON s.lot_id = l.lot_id
		WHERE l.lot_id = $1
		GROUP BY l.lot_id
	`
	var lot models.LotAvailability
	err := r.db.QueryRowContext(ctx, query, lotID).Scan(
		&lot.LotID,
		&lot.Name,
		&lot.Latitude,
		&lot.Longitude,
		&lot.PricePerHour,
		&lot.TotalSpots,
		&lot.Available,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, service.ErrLotNotFound
		}
		return nil, err
	}
	return &lot, nil
}

// Create inserts the lot and its fixed set of spots in one transaction.
func (r *LotRepository) Create(ctx context.Context, lot *models.ParkingLot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const insertLot = `
		INSERT INTO parking_lots (name, latitude, longitude, price_per_hour, max_spots)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING lot_id
	`
	err = tx.QueryRowContext(ctx, insertLot,
		lot.Name,
		lot.Latitude,
		lot.Longitude,
		lot.PricePerHour,
		lot.MaxSpots,
	).Scan(&lot.ID)
	if err != nil {
		if isUniqueViolation(err, "name") {
			return service.ErrDuplicateLotName
		}
		return err
	}

	const insertSpots = `
		INSERT INTO spots (lot_id)
		SELECT $1 FROM generate_series(1, $2)
	`
	if _, err = tx.ExecContext(ctx, insertSpots, lot.ID, lot.MaxSpots); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdatePrice sets the hourly price of a lot.
func (r *LotRepository) UpdatePrice(ctx context.Context, lotID int64, price float64) error {
	const query = `UPDATE parking_lots SET price_per_hour = $2 WHERE lot_id = $1`
	result, err := r.db.ExecContext(ctx, query, lotID, price)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return service.ErrLotNotFound
	}
	return nil
}

// Delete removes the lot and cascades to its spots. Lots with open bookings
// are refused so release never loses its lot.
func (r *LotRepository) Delete(ctx context.Context, lotID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const activeCheck = `
		SELECT EXISTS (
			SELECT 1
			FROM bookings b
			JOIN spots s ON s.spot_id = b.spot_id
			WHERE s.lot_id = $1 AND b.end_time IS NULL
		)
	`
	var inUse bool
	if err = tx.QueryRowContext(ctx, activeCheck, lotID).Scan(&inUse); err != nil {
		return err
	}
	if inUse {
		return service.ErrLotInUse
	}

	const deleteLot = `DELETE FROM parking_lots WHERE lot_id = $1`
	result, err := tx.ExecContext(ctx, deleteLot, lotID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return service.ErrLotNotFound
	}

	return tx.Commit()
}
