package repository

import (
	"context"
	"database/sql"

	"parkhub/internal/models"
)

// ReportRepository aggregates closed-booking revenue.
type ReportRepository struct {
	db *sql.DB
}

// NewReportRepository returns repository.
func NewReportRepository(db *sql.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// CountBookings returns total and currently-open booking counts.
func (r *ReportRepository) CountBookings(ctx context.Context) (total, active int64, err error) {
	const query = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE end_time IS NULL)
		FROM bookings
	`
	if err = r.db.QueryRowContext(ctx, query).Scan(&total, &active); err != nil {
		return 0, 0, err
	}
	return total, active, nil
}

// SumRevenue sums cost over closed bookings.
func (r *ReportRepository) SumRevenue(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(cost), 0) FROM bookings WHERE cost IS NOT NULL`
	var revenue float64
	if err := r.db.QueryRowContext(ctx, query).Scan(&revenue); err != nil {
		return 0, err
	}
	return revenue, nil
}

// RevenueByDay groups closed-booking cost by the UTC calendar date of
// start_time, ascending.
func (r *ReportRepository) RevenueByDay(ctx context.Context) ([]models.DailyRevenue, error) {
	const query = `
		SELECT TO_CHAR(start_time AT TIME ZONE 'UTC', 'YYYY-MM-DD'), SUM(cost)
		FROM bookings
		WHERE cost IS NOT NULL
		GROUP BY 1
		ORDER BY 1
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []models.DailyRevenue
	for rows.Next() {
		var day models.DailyRevenue
		if err := rows.Scan(&day.Date, &day.Revenue); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return days, nil
}
