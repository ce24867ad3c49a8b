package service

import (
	"context"

	"parkhub/internal/models"
)

// ReportStore is the read-only aggregation contract.
type ReportStore interface {
	CountBookings(ctx context.Context) (total, active int64, err error)
	SumRevenue(ctx context.Context) (float64, error)
	RevenueByDay(ctx context.Context) ([]models.DailyRevenue, error)
}

// Reporting aggregates closed-booking revenue for admins.
type Reporting struct {
	store ReportStore
}

// NewReporting builds the reporting service.
func NewReporting(store ReportStore) *Reporting {
	return &Reporting{store: store}
}

// Analytics returns booking counts and total revenue over closed bookings.
func (s *Reporting) Analytics(ctx context.Context) (*models.Analytics, error) {
	total, active, err := s.store.CountBookings(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.store.SumRevenue(ctx)
	if err != nil {
		return nil, err
	}
	return &models.Analytics{
		TotalBookings:  total,
		ActiveBookings: active,
		Revenue:        models.Round2(revenue),
	}, nil
}

// DailyRevenue returns per-day revenue, ascending by date.
func (s *Reporting) DailyRevenue(ctx context.Context) ([]models.DailyRevenue, error) {
	rows, err := s.store.RevenueByDay(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Revenue = models.Round2(rows[i].Revenue)
	}
	return rows, nil
}
