package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"parkhub/internal/models"
)

// LotStore is the persistence contract of the lot registry.
type LotStore interface {
	List(ctx context.Context) ([]models.LotAvailability, error)
	// Create inserts the lot and its spots atomically, filling in the generated
	// id. A taken name surfaces as ErrDuplicateLotName.
	Create(ctx context.Context, lot *models.ParkingLot) error
	// UpdatePrice returns ErrLotNotFound for unknown ids.
	UpdatePrice(ctx context.Context, lotID int64, price float64) error
	// Delete removes the lot and its spots. Returns ErrLotNotFound for unknown
	// ids and ErrLotInUse while any spot of the lot has an open booking.
	Delete(ctx context.Context, lotID int64) error
}

// CreateLotInput carries a validated add-lot request.
type CreateLotInput struct {
	Name         string
	Latitude     float64
	Longitude    float64
	PricePerHour float64
	Spots        int
}

// Registry owns the catalog of lots and their spots.
type Registry struct {
	store    LotStore
	notifier AvailabilityNotifier
	logger   *zap.Logger
}

// NewRegistry builds the registry. notifier may be nil.
func NewRegistry(store LotStore, notifier AvailabilityNotifier, logger *zap.Logger) *Registry {
	return &Registry{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// ListLots returns every lot with its live spot counts.
func (s *Registry) ListLots(ctx context.Context) ([]models.LotAvailability, error) {
	return s.store.List(ctx)
}

// CreateLot creates a lot together with its fixed set of spots.
func (s *Registry) CreateLot(ctx context.Context, in CreateLotInput) (*models.ParkingLot, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Spots <= 0 || in.PricePerHour < 0 {
		return nil, ErrInvalidArgument
	}

	lot := &models.ParkingLot{
		Name:         in.Name,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		PricePerHour: in.PricePerHour,
		MaxSpots:     in.Spots,
	}
	if err := s.store.Create(ctx, lot); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyLot(lot.ID)
	}
	s.logger.Info("parking lot created",
		zap.Int64("lot_id", lot.ID),
		zap.String("name", lot.Name),
		zap.Int("spots", lot.MaxSpots),
	)
	return lot, nil
}

// UpdatePrice sets a lot's hourly price. Already-closed bookings keep the
// charge computed at release time.
func (s *Registry) UpdatePrice(ctx context.Context, lotID int64, price float64) error {
	if price < 0 {
		return ErrInvalidArgument
	}
	if err := s.store.UpdatePrice(ctx, lotID, price); err != nil {
		return err
	}
	s.logger.Info("parking lot price updated", zap.Int64("lot_id", lotID), zap.Float64("price", price))
	return nil
}

// DeleteLot removes a lot and all of its spots. Lots with open bookings are
// refused so no open booking is ever orphaned.
func (s *Registry) DeleteLot(ctx context.Context, lotID int64) error {
	if err := s.store.Delete(ctx, lotID); err != nil {
		return err
	}
	s.logger.Info("parking lot deleted", zap.Int64("lot_id", lotID))
	return nil
}
