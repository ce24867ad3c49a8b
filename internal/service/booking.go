package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"parkhub/internal/models"
	"parkhub/internal/redisstore"
)

// timeNow is swapped out in tests.
var timeNow = time.Now

// BookingTx exposes the primitives one booking transaction is built from. Every
// method operates inside the transaction that produced the BookingTx; locking
// methods hold their row locks until the transaction ends.
type BookingTx interface {
	HasActiveBooking(userUID string) (bool, error)
	LotExists(lotID int64) (bool, error)
	// LockFreeSpot picks any one free spot in the lot and locks it, skipping
	// spots locked by concurrent claims. Returns ErrNoAvailability when the lot
	// has no free spot left.
	LockFreeSpot(lotID int64) (int64, error)
	SetSpotOccupied(spotID int64, occupied bool) error
	// InsertBooking fills in the generated id. A violation of the one-active-
	// booking-per-user constraint surfaces as ErrAlreadyActive.
	InsertBooking(b *models.Booking) error
	// LockBooking fetches a booking by id and locks its row. Returns
	// ErrBookingNotFound for unknown ids.
	LockBooking(bookingID int64) (*models.Booking, error)
	LotBySpot(spotID int64) (*models.ParkingLot, error)
	CloseBooking(bookingID int64, end time.Time, hours, cost float64) error
}

// BookingStore is the persistence contract of the booking engine.
type BookingStore interface {
	// InTx runs fn inside a single transaction; fn returning an error rolls
	// everything back.
	InTx(ctx context.Context, fn func(BookingTx) error) error
	ActiveByUser(ctx context.Context, userUID string) (*models.Booking, error)
	HistoryByUser(ctx context.Context, userUID string) ([]models.BookingView, error)
}

// AvailabilityNotifier is told whenever a lot's spot counts may have changed.
type AvailabilityNotifier interface {
	NotifyLot(lotID int64)
}

// ActiveBookingCache caches each user's open booking. Claim writes through,
// release deletes; reads fall back to the store on ErrCacheMiss.
type ActiveBookingCache interface {
	Save(ctx context.Context, userUID string, booking redisstore.ActiveBooking) error
	Get(ctx context.Context, userUID string) (*redisstore.ActiveBooking, error)
	Delete(ctx context.Context, userUID string) error
}

// Booking is the spot-claim and release engine.
type Booking struct {
	store    BookingStore
	cache    ActiveBookingCache
	notifier AvailabilityNotifier
	logger   *zap.Logger
}

// NewBooking builds the engine. cache and notifier may be nil.
func NewBooking(store BookingStore, cache ActiveBookingCache, notifier AvailabilityNotifier, logger *zap.Logger) *Booking {
	return &Booking{
		store:    store,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// Claim atomically assigns a free spot in the lot to the user and opens a
// booking. The user must not already hold an open booking.
func (s *Booking) Claim(ctx context.Context, userUID string, lotID int64, vehicleNumber string) (*models.Booking, error) {
	var booking *models.Booking

	err := s.store.InTx(ctx, func(tx BookingTx) error {
		active, err := tx.HasActiveBooking(userUID)
		if err != nil {
			return err
		}
		if active {
			return ErrAlreadyActive
		}

		exists, err := tx.LotExists(lotID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrLotNotFound
		}

		spotID, err := tx.LockFreeSpot(lotID)
		if err != nil {
			return err
		}
		if err := tx.SetSpotOccupied(spotID, true); err != nil {
			return err
		}

		b := &models.Booking{
			UserUID:       userUID,
			SpotID:        spotID,
			VehicleNumber: vehicleNumber,
			StartTime:     timeNow().UTC(),
			PaymentStatus: models.PaymentPending,
		}
		if err := tx.InsertBooking(b); err != nil {
			return err
		}
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cacheActive(ctx, booking)
	if s.notifier != nil {
		s.notifier.NotifyLot(lotID)
	}
	s.logger.Info("spot claimed",
		zap.Int64("booking_id", booking.ID),
		zap.Int64("spot_id", booking.SpotID),
		zap.Int64("lot_id", lotID),
	)
	return booking, nil
}

// GetActive returns the user's open booking, or nil when there is none.
func (s *Booking) GetActive(ctx context.Context, userUID string) (*models.Booking, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userUID)
		if err != nil && err != redisstore.ErrCacheMiss {
			s.logger.Warn("active booking cache read failed", zap.Error(err))
		}
		if cached != nil {
			return &models.Booking{
				ID:            cached.BookingID,
				UserUID:       userUID,
				SpotID:        cached.SpotID,
				StartTime:     cached.StartTime,
				PaymentStatus: models.PaymentPending,
			}, nil
		}
	}

	// No write-back on the read path: a release committing between the store
	// read and a cache set would let the set resurrect a closed booking for
	// the full TTL. Claim's write-through is the only cache fill.
	return s.store.ActiveByUser(ctx, userUID)
}

// History lists all of the user's bookings, most recent first.
func (s *Booking) History(ctx context.Context, userUID string) ([]models.BookingView, error) {
	return s.store.HistoryByUser(ctx, userUID)
}

// Release closes an open booking, computes the charge and frees its spot.
// Releasing an already-closed booking returns the stored charge unchanged.
func (s *Booking) Release(ctx context.Context, userUID string, bookingID int64) (*models.ReleaseResult, error) {
	var (
		result *models.ReleaseResult
		lotID  int64
	)

	err := s.store.InTx(ctx, func(tx BookingTx) error {
		b, err := tx.LockBooking(bookingID)
		if err != nil {
			return err
		}
		if b.UserUID != userUID {
			return ErrNotOwner
		}
		if b.EndTime != nil {
			result = &models.ReleaseResult{
				DurationHours:   deref(b.DurationHours),
				Cost:            deref(b.Cost),
				AlreadyReleased: true,
			}
			return nil
		}

		lot, err := tx.LotBySpot(b.SpotID)
		if err != nil {
			return err
		}

		end := timeNow().UTC()
		hours, cost := models.Bill(b.StartTime, end, lot.PricePerHour)
		if err := tx.CloseBooking(b.ID, end, hours, cost); err != nil {
			return err
		}
		if err := tx.SetSpotOccupied(b.SpotID, false); err != nil {
			return err
		}

		lotID = lot.ID
		result = &models.ReleaseResult{DurationHours: hours, Cost: cost}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.AlreadyReleased {
		return result, nil
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, userUID); err != nil {
			s.logger.Warn("active booking cache delete failed", zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyLot(lotID)
	}
	s.logger.Info("spot released",
		zap.Int64("booking_id", bookingID),
		zap.Float64("duration_hours", result.DurationHours),
		zap.Float64("cost", result.Cost),
	)
	return result, nil
}

func (s *Booking) cacheActive(ctx context.Context, b *models.Booking) {
	if s.cache == nil || b == nil {
		return
	}
	err := s.cache.Save(ctx, b.UserUID, redisstore.ActiveBooking{
		BookingID: b.ID,
		SpotID:    b.SpotID,
		StartTime: b.StartTime,
	})
	if err != nil {
		s.logger.Warn("failed to cache active booking", zap.Error(err))
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
