package models

import (
	"math"
	"time"
)

// Payment states of a booking.
const (
	PaymentPending = "PENDING"
	PaymentPaid    = "PAID"
)

// Booking is a user's claim on a spot. It stays open (EndTime nil) until
// released; release fills EndTime, DurationHours and Cost exactly once.
type Booking struct {
	ID            int64      `db:"booking_id" json:"booking_id"`
	UserUID       string     `db:"user_uid" json:"user_uid"`
	SpotID        int64      `db:"spot_id" json:"spot_id"`
	VehicleNumber string     `db:"vehicle_number" json:"vehicle_number"`
	StartTime     time.Time  `db:"start_time" json:"start_time"`
	EndTime       *time.Time `db:"end_time" json:"end_time"`
	DurationHours *float64   `db:"duration_hours" json:"duration_hours"`
	Cost          *float64   `db:"cost" json:"cost"`
	PaymentStatus string     `db:"payment_status" json:"payment_status"`
}

// Active reports whether the booking is still open.
func (b *Booking) Active() bool {
	return b.EndTime == nil
}

// BookingView is a booking joined with its lot name for history listings.
type BookingView struct {
	BookingID     int64      `json:"booking_id"`
	ParkingLot    string     `json:"parking_lot"`
	VehicleNumber string     `json:"vehicle_number"`
	Active        bool       `json:"active"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	Duration      *float64   `json:"duration"`
	Cost          *float64   `json:"cost"`
	PaymentStatus string     `json:"payment_status"`
}

// ReleaseResult carries the billed outcome of a release.
type ReleaseResult struct {
	DurationHours   float64 `json:"duration_hours"`
	Cost            float64 `json:"cost"`
	AlreadyReleased bool    `json:"-"`
}

// Round2 rounds to two decimal places, the precision every stored charge uses.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Bill computes the billed duration and cost for a closed booking. A clock
// regression (end before start) clamps the duration to zero rather than
// producing a negative charge.
func Bill(start, end time.Time, pricePerHour float64) (hours, cost float64) {
	d := end.Sub(start)
	if d < 0 {
		d = 0
	}
	hours = Round2(d.Hours())
	cost = Round2(hours * pricePerHour)
	return hours, cost
}
