package models

// ParkingLot is a named facility with a fixed number of spots.
type ParkingLot struct {
	ID           int64   `db:"lot_id" json:"lot_id"`
	Name         string  `db:"name" json:"name"`
	Latitude     float64 `db:"latitude" json:"lat"`
	Longitude    float64 `db:"longitude" json:"lng"`
	PricePerHour float64 `db:"price_per_hour" json:"price"`
	MaxSpots     int     `db:"max_spots" json:"max_spots"`
}

// Spot is one bookable slot within a lot. Occupancy is toggled only by the
// booking engine.
type Spot struct {
	ID         int64 `db:"spot_id" json:"spot_id"`
	LotID      int64 `db:"lot_id" json:"lot_id"`
	IsOccupied bool  `db:"is_occupied" json:"is_occupied"`
}

// LotAvailability is a lot joined with its live spot counts.
type LotAvailability struct {
	LotID        int64   `json:"lot_id"`
	Name         string  `json:"name"`
	Latitude     float64 `json:"lat"`
	Longitude    float64 `json:"lng"`
	PricePerHour float64 `json:"price"`
	TotalSpots   int     `json:"total"`
	Available    int     `json:"available"`
}
