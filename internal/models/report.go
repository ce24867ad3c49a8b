package models

// Analytics is the admin-facing booking summary.
type Analytics struct {
	TotalBookings  int64   `json:"total_bookings"`
	ActiveBookings int64   `json:"active_bookings"`
	Revenue        float64 `json:"revenue"`
}

// DailyRevenue is one calendar day's summed booking cost. Date is the UTC
// calendar date of the bookings' start times, formatted YYYY-MM-DD.
type DailyRevenue struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}
