package httpserver

import "net/http"

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Routes groups handlers.
type Routes struct {
	Root   http.HandlerFunc
	Health http.HandlerFunc

	Whoami   http.HandlerFunc
	SyncUser http.HandlerFunc

	ParkingLocations http.HandlerFunc

	Book          http.HandlerFunc
	ActiveBooking http.HandlerFunc
	MyBookings    http.HandlerFunc
	Release       http.HandlerFunc

	Analytics    http.HandlerFunc
	DailyRevenue http.HandlerFunc
	AddLot       http.HandlerFunc
	UpdateLot    http.HandlerFunc
	DeleteLot    http.HandlerFunc

	Availability http.HandlerFunc
}

// NewRouter registers endpoints. auth guards everything identity-scoped;
// admin additionally gates the admin surface and runs inside auth.
func NewRouter(routes Routes, auth, admin Middleware) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", routes.Root)
	mux.Handle("GET /health", routes.Health)

	mux.Handle("GET /api/whoami", auth(routes.Whoami))
	mux.Handle("POST /api/sync-user", auth(routes.SyncUser))

	mux.Handle("GET /api/parking-locations", routes.ParkingLocations)

	mux.Handle("POST /api/book", auth(routes.Book))
	mux.Handle("GET /api/active-booking", auth(routes.ActiveBooking))
	mux.Handle("GET /api/my-bookings", auth(routes.MyBookings))
	mux.Handle("POST /api/release/{id}", auth(routes.Release))

	mux.Handle("GET /api/admin/analytics", auth(admin(routes.Analytics)))
	mux.Handle("GET /api/admin/revenue-daily", auth(admin(routes.DailyRevenue)))
	mux.Handle("POST /api/admin/add-lot", auth(admin(routes.AddLot)))
	mux.Handle("PUT /api/admin/update-lot/{id}", auth(admin(routes.UpdateLot)))
	mux.Handle("DELETE /api/admin/delete-lot/{id}", auth(admin(routes.DeleteLot)))

	if routes.Availability != nil {
		mux.Handle("GET /ws/availability", routes.Availability)
	}

	return mux
}
