package handlers

import (
	"context"
	"net/http"

	"parkhub/internal/models"
)

// LotLister is the public lot listing surface.
type LotLister interface {
	ListLots(ctx context.Context) ([]models.LotAvailability, error)
}

// NewParkingLocationsHandler returns GET /api/parking-locations.
func NewParkingLocationsHandler(svc LotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lots, err := svc.ListLots(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list parking lots")
			return
		}
		if lots == nil {
			lots = []models.LotAvailability{}
		}
		writeJSON(w, http.StatusOK, lots)
	}
}
