package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"parkhub/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyActive):
		writeError(w, http.StatusBadRequest, "Please release your current booking first")
	case errors.Is(err, service.ErrNoAvailability):
		writeError(w, http.StatusBadRequest, "No free spot")
	case errors.Is(err, service.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, service.ErrBookingNotFound):
		writeError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, service.ErrLotNotFound):
		writeError(w, http.StatusNotFound, "Parking lot not found")
	case errors.Is(err, service.ErrDuplicateLotName):
		writeError(w, http.StatusConflict, "Parking lot name already exists")
	case errors.Is(err, service.ErrLotInUse):
		writeError(w, http.StatusConflict, "Parking lot has active bookings")
	default:
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}
