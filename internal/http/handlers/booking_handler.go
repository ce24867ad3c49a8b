package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"parkhub/internal/http/middleware"
	"parkhub/internal/models"
)

// BookingService is the engine surface consumed by booking handlers.
type BookingService interface {
	Claim(ctx context.Context, userUID string, lotID int64, vehicleNumber string) (*models.Booking, error)
	GetActive(ctx context.Context, userUID string) (*models.Booking, error)
	History(ctx context.Context, userUID string) ([]models.BookingView, error)
	Release(ctx context.Context, userUID string, bookingID int64) (*models.ReleaseResult, error)
}

// BookingHandler holds the user-facing booking endpoints.
type BookingHandler struct {
	svc      BookingService
	validate *validator.Validate
	logger   *zap.Logger
}

// NewBookingHandler builds handler set.
func NewBookingHandler(svc BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{
		svc:      svc,
		validate: validator.New(),
		logger:   logger,
	}
}

type bookRequest struct {
	LotID         int64  `json:"lot_id" validate:"required,gt=0"`
	VehicleNumber string `json:"vehicle_number" validate:"required"`
}

// Book handles POST /api/book.
func (h *BookingHandler) Book(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "lot_id and vehicle_number are required")
		return
	}

	booking, err := h.svc.Claim(r.Context(), id.UID, req.LotID, req.VehicleNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Spot booked successfully",
		"booking_id": booking.ID,
	})
}

// Active handles GET /api/active-booking.
func (h *BookingHandler) Active(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	booking, err := h.svc.GetActive(r.Context(), id.UID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch active booking")
		return
	}
	if booking == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"active": false})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":     true,
		"booking_id": booking.ID,
		"start_time": booking.StartTime.UTC().Format(time.RFC3339),
	})
}

// History handles GET /api/my-bookings.
func (h *BookingHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	views, err := h.svc.History(r.Context(), id.UID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to fetch bookings")
		return
	}
	if views == nil {
		views = []models.BookingView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// Release handles POST /api/release/{id}.
func (h *BookingHandler) Release(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	bookingID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || bookingID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid booking id")
		return
	}

	result, err := h.svc.Release(r.Context(), id.UID, bookingID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	message := "Spot released"
	if result.AlreadyReleased {
		message = "Already released"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        message,
		"duration_hours": result.DurationHours,
		"cost":           result.Cost,
	})
}
