package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"parkhub/internal/models"
	"parkhub/internal/service"
)

// RegistryService is the lot management surface consumed by admin handlers.
type RegistryService interface {
	CreateLot(ctx context.Context, in service.CreateLotInput) (*models.ParkingLot, error)
	UpdatePrice(ctx context.Context, lotID int64, price float64) error
	DeleteLot(ctx context.Context, lotID int64) error
}

// ReportingService is the aggregation surface consumed by admin handlers.
type ReportingService interface {
	Analytics(ctx context.Context) (*models.Analytics, error)
	DailyRevenue(ctx context.Context) ([]models.DailyRevenue, error)
}

// AdminHandler holds the admin-gated endpoints.
type AdminHandler struct {
	registry  RegistryService
	reporting ReportingService
	validate  *validator.Validate
	logger    *zap.Logger
}

// NewAdminHandler builds handler set.
func NewAdminHandler(registry RegistryService, reporting ReportingService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		registry:  registry,
		reporting: reporting,
		validate:  validator.New(),
		logger:    logger,
	}
}

// Analytics handles GET /api/admin/analytics.
func (h *AdminHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.reporting.Analytics(r.Context())
	if err != nil {
		h.logger.Error("analytics query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

// DailyRevenue handles GET /api/admin/revenue-daily.
func (h *AdminHandler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	days, err := h.reporting.DailyRevenue(r.Context())
	if err != nil {
		h.logger.Error("daily revenue query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to compute daily revenue")
		return
	}
	if days == nil {
		days = []models.DailyRevenue{}
	}
	writeJSON(w, http.StatusOK, days)
}

type addLotRequest struct {
	Name  string  `json:"name" validate:"required"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Price float64 `json:"price" validate:"gte=0"`
	Spots int     `json:"spots" validate:"required,gt=0"`
}

// AddLot handles POST /api/admin/add-lot.
func (h *AdminHandler) AddLot(w http.ResponseWriter, r *http.Request) {
	var req addLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "name, non-negative price and a positive spot count are required")
		return
	}

	_, err := h.registry.CreateLot(r.Context(), service.CreateLotInput{
		Name:         req.Name,
		Latitude:     req.Lat,
		Longitude:    req.Lng,
		PricePerHour: req.Price,
		Spots:        req.Spots,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking lot added successfully"})
}

type updateLotRequest struct {
	Price *float64 `json:"price" validate:"required"`
}

// UpdateLot handles PUT /api/admin/update-lot/{id}.
func (h *AdminHandler) UpdateLot(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || lotID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid lot id")
		return
	}

	var req updateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Price required")
		return
	}

	if err := h.registry.UpdatePrice(r.Context(), lotID, *req.Price); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking lot updated"})
}

// DeleteLot handles DELETE /api/admin/delete-lot/{id}.
func (h *AdminHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	lotID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || lotID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid lot id")
		return
	}

	if err := h.registry.DeleteLot(r.Context(), lotID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking lot deleted"})
}
