package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/service"
	"github.com/driveu/backend/pkg/utils"
)

// HistoryHandler serves archived trips and their post-trip ratings.
type HistoryHandler struct {
	lifecycleService service.LifecycleService
	validate         *validator.Validate
}

func NewHistoryHandler(lifecycleService service.LifecycleService) *HistoryHandler {
	return &HistoryHandler{
		lifecycleService: lifecycleService,
		validate:         validator.New(),
	}
}

func (h *HistoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/history/driver/{driverID}", h.ListForDriver)
	r.Get("/history/rider/{riderID}", h.ListForRider)
	r.Post("/history/{id}/rate-driver", h.RateDriver)
	r.Post("/history/{id}/rate-rider", h.RateRider)
}

// GET /v1/history/driver/{driverID}
func (h *HistoryHandler) ListForDriver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverID")
	if driverID == "" {
		utils.BadRequest(w, "driver id is required")
		return
	}

	trips, err := h.lifecycleService.HistoryForDriver(r.Context(), driverID)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, toTripResponses(trips))
}

// GET /v1/history/rider/{riderID}
func (h *HistoryHandler) ListForRider(w http.ResponseWriter, r *http.Request) {
	riderID := chi.URLParam(r, "riderID")
	if riderID == "" {
		utils.BadRequest(w, "rider id is required")
		return
	}

	trips, err := h.lifecycleService.HistoryForRider(r.Context(), riderID)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, toTripResponses(trips))
}

// POST /v1/history/{id}/rate-driver
func (h *HistoryHandler) RateDriver(w http.ResponseWriter, r *http.Request) {
	h.rate(w, r, h.lifecycleService.RateDriver)
}

// POST /v1/history/{id}/rate-rider
func (h *HistoryHandler) RateRider(w http.ResponseWriter, r *http.Request) {
	h.rate(w, r, h.lifecycleService.RateRider)
}

func (h *HistoryHandler) rate(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, tripID string, score float64) error) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "trip id is required")
		return
	}

	var req models.RateTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	if err := apply(r.Context(), id, req.Score); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": "rated"})
}

func toTripResponses(trips []*models.Trip) []*models.TripResponse {
	responses := make([]*models.TripResponse, 0, len(trips))
	for _, t := range trips {
		responses = append(responses, t.ToResponse())
	}
	return responses
}
