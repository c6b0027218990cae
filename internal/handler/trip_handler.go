package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/service"
	"github.com/driveu/backend/pkg/utils"
)

type TripHandler struct {
	tripService      service.TripService
	requestService   service.RequestService
	lifecycleService service.LifecycleService
	defaultRadius    float64
	validate         *validator.Validate
}

func NewTripHandler(
	tripService service.TripService,
	requestService service.RequestService,
	lifecycleService service.LifecycleService,
	defaultRadius float64,
) *TripHandler {
	return &TripHandler{
		tripService:      tripService,
		requestService:   requestService,
		lifecycleService: lifecycleService,
		defaultRadius:    defaultRadius,
		validate:         validator.New(),
	}
}

func (h *TripHandler) RegisterRoutes(r chi.Router) {
	r.Post("/trips", h.Publish)
	r.Get("/trips/discover", h.Discover)
	r.Get("/trips/driver/{driverID}", h.ListForDriver)
	r.Get("/trips/{id}", h.GetTrip)
	r.Get("/trips/{id}/requests", h.ListRequests)
	r.Post("/trips/{id}/start", h.Start)
	r.Delete("/trips/{id}", h.Cancel)
}

// POST /v1/trips
func (h *TripHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req models.PublishTripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	trip, err := h.tripService.Publish(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, trip.ToResponse())
}

// GET /v1/trips/discover?rider_id=...&lat=...&lng=...&radius=...&round_trip=...
func (h *TripHandler) Discover(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	riderID := q.Get("rider_id")
	if riderID == "" {
		utils.BadRequest(w, "rider_id is required")
		return
	}

	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		utils.BadRequest(w, "lat and lng are required coordinates")
		return
	}

	radius := h.defaultRadius
	if raw := q.Get("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			utils.BadRequest(w, "radius must be a positive number of miles")
			return
		}
		radius = parsed
	}

	roundTrip := false
	if raw := q.Get("round_trip"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			utils.BadRequest(w, "round_trip must be a boolean")
			return
		}
		roundTrip = parsed
	}

	trips, err := h.tripService.Discover(r.Context(), riderID, lat, lng, radius, roundTrip)
	if err != nil {
		handleError(w, err)
		return
	}

	responses := make([]*models.FutureTripResponse, 0, len(trips))
	for _, t := range trips {
		responses = append(responses, t.ToResponse())
	}
	utils.Success(w, http.StatusOK, responses)
}

// GET /v1/trips/driver/{driverID}
func (h *TripHandler) ListForDriver(w http.ResponseWriter, r *http.Request) {
	driverID := chi.URLParam(r, "driverID")
	if driverID == "" {
		utils.BadRequest(w, "driver id is required")
		return
	}

	trips, err := h.tripService.ListForDriver(r.Context(), driverID)
	if err != nil {
		handleError(w, err)
		return
	}

	responses := make([]*models.FutureTripResponse, 0, len(trips))
	for _, t := range trips {
		responses = append(responses, t.ToResponse())
	}
	utils.Success(w, http.StatusOK, responses)
}

// GET /v1/trips/{id}
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "trip id is required")
		return
	}

	trip, err := h.tripService.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, trip.ToResponse())
}

// GET /v1/trips/{id}/requests
func (h *TripHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "trip id is required")
		return
	}

	requests, err := h.requestService.ListForTrip(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	responses := make([]*models.RideRequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, req.ToResponse())
	}
	utils.Success(w, http.StatusOK, responses)
}

// POST /v1/trips/{id}/start
func (h *TripHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "trip id is required")
		return
	}

	request, err := h.lifecycleService.Start(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, request.ToResponse())
}

// DELETE /v1/trips/{id}
func (h *TripHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "trip id is required")
		return
	}

	if err := h.tripService.Cancel(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	utils.NoContent(w)
}
