package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/service"
	"github.com/driveu/backend/pkg/utils"
)

type RequestHandler struct {
	requestService   service.RequestService
	lifecycleService service.LifecycleService
	validate         *validator.Validate
}

func NewRequestHandler(requestService service.RequestService, lifecycleService service.LifecycleService) *RequestHandler {
	return &RequestHandler{
		requestService:   requestService,
		lifecycleService: lifecycleService,
		validate:         validator.New(),
	}
}

func (h *RequestHandler) RegisterRoutes(r chi.Router) {
	r.Post("/requests", h.Create)
	r.Get("/requests/rider/{riderID}", h.ListForRider)
	r.Get("/requests/{id}", h.GetRequest)
	r.Post("/requests/{id}/accept", h.Accept)
	r.Post("/requests/{id}/reject", h.Reject)
	r.Post("/requests/{id}/withdraw", h.Withdraw)
	r.Post("/requests/{id}/pickup", h.PickUp)
	r.Post("/requests/{id}/arrive", h.Arrive)
	r.Post("/requests/{id}/leave", h.Leave)
	r.Post("/requests/{id}/dropoff", h.DropOff)
}

// POST /v1/requests
func (h *RequestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		utils.BadRequest(w, err.Error())
		return
	}

	request, err := h.requestService.Create(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Created(w, request.ToResponse())
}

// GET /v1/requests/rider/{riderID}
func (h *RequestHandler) ListForRider(w http.ResponseWriter, r *http.Request) {
	riderID := chi.URLParam(r, "riderID")
	if riderID == "" {
		utils.BadRequest(w, "rider id is required")
		return
	}

	requests, err := h.requestService.ListForRider(r.Context(), riderID)
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

// GET /v1/requests/{id}
func (h *RequestHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	request, err := h.requestService.GetByID(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, request.ToResponse())
}

// POST /v1/requests/{id}/accept
func (h *RequestHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	request, err := h.lifecycleService.Accept(r.Context(), id)
	if err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, request.ToResponse())
}

// POST /v1/requests/{id}/reject
func (h *RequestHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	if err := h.lifecycleService.Reject(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	utils.NoContent(w)
}

// POST /v1/requests/{id}/withdraw
func (h *RequestHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	if err := h.requestService.Withdraw(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	utils.NoContent(w)
}

// POST /v1/requests/{id}/pickup
func (h *RequestHandler) PickUp(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	if err := h.lifecycleService.PickUp(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": models.RequestStatusPickedUp})
}

type locationPayload struct {
	Lat float64 `json:"lat" validate:"required,latitude"`
	Lng float64 `json:"lng" validate:"required,longitude"`
}

func (h *RequestHandler) decodeLocation(w http.ResponseWriter, r *http.Request) (locationPayload, bool) {
	var loc locationPayload
	if err := json.NewDecoder(r.Body).Decode(&loc); err != nil {
		utils.BadRequest(w, "invalid request body")
		return loc, false
	}
	if err := h.validate.Struct(loc); err != nil {
		utils.BadRequest(w, err.Error())
		return loc, false
	}
	return loc, true
}

// POST /v1/requests/{id}/arrive
//
// The driver reports reaching the destination; the body carries their
// current coordinates for the proximity gate.
func (h *RequestHandler) Arrive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	loc, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}

	if err := h.lifecycleService.Arrive(r.Context(), id, loc.Lat, loc.Lng); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": models.RequestStatusAtDestination})
}

// POST /v1/requests/{id}/leave
func (h *RequestHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	if err := h.lifecycleService.Leave(r.Context(), id); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": models.RequestStatusLeftDestination})
}

// POST /v1/requests/{id}/dropoff
func (h *RequestHandler) DropOff(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.BadRequest(w, "request id is required")
		return
	}

	loc, ok := h.decodeLocation(w, r)
	if !ok {
		return
	}

	if err := h.lifecycleService.DropOff(r.Context(), id, loc.Lat, loc.Lng); err != nil {
		handleError(w, err)
		return
	}

	utils.Success(w, http.StatusOK, map[string]string{"status": models.RequestStatusDroppedOff})
}
