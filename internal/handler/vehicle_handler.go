package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/driveu/backend/internal/vehicle"
	"github.com/driveu/backend/pkg/utils"
)

// VehicleHandler exposes the read-only car catalog clients use when a driver
// registers their vehicle.
type VehicleHandler struct {
	catalog vehicle.Catalog
}

func NewVehicleHandler(catalog vehicle.Catalog) *VehicleHandler {
	return &VehicleHandler{catalog: catalog}
}

func (h *VehicleHandler) RegisterRoutes(r chi.Router) {
	r.Get("/vehicles/makes", h.Makes)
	r.Get("/vehicles/makes/{make}/models", h.Models)
}

// GET /v1/vehicles/makes
func (h *VehicleHandler) Makes(w http.ResponseWriter, r *http.Request) {
	makes, err := h.catalog.Makes(r.Context())
	if err != nil {
		utils.InternalError(w, "vehicle catalog unavailable")
		return
	}
	utils.Success(w, http.StatusOK, makes)
}

// GET /v1/vehicles/makes/{make}/models
func (h *VehicleHandler) Models(w http.ResponseWriter, r *http.Request) {
	carMake := chi.URLParam(r, "make")
	if carMake == "" {
		utils.BadRequest(w, "make is required")
		return
	}

	vehicleModels, err := h.catalog.ModelsForMake(r.Context(), carMake)
	if err != nil {
		utils.InternalError(w, "vehicle catalog unavailable")
		return
	}
	utils.Success(w, http.StatusOK, vehicleModels)
}
