package handler

import (
	"errors"
	"net/http"

	apperrors "github.com/driveu/backend/internal/errors"
	"github.com/driveu/backend/pkg/utils"
)

func handleError(w http.ResponseWriter, err error) {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		utils.Error(w, apiErr)
		return
	}

	// Check for specific errors
	switch {
	case errors.Is(err, apperrors.ErrRouteUnavailable):
		utils.Error(w, apperrors.NoRouteFound())
	case errors.Is(err, apperrors.ErrOverlappingTrips):
		utils.Error(w, apperrors.OverlappingTrips())
	case errors.Is(err, apperrors.ErrDuplicateRequest):
		utils.Error(w, apperrors.DuplicateRequest())
	case errors.Is(err, apperrors.ErrTripFull):
		utils.Error(w, apperrors.TripFull())
	case errors.Is(err, apperrors.ErrPaymentFailed):
		utils.Error(w, apperrors.PaymentFailed())
	default:
		utils.InternalError(w, "internal server error")
	}
}
