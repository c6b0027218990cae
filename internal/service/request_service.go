package service

import (
	"context"
	"errors"
	"fmt"

	apperrors "github.com/driveu/backend/internal/errors"
	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/payments"
	"github.com/driveu/backend/internal/pricing"
	"github.com/driveu/backend/internal/repository"
	"github.com/driveu/backend/internal/routing"
)

type RequestService interface {
	Create(ctx context.Context, req *models.CreateRideRequestRequest) (*models.RideRequest, error)
	GetByID(ctx context.Context, id string) (*models.RideRequest, error)
	ListForTrip(ctx context.Context, tripID string) ([]*models.RideRequest, error)
	ListForRider(ctx context.Context, riderID string) ([]*models.RideRequest, error)
	// Withdraw is the rider backing out before the drive starts. The hold is
	// released and, if the request had been accepted, the trip reopens.
	Withdraw(ctx context.Context, requestID string) error
}

type requestService struct {
	requestRepo repository.RideRequestRepository
	tripRepo    repository.FutureTripRepository
	userRepo    repository.UserRepository
	quoter      routing.Quoter
	engine      *pricing.Engine
	gateway     payments.Gateway
	notifier    *Notifier
}

func NewRequestService(
	requestRepo repository.RideRequestRepository,
	tripRepo repository.FutureTripRepository,
	userRepo repository.UserRepository,
	quoter routing.Quoter,
	engine *pricing.Engine,
	gateway payments.Gateway,
	notif *Notifier,
) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		tripRepo:    tripRepo,
		userRepo:    userRepo,
		quoter:      quoter,
		engine:      engine,
		gateway:     gateway,
		notifier:    notif,
	}
}

func (s *requestService) Create(ctx context.Context, req *models.CreateRideRequestRequest) (*models.RideRequest, error) {
	trip, err := s.tripRepo.GetByID(ctx, req.TripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperrors.NotFound("trip")
	}
	if trip.IsFull {
		return nil, apperrors.TripFull()
	}
	if trip.DriverID == req.RiderID {
		return nil, apperrors.BadRequest("cannot request a seat on your own trip")
	}

	rider, err := s.userRepo.GetByID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}
	if rider == nil {
		return nil, apperrors.NotFound("rider")
	}

	exists, err := s.requestRepo.ExistsForTripAndRider(ctx, req.TripID, req.RiderID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.DuplicateRequest()
	}

	driver, err := s.userRepo.GetByID(ctx, trip.DriverID)
	if err != nil {
		return nil, err
	}
	if driver == nil || driver.CarMPG == nil {
		return nil, apperrors.NotFound("driver")
	}

	pickup := fmt.Sprintf("%f,%f", req.PickupLat, req.PickupLng)
	it := routing.PickupItinerary(trip.Origin, pickup, trip.Destination, trip.RoundTrip, trip.AvoidHighways, trip.AvoidTolls)
	legs, err := s.quoter.Quote(ctx, it)
	if err != nil {
		if errors.Is(err, apperrors.ErrRouteUnavailable) {
			return nil, apperrors.NoRouteFound()
		}
		return nil, err
	}
	if len(legs) < 2 || (trip.RoundTrip && len(legs) < 4) {
		return nil, apperrors.NoRouteFound()
	}

	pickupTime := trip.StartTime + int64(legs[0].Duration.Seconds())
	eta := pickupTime + int64(legs[1].Duration.Seconds())
	dropoffTime := eta
	if trip.RoundTrip {
		// After the dwell the driver retraces the route and drops the rider
		// where they were picked up.
		dropoffTime = eta + trip.TimeAtDestination + int64(legs[2].Duration.Seconds())
	}

	// The multiplier for round trips lives in the pricing engine, so both
	// distances here are the one-way stretch.
	quote := s.engine.Price(pricing.Inputs{
		TotalDistance: legs[0].Miles + legs[1].Miles,
		BaseDistance:  trip.DistanceMiles,
		MPG:           *driver.CarMPG,
		FuelPrice:     trip.GasPrice,
		PickupTime:    pickupTime,
		ETA:           eta,
		RoundTrip:     trip.RoundTrip,
	})

	authorizationID, err := s.gateway.Authorize(ctx, quote.RiderCost, "")
	if err != nil {
		return nil, apperrors.PaymentFailed()
	}

	// On a round trip the driver's last leg home is driven alone; the rider's
	// distance stops at the return to the pickup point.
	ridden := legs
	if trip.RoundTrip {
		ridden = legs[:3]
	}

	request := &models.RideRequest{
		TripID:          trip.ID,
		RiderID:         rider.ID,
		PickupAddress:   legs[0].EndAddress,
		PickupLat:       req.PickupLat,
		PickupLng:       req.PickupLng,
		RoundTrip:       trip.RoundTrip,
		PickupTime:      pickupTime,
		ETA:             eta,
		DropoffTime:     dropoffTime,
		DistanceMiles:   routing.TotalMiles(ridden),
		RiderCost:       quote.RiderCost,
		DriverPayout:    quote.DriverPayout,
		AuthorizationID: authorizationID,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.notifier.push(ctx, trip.DriverID, "New ride request", rider.Name+" wants to join your trip.")
	return request, nil
}

func (s *requestService) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.NotFound("request")
	}
	return request, nil
}

func (s *requestService) ListForTrip(ctx context.Context, tripID string) ([]*models.RideRequest, error) {
	return s.requestRepo.ListByTrip(ctx, tripID)
}

func (s *requestService) ListForRider(ctx context.Context, riderID string) ([]*models.RideRequest, error) {
	return s.requestRepo.ListByRider(ctx, riderID)
}

func (s *requestService) Withdraw(ctx context.Context, requestID string) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("request")
	}

	if request.IsUnderway() {
		return apperrors.Conflict("ride_underway", "cannot withdraw once the drive has started")
	}

	if err := s.gateway.Void(ctx, request.AuthorizationID); err != nil {
		return fmt.Errorf("voiding hold for request %s: %w", request.ID, err)
	}

	if request.Status == models.RequestStatusAccepted {
		if err := s.tripRepo.SetFull(ctx, request.TripID, false); err != nil {
			return err
		}
		s.notifier.push(ctx, tripDriverID(ctx, s.tripRepo, request.TripID), "Rider withdrew", "Your rider backed out; the seat is open again.")
	}

	return s.requestRepo.Delete(ctx, requestID)
}

func tripDriverID(ctx context.Context, tripRepo repository.FutureTripRepository, tripID string) string {
	trip, err := tripRepo.GetByID(ctx, tripID)
	if err != nil || trip == nil {
		return ""
	}
	return trip.DriverID
}
