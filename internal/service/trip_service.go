package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	apperrors "github.com/driveu/backend/internal/errors"
	"github.com/driveu/backend/internal/fuel"
	"github.com/driveu/backend/internal/geoutil"
	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/payments"
	"github.com/driveu/backend/internal/repository"
	"github.com/driveu/backend/internal/routing"
	"github.com/driveu/backend/internal/scheduler"
)

type TripService interface {
	Publish(ctx context.Context, req *models.PublishTripRequest) (*models.FutureTrip, error)
	GetByID(ctx context.Context, id string) (*models.FutureTrip, error)
	ListForDriver(ctx context.Context, driverID string) ([]*models.FutureTrip, error)
	// Discover lists joinable trips whose destination falls within
	// radiusMiles of the rider's target.
	Discover(ctx context.Context, riderID string, lat, lng, radiusMiles float64, roundTrip bool) ([]*models.FutureTrip, error)
	// Cancel voids every live request hold, tells the riders, and removes
	// the trip.
	Cancel(ctx context.Context, tripID string) error
}

type tripService struct {
	tripRepo     repository.FutureTripRepository
	requestRepo  repository.RideRequestRepository
	userRepo     repository.UserRepository
	quoter       routing.Quoter
	fuelSource   fuel.PriceSource
	gateway      payments.Gateway
	timers       *scheduler.Scheduler
	notifier     *Notifier
	reminderLead time.Duration
	staleGrace   time.Duration
}

func NewTripService(
	tripRepo repository.FutureTripRepository,
	requestRepo repository.RideRequestRepository,
	userRepo repository.UserRepository,
	quoter routing.Quoter,
	fuelSource fuel.PriceSource,
	gateway payments.Gateway,
	timers *scheduler.Scheduler,
	notif *Notifier,
	reminderLead, staleGrace time.Duration,
) TripService {
	return &tripService{
		tripRepo:     tripRepo,
		requestRepo:  requestRepo,
		userRepo:     userRepo,
		quoter:       quoter,
		fuelSource:   fuelSource,
		gateway:      gateway,
		timers:       timers,
		notifier:     notif,
		reminderLead: reminderLead,
		staleGrace:   staleGrace,
	}
}

func (s *tripService) Publish(ctx context.Context, req *models.PublishTripRequest) (*models.FutureTrip, error) {
	driver, err := s.userRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return nil, apperrors.NotFound("driver")
	}
	if !driver.IsDriver {
		return nil, apperrors.BadRequest("user is not a registered driver")
	}

	it := routing.TripItinerary(req.Origin, req.Destination, req.RoundTrip, req.AvoidHighways, req.AvoidTolls)
	legs, err := s.quoter.Quote(ctx, it)
	if err != nil {
		if errors.Is(err, apperrors.ErrRouteUnavailable) {
			return nil, apperrors.NoRouteFound()
		}
		return nil, err
	}

	eta := req.StartTime + int64(legs[0].Duration.Seconds())
	ets := eta
	dwell := int64(0)
	if req.RoundTrip {
		if len(legs) < 2 {
			return nil, apperrors.NoRouteFound()
		}
		dwell = req.TimeAtDestination
		ets = eta + dwell + int64(legs[1].Duration.Seconds())
	}

	// A driver can only be in one place at a time: the new window must not
	// touch any trip they already published.
	existing, err := s.tripRepo.ListByDriver(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		if geoutil.IntervalsOverlap(req.StartTime, ets, t.StartTime, t.ETS) {
			return nil, apperrors.OverlappingTrips()
		}
	}

	gasPrice, err := s.fuelSource.GasPrice(ctx, legs[0].Start.Lat, legs[0].Start.Lng)
	if err != nil {
		return nil, err
	}

	trip := &models.FutureTrip{
		DriverID:          req.DriverID,
		Origin:            legs[0].StartAddress,
		OriginLat:         legs[0].Start.Lat,
		OriginLng:         legs[0].Start.Lng,
		Destination:       legs[0].EndAddress,
		DestinationLat:    legs[0].End.Lat,
		DestinationLng:    legs[0].End.Lng,
		StartTime:         req.StartTime,
		ETA:               eta,
		ETS:               ets,
		TimeAtDestination: dwell,
		RoundTrip:         req.RoundTrip,
		AvoidHighways:     req.AvoidHighways,
		AvoidTolls:        req.AvoidTolls,
		DistanceMiles:     legs[0].Miles,
		GasPrice:          gasPrice,
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	s.scheduleDeparture(trip)
	return trip, nil
}

// scheduleDeparture arms the pre-departure reminder and the stale-trip
// cleanup. Both re-read state when they fire; a trip that was cancelled or
// started in the meantime is left alone.
func (s *tripService) scheduleDeparture(trip *models.FutureTrip) {
	if s.timers == nil {
		return
	}

	tripID := trip.ID
	startsIn := time.Until(time.Unix(trip.StartTime, 0))

	if startsIn > s.reminderLead {
		s.timers.Schedule(reminderKey(tripID), startsIn-s.reminderLead, func() {
			ctx := context.Background()
			current, err := s.tripRepo.GetByID(ctx, tripID)
			if err != nil || current == nil {
				return
			}
			s.notifier.push(ctx, current.DriverID, "Departure soon", "Your trip leaves in a few minutes.")
		})
	}

	s.timers.Schedule(staleKey(tripID), startsIn+s.staleGrace, func() {
		ctx := context.Background()
		current, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil || current == nil {
			return
		}
		requests, err := s.requestRepo.ListByTrip(ctx, tripID)
		if err != nil {
			return
		}
		for _, r := range requests {
			if r.IsUnderway() {
				return
			}
		}
		if err := s.Cancel(ctx, tripID); err != nil {
			log.Printf("stale trip %s cleanup failed: %v", tripID, err)
		}
	})
}

func (s *tripService) GetByID(ctx context.Context, id string) (*models.FutureTrip, error) {
	trip, err := s.tripRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperrors.NotFound("trip")
	}
	return trip, nil
}

func (s *tripService) ListForDriver(ctx context.Context, driverID string) ([]*models.FutureTrip, error) {
	return s.tripRepo.ListByDriver(ctx, driverID)
}

func (s *tripService) Discover(ctx context.Context, riderID string, lat, lng, radiusMiles float64, roundTrip bool) ([]*models.FutureTrip, error) {
	candidates, err := s.tripRepo.ListCandidates(ctx, riderID, roundTrip, time.Now().Unix())
	if err != nil {
		return nil, err
	}

	matches := make([]*models.FutureTrip, 0, len(candidates))
	for _, t := range candidates {
		if geoutil.WithinRadius(lat, lng, radiusMiles, t.DestinationLat, t.DestinationLng) {
			matches = append(matches, t)
		}
	}
	return matches, nil
}

func (s *tripService) Cancel(ctx context.Context, tripID string) error {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return apperrors.NotFound("trip")
	}

	requests, err := s.requestRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return err
	}

	for _, r := range requests {
		if r.IsUnderway() {
			return apperrors.Conflict("trip_underway", "cannot cancel a trip that has started")
		}
	}

	// Every live request still holds the rider's money; release before
	// anything is deleted so a failure leaves the trip intact.
	for _, r := range requests {
		if err := s.gateway.Void(ctx, r.AuthorizationID); err != nil {
			return fmt.Errorf("voiding hold for request %s: %w", r.ID, err)
		}
	}

	for _, r := range requests {
		s.notifier.push(ctx, r.RiderID, "Trip cancelled", "The driver cancelled this trip.")
		if err := s.requestRepo.Delete(ctx, r.ID); err != nil {
			return err
		}
	}

	if err := s.tripRepo.Delete(ctx, tripID); err != nil {
		return err
	}

	if s.timers != nil {
		s.timers.Cancel(reminderKey(tripID))
		s.timers.Cancel(staleKey(tripID))
	}
	return nil
}

func reminderKey(tripID string) string { return "reminder:" + tripID }
func staleKey(tripID string) string    { return "stale:" + tripID }
func dwellKey(requestID string) string { return "dwell:" + requestID }
