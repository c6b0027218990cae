package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	apperrors "github.com/driveu/backend/internal/errors"
	"github.com/driveu/backend/internal/geoutil"
	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/payments"
	"github.com/driveu/backend/internal/repository"
	"github.com/driveu/backend/internal/scheduler"
)

// LifecycleService drives an accepted pairing from acceptance to the
// archived trip record, keeping the payment hold in step with every edge.
type LifecycleService interface {
	Accept(ctx context.Context, requestID string) (*models.RideRequest, error)
	Reject(ctx context.Context, requestID string) error
	// Start captures the accepted rider's hold, voids everyone else's, and
	// puts the drive in motion.
	Start(ctx context.Context, tripID string) (*models.RideRequest, error)
	PickUp(ctx context.Context, requestID string) error
	// Arrive is gated on the driver actually being at the destination. For
	// one-way pairings it also archives the trip.
	Arrive(ctx context.Context, requestID string, lat, lng float64) error
	Leave(ctx context.Context, requestID string) error
	DropOff(ctx context.Context, requestID string, lat, lng float64) error
	RateDriver(ctx context.Context, tripID string, score float64) error
	RateRider(ctx context.Context, tripID string, score float64) error
	HistoryForDriver(ctx context.Context, driverID string) ([]*models.Trip, error)
	HistoryForRider(ctx context.Context, riderID string) ([]*models.Trip, error)
}

type lifecycleService struct {
	requestRepo repository.RideRequestRepository
	tripRepo    repository.FutureTripRepository
	archiveRepo repository.TripRepository
	userRepo    repository.UserRepository
	gateway     payments.Gateway
	timers      *scheduler.Scheduler
	notifier    *Notifier
	now         func() time.Time
}

func NewLifecycleService(
	requestRepo repository.RideRequestRepository,
	tripRepo repository.FutureTripRepository,
	archiveRepo repository.TripRepository,
	userRepo repository.UserRepository,
	gateway payments.Gateway,
	timers *scheduler.Scheduler,
	notif *Notifier,
) LifecycleService {
	return &lifecycleService{
		requestRepo: requestRepo,
		tripRepo:    tripRepo,
		archiveRepo: archiveRepo,
		userRepo:    userRepo,
		gateway:     gateway,
		timers:      timers,
		notifier:    notif,
		now:         time.Now,
	}
}

func (s *lifecycleService) Accept(ctx context.Context, requestID string) (*models.RideRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, apperrors.NotFound("request")
	}
	if !request.CanTransitionTo(models.RequestStatusAccepted) {
		return nil, apperrors.InvalidTransition(request.Status, models.RequestStatusAccepted)
	}

	trip, err := s.tripRepo.GetByID(ctx, request.TripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperrors.NotFound("trip")
	}

	// A rider cannot sit in two cars at once: reject if any of their other
	// accepted requests rides a trip whose window overlaps this one.
	if err := s.checkRiderOverlap(ctx, request, trip); err != nil {
		return nil, err
	}

	accepted, err := s.requestRepo.MarkAccepted(ctx, requestID, trip.ID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, apperrors.RequestTaken()
	}

	request.Status = models.RequestStatusAccepted
	s.notifier.push(ctx, request.RiderID, "Request accepted", "Your driver accepted your request.")
	return request, nil
}

func (s *lifecycleService) checkRiderOverlap(ctx context.Context, request *models.RideRequest, trip *models.FutureTrip) error {
	others, err := s.requestRepo.ListByRider(ctx, request.RiderID)
	if err != nil {
		return err
	}
	for _, other := range others {
		if other.ID == request.ID || !other.IsAccepted() {
			continue
		}
		otherTrip, err := s.tripRepo.GetByID(ctx, other.TripID)
		if err != nil {
			return err
		}
		if otherTrip == nil {
			continue
		}
		if geoutil.IntervalsOverlap(trip.StartTime, trip.ETS, otherTrip.StartTime, otherTrip.ETS) {
			return apperrors.OverlappingTrips()
		}
	}
	return nil
}

func (s *lifecycleService) Reject(ctx context.Context, requestID string) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("request")
	}
	if request.Status != models.RequestStatusPending {
		return apperrors.InvalidTransition(request.Status, "rejected")
	}

	if err := s.gateway.Void(ctx, request.AuthorizationID); err != nil {
		return fmt.Errorf("voiding hold for request %s: %w", request.ID, err)
	}

	if err := s.requestRepo.Delete(ctx, requestID); err != nil {
		return err
	}

	s.notifier.push(ctx, request.RiderID, "Request declined", "The driver declined your request.")
	return nil
}

func (s *lifecycleService) Start(ctx context.Context, tripID string) (*models.RideRequest, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, apperrors.NotFound("trip")
	}

	requests, err := s.requestRepo.ListByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}

	var accepted *models.RideRequest
	var pending []*models.RideRequest
	for _, r := range requests {
		switch r.Status {
		case models.RequestStatusAccepted:
			accepted = r
		case models.RequestStatusPending:
			pending = append(pending, r)
		}
	}
	if accepted == nil {
		return nil, apperrors.BadRequest("no accepted request to start")
	}

	// The rider is committed now: settle their hold. One fresh hold is
	// attempted if the original went stale; a second failure blocks the
	// start so money and state never disagree.
	if err := s.gateway.Capture(ctx, accepted.AuthorizationID); err != nil {
		log.Printf("capture of %s failed, reauthorizing: %v", accepted.AuthorizationID, err)
		newAuth, authErr := s.gateway.Authorize(ctx, accepted.RiderCost, "")
		if authErr != nil {
			return nil, apperrors.PaymentFailed()
		}
		if err := s.requestRepo.SetAuthorization(ctx, accepted.ID, newAuth); err != nil {
			return nil, err
		}
		if err := s.gateway.Capture(ctx, newAuth); err != nil {
			return nil, apperrors.PaymentFailed()
		}
		accepted.AuthorizationID = newAuth
	}

	ok, err := s.requestRepo.TransitionStatus(ctx, accepted.ID, models.RequestStatusAccepted, models.RequestStatusStarted)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.InvalidTransition(accepted.Status, models.RequestStatusStarted)
	}
	accepted.Status = models.RequestStatusStarted

	s.voidPending(ctx, pending)

	if s.timers != nil {
		s.timers.Cancel(reminderKey(tripID))
		s.timers.Cancel(staleKey(tripID))
	}

	s.notifier.push(ctx, accepted.RiderID, "Driver on the way", "Your driver has started the trip.")
	return accepted, nil
}

// voidPending releases the holds of the riders who didn't make the cut. The
// voids run concurrently; a failed void is logged and retried by support
// tooling rather than blocking the drive.
func (s *lifecycleService) voidPending(ctx context.Context, pending []*models.RideRequest) {
	var wg sync.WaitGroup
	for _, r := range pending {
		wg.Add(1)
		go func(r *models.RideRequest) {
			defer wg.Done()
			if err := s.gateway.Void(ctx, r.AuthorizationID); err != nil {
				log.Printf("voiding hold for request %s failed: %v", r.ID, err)
			}
		}(r)
	}
	wg.Wait()

	for _, r := range pending {
		if err := s.requestRepo.Delete(ctx, r.ID); err != nil {
			log.Printf("deleting timed-out request %s failed: %v", r.ID, err)
			continue
		}
		s.notifier.push(ctx, r.RiderID, "Request timed out", "The trip started without your request being accepted.")
	}
}

func (s *lifecycleService) PickUp(ctx context.Context, requestID string) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("request")
	}
	if !request.CanTransitionTo(models.RequestStatusPickedUp) {
		return apperrors.InvalidTransition(request.Status, models.RequestStatusPickedUp)
	}

	ok, err := s.requestRepo.MarkPickedUp(ctx, requestID, s.now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InvalidTransition(request.Status, models.RequestStatusPickedUp)
	}
	return nil
}

func (s *lifecycleService) Arrive(ctx context.Context, requestID string, lat, lng float64) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("request")
	}

	trip, err := s.tripRepo.GetByID(ctx, request.TripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return apperrors.NotFound("trip")
	}

	if !geoutil.WithinRadius(trip.DestinationLat, trip.DestinationLng, geoutil.ArrivalToleranceMiles, lat, lng) {
		return apperrors.BadRequest("not at the destination yet")
	}

	if !request.CanTransitionTo(models.RequestStatusAtDestination) {
		// A one-way arrival whose archive step failed is already parked at
		// the destination; replaying the verb finishes the job.
		if !trip.RoundTrip && request.Status == models.RequestStatusAtDestination {
			return s.archive(ctx, trip, request)
		}
		return apperrors.InvalidTransition(request.Status, models.RequestStatusAtDestination)
	}

	arrivedAt := s.now().Unix()
	ok, err := s.requestRepo.MarkArrived(ctx, requestID, arrivedAt)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InvalidTransition(request.Status, models.RequestStatusAtDestination)
	}

	if !trip.RoundTrip {
		request.Status = models.RequestStatusAtDestination
		request.ArrivedAt = &arrivedAt
		return s.archive(ctx, trip, request)
	}

	// Round trip: remind both parties when the planned dwell runs out.
	if s.timers != nil {
		driverID, riderID := trip.DriverID, request.RiderID
		s.timers.Schedule(dwellKey(requestID), time.Duration(trip.TimeAtDestination)*time.Second, func() {
			ctx := context.Background()
			current, err := s.requestRepo.GetByID(ctx, requestID)
			if err != nil || current == nil || current.Status != models.RequestStatusAtDestination {
				return
			}
			s.notifier.push(ctx, driverID, "Time to head back", "Your planned time at the destination is up.")
			s.notifier.push(ctx, riderID, "Time to head back", "Your ride home is leaving soon.")
		})
	}
	return nil
}

func (s *lifecycleService) Leave(ctx context.Context, requestID string) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("request")
	}
	if !request.CanTransitionTo(models.RequestStatusLeftDestination) {
		return apperrors.InvalidTransition(request.Status, models.RequestStatusLeftDestination)
	}

	ok, err := s.requestRepo.MarkLeft(ctx, requestID, s.now().Unix())
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.InvalidTransition(request.Status, models.RequestStatusLeftDestination)
	}

	if s.timers != nil {
		s.timers.Cancel(dwellKey(requestID))
	}
	return nil
}

func (s *lifecycleService) DropOff(ctx context.Context, requestID string, lat, lng float64) error {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return apperrors.NotFound("request")
	}
	if !request.CanTransitionTo(models.RequestStatusDroppedOff) {
		return apperrors.InvalidTransition(request.Status, models.RequestStatusDroppedOff)
	}

	// Round trips end where they began: at the rider's pickup point.
	if !geoutil.WithinRadius(request.PickupLat, request.PickupLng, geoutil.ArrivalToleranceMiles, lat, lng) {
		return apperrors.BadRequest("not at the drop-off point yet")
	}

	trip, err := s.tripRepo.GetByID(ctx, request.TripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return apperrors.NotFound("trip")
	}

	return s.archive(ctx, trip, request)
}

// archive writes the permanent trip record, removes the live rows, pays the
// driver, and asks the rider to rate. Keyed on the request id, so replays of
// the final verb settle into the same record.
func (s *lifecycleService) archive(ctx context.Context, trip *models.FutureTrip, request *models.RideRequest) error {
	// Dwell is measured against the planned arrival, not the actual one, so a
	// late drive doesn't eat into the recorded time at the destination.
	dwell := int64(0)
	if request.LeftAt != nil {
		dwell = *request.LeftAt - request.ETA
	}

	archived := &models.Trip{
		RequestID:         request.ID,
		DriverID:          trip.DriverID,
		RiderID:           request.RiderID,
		Origin:            trip.Origin,
		Destination:       trip.Destination,
		PickupAddress:     request.PickupAddress,
		StartTime:         trip.StartTime,
		PickupTime:        request.PickupTime,
		ETA:               request.ETA,
		DropoffTime:       s.now().Unix(),
		TimeAtDestination: dwell,
		RoundTrip:         request.RoundTrip,
		DistanceMiles:     request.DistanceMiles,
		RiderCost:         request.RiderCost,
		DriverPayout:      request.DriverPayout,
	}

	if err := s.archiveRepo.ArchivePairing(ctx, archived, trip.ID); err != nil {
		return err
	}

	if s.timers != nil {
		s.timers.Cancel(dwellKey(request.ID))
		s.timers.Cancel(reminderKey(trip.ID))
		s.timers.Cancel(staleKey(trip.ID))
	}

	// The record is settled; payout and notifications must not undo it.
	driver, err := s.userRepo.GetByID(ctx, trip.DriverID)
	if err == nil && driver != nil && driver.PayoutAccount != nil {
		if err := s.gateway.Payout(ctx, *driver.PayoutAccount, request.DriverPayout); err != nil {
			log.Printf("payout of %.2f to driver %s failed: %v", request.DriverPayout, driver.ID, err)
		}
	}

	s.notifier.push(ctx, request.RiderID, "Trip complete", "How was your ride? Rate your driver.")
	return nil
}

func (s *lifecycleService) RateDriver(ctx context.Context, tripID string, score float64) error {
	trip, err := s.archiveRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return apperrors.NotFound("trip")
	}

	ok, err := s.archiveRepo.MarkDriverRated(ctx, tripID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Conflict("already_rated", "this trip's driver has already been rated")
	}

	return s.userRepo.ApplyDriverRating(ctx, trip.DriverID, score)
}

func (s *lifecycleService) RateRider(ctx context.Context, tripID string, score float64) error {
	trip, err := s.archiveRepo.GetByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip == nil {
		return apperrors.NotFound("trip")
	}

	ok, err := s.archiveRepo.MarkRiderRated(ctx, tripID)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.Conflict("already_rated", "this trip's rider has already been rated")
	}

	return s.userRepo.ApplyRiderRating(ctx, trip.RiderID, score)
}

func (s *lifecycleService) HistoryForDriver(ctx context.Context, driverID string) ([]*models.Trip, error) {
	return s.archiveRepo.ListByDriver(ctx, driverID)
}

func (s *lifecycleService) HistoryForRider(ctx context.Context, riderID string) ([]*models.Trip, error) {
	return s.archiveRepo.ListByRider(ctx, riderID)
}
