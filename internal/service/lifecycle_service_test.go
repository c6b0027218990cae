package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/driveu/backend/internal/models"
)

type lifecycleEnv struct {
	users    *fakeUserRepo
	trips    *fakeFutureTripRepo
	requests *fakeRequestRepo
	archive  *fakeArchiveRepo
	gateway  *fakeGateway
	sender   *fakeSender
	svc      *lifecycleService
}

func newLifecycleEnv() *lifecycleEnv {
	users := newFakeUserRepo()
	trips := newFakeFutureTripRepo()
	requests := newFakeRequestRepo(trips)
	archive := newFakeArchiveRepo(requests, trips)
	gateway := newFakeGateway()
	sender := &fakeSender{}

	svc := NewLifecycleService(requests, trips, archive, users, gateway, nil,
		&Notifier{userRepo: users, sender: sender}).(*lifecycleService)
	svc.now = func() time.Time { return time.Unix(20_000, 0) }

	return &lifecycleEnv{users: users, trips: trips, requests: requests, archive: archive, gateway: gateway, sender: sender, svc: svc}
}

// seedPairing sets up a driver, a rider, a trip and a pending request.
func (e *lifecycleEnv) seedPairing(roundTrip bool) (*models.FutureTrip, *models.RideRequest) {
	ctx := context.Background()
	seedDriver(e.users, "d1")
	e.users.Create(ctx, &models.User{ID: "r1", Name: "Ria", FCMToken: "tok-r1"})

	trip := &models.FutureTrip{
		DriverID:          "d1",
		Origin:            "123 Origin St",
		Destination:       "456 Destination Ave",
		DestinationLat:    42.28,
		DestinationLng:    -83.74,
		StartTime:         10_000,
		ETA:               11_200,
		ETS:               11_200,
		TimeAtDestination: 600,
		RoundTrip:         roundTrip,
		DistanceMiles:     6,
	}
	if roundTrip {
		trip.ETS = 11_200 + 600 + 1_800
	}
	e.trips.Create(ctx, trip)

	req := &models.RideRequest{
		TripID:          trip.ID,
		RiderID:         "r1",
		PickupAddress:   "789 Pickup Rd",
		PickupLat:       42.30,
		PickupLng:       -83.70,
		RoundTrip:       roundTrip,
		PickupTime:      10_600,
		ETA:             11_200,
		DropoffTime:     11_200,
		DistanceMiles:   10,
		RiderCost:       4.00,
		DriverPayout:    3.20,
		AuthorizationID: "auth-hold",
	}
	e.requests.Create(ctx, req)
	return trip, req
}

func TestAcceptMarksTripFull(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	accepted, err := env.svc.Accept(ctx, req.ID)
	if err != nil {
		t.Fatalf("Accept: %v", err)
	}
	if accepted.Status != models.RequestStatusAccepted {
		t.Errorf("Status = %s", accepted.Status)
	}
	current, _ := env.trips.GetByID(ctx, trip.ID)
	if !current.IsFull {
		t.Error("trip not marked full after accept")
	}
	if titles := env.sender.titlesFor("tok-r1"); len(titles) != 1 {
		t.Errorf("rider notifications = %v", titles)
	}
}

func TestAcceptOnlyOnePerTrip(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.users.Create(ctx, &models.User{ID: "r2"})
	second := &models.RideRequest{TripID: trip.ID, RiderID: "r2", AuthorizationID: "auth-2"}
	env.requests.Create(ctx, second)

	if _, err := env.svc.Accept(ctx, req.ID); err != nil {
		t.Fatalf("first Accept: %v", err)
	}
	_, err := env.svc.Accept(ctx, second.ID)
	assertAPIError(t, err, "request_taken")
}

func TestAcceptRejectsOverlappingCommitment(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	// The rider already holds an accepted seat on a trip whose window
	// overlaps this one.
	otherTrip := &models.FutureTrip{DriverID: "d2", StartTime: trip.StartTime - 500, ETS: trip.StartTime + 500}
	env.trips.Create(ctx, otherTrip)
	otherReq := &models.RideRequest{TripID: otherTrip.ID, RiderID: "r1", AuthorizationID: "auth-other"}
	env.requests.Create(ctx, otherReq)
	env.requests.MarkAccepted(ctx, otherReq.ID, otherTrip.ID)

	_, err := env.svc.Accept(ctx, req.ID)
	assertAPIError(t, err, "overlapping_trips")
}

func TestRejectVoidsHoldAndDeletes(t *testing.T) {
	env := newLifecycleEnv()
	_, req := env.seedPairing(false)
	ctx := context.Background()

	if err := env.svc.Reject(ctx, req.ID); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if got := env.gateway.voidedIDs(); len(got) != 1 || got[0] != "auth-hold" {
		t.Errorf("voided = %v", got)
	}
	if r, _ := env.requests.GetByID(ctx, req.ID); r != nil {
		t.Error("request still exists after reject")
	}
}

func TestStartCapturesAndClearsPending(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.users.Create(ctx, &models.User{ID: "r2", FCMToken: "tok-r2"})
	env.users.Create(ctx, &models.User{ID: "r3", FCMToken: "tok-r3"})
	loser1 := &models.RideRequest{TripID: trip.ID, RiderID: "r2", AuthorizationID: "auth-l1"}
	loser2 := &models.RideRequest{TripID: trip.ID, RiderID: "r3", AuthorizationID: "auth-l2"}
	env.requests.Create(ctx, loser1)
	env.requests.Create(ctx, loser2)

	if _, err := env.svc.Accept(ctx, req.ID); err != nil {
		t.Fatalf("Accept: %v", err)
	}
	started, err := env.svc.Start(ctx, trip.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if started.Status != models.RequestStatusStarted {
		t.Errorf("Status = %s", started.Status)
	}
	if len(env.gateway.captured) != 1 || env.gateway.captured[0] != "auth-hold" {
		t.Errorf("captured = %v, want the accepted hold", env.gateway.captured)
	}
	voided := env.gateway.voidedIDs()
	if len(voided) != 2 {
		t.Errorf("voided %d pending holds, want 2", len(voided))
	}
	remaining, _ := env.requests.ListByTrip(ctx, trip.ID)
	if len(remaining) != 1 || remaining[0].ID != req.ID {
		t.Errorf("%d requests remain, want only the started one", len(remaining))
	}
	if titles := env.sender.titlesFor("tok-r2"); len(titles) != 1 {
		t.Errorf("timed-out rider notifications = %v", titles)
	}
}

func TestStartWithoutAcceptedRequest(t *testing.T) {
	env := newLifecycleEnv()
	trip, _ := env.seedPairing(false)

	_, err := env.svc.Start(context.Background(), trip.ID)
	assertAPIError(t, err, "bad_request")
}

func TestStartRetriesCaptureOnce(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.gateway.failCaptures = 1

	started, err := env.svc.Start(ctx, trip.ID)
	if err != nil {
		t.Fatalf("Start with one capture failure: %v", err)
	}
	if started.AuthorizationID == "auth-hold" {
		t.Error("authorization id not replaced after reauthorize")
	}
	current, _ := env.requests.GetByID(ctx, req.ID)
	if current.AuthorizationID != started.AuthorizationID {
		t.Error("new authorization id not persisted")
	}
	if len(env.gateway.captured) != 1 {
		t.Errorf("captured = %v", env.gateway.captured)
	}
}

func TestStartGivesUpAfterSecondCaptureFailure(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.gateway.failCaptures = 2

	_, err := env.svc.Start(ctx, trip.ID)
	assertAPIError(t, err, "payment_failed")

	current, _ := env.requests.GetByID(ctx, req.ID)
	if current.Status != models.RequestStatusAccepted {
		t.Errorf("Status = %s, want still accepted", current.Status)
	}
}

func TestArriveRequiresProximity(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.svc.Start(ctx, trip.ID)
	env.svc.PickUp(ctx, req.ID)

	// Two miles north of the destination
	err := env.svc.Arrive(ctx, req.ID, trip.DestinationLat+2.0/69.0, trip.DestinationLng)
	assertAPIError(t, err, "bad_request")

	current, _ := env.requests.GetByID(ctx, req.ID)
	if current.Status != models.RequestStatusPickedUp {
		t.Errorf("Status = %s, want picked_up", current.Status)
	}
}

func TestOneWayArriveArchives(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.svc.Start(ctx, trip.ID)
	env.svc.PickUp(ctx, req.ID)
	if err := env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng); err != nil {
		t.Fatalf("Arrive: %v", err)
	}

	archived, _ := env.archive.GetByRequestID(ctx, req.ID)
	if archived == nil {
		t.Fatal("no archived trip written")
	}
	if archived.RiderCost != 4.00 || archived.DriverPayout != 3.20 {
		t.Errorf("archived money = %.2f/%.2f", archived.RiderCost, archived.DriverPayout)
	}
	if archived.TimeAtDestination != 0 {
		t.Errorf("one-way dwell = %d, want 0", archived.TimeAtDestination)
	}
	if r, _ := env.requests.GetByID(ctx, req.ID); r != nil {
		t.Error("live request survived archival")
	}
	if tr, _ := env.trips.GetByID(ctx, trip.ID); tr != nil {
		t.Error("future trip survived archival")
	}
	if env.gateway.payouts["acct_d1"] != 3.20 {
		t.Errorf("payout = %v, want 3.20", env.gateway.payouts["acct_d1"])
	}
	if titles := env.sender.titlesFor("tok-r1"); len(titles) == 0 {
		t.Error("rider was never asked to rate")
	}
}

func TestRoundTripFullLifecycle(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(true)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	if _, err := env.svc.Start(ctx, trip.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := env.svc.PickUp(ctx, req.ID); err != nil {
		t.Fatalf("PickUp: %v", err)
	}

	env.svc.now = func() time.Time { return time.Unix(11_250, 0) }
	if err := env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng); err != nil {
		t.Fatalf("Arrive: %v", err)
	}

	// Round trips must not archive at the destination
	if archived, _ := env.archive.GetByRequestID(ctx, req.ID); archived != nil {
		t.Fatal("round trip archived at the destination")
	}

	// Dropping off before leaving the destination is out of order
	err := env.svc.DropOff(ctx, req.ID, req.PickupLat, req.PickupLng)
	assertAPIError(t, err, "invalid_transition")

	env.svc.now = func() time.Time { return time.Unix(12_100, 0) }
	if err := env.svc.Leave(ctx, req.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	// Far from the pickup point: refused
	err = env.svc.DropOff(ctx, req.ID, req.PickupLat+1, req.PickupLng)
	assertAPIError(t, err, "bad_request")

	if err := env.svc.DropOff(ctx, req.ID, req.PickupLat, req.PickupLng); err != nil {
		t.Fatalf("DropOff: %v", err)
	}

	archived, _ := env.archive.GetByRequestID(ctx, req.ID)
	if archived == nil {
		t.Fatal("no archived trip written")
	}
	if archived.TimeAtDestination != 900 {
		t.Errorf("recorded dwell = %d, want 900 (left minus the planned arrival)", archived.TimeAtDestination)
	}
	if !archived.RoundTrip {
		t.Error("archived trip lost the round-trip flag")
	}
}

func TestOneWayArriveReplayAfterArchiveFailure(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.svc.Start(ctx, trip.ID)
	env.svc.PickUp(ctx, req.ID)

	env.archive.failNext = errors.New("connection reset")
	if err := env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng); err == nil {
		t.Fatal("expected the first Arrive to surface the archive failure")
	}

	// The status advanced but nothing was archived; the verb must be
	// replayable, not stuck.
	current, _ := env.requests.GetByID(ctx, req.ID)
	if current.Status != models.RequestStatusAtDestination {
		t.Fatalf("Status = %s, want at_destination", current.Status)
	}
	if archived, _ := env.archive.GetByRequestID(ctx, req.ID); archived != nil {
		t.Fatal("archived despite the failure")
	}

	if err := env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng); err != nil {
		t.Fatalf("replayed Arrive: %v", err)
	}
	if archived, _ := env.archive.GetByRequestID(ctx, req.ID); archived == nil {
		t.Fatal("replay did not archive")
	}
	if r, _ := env.requests.GetByID(ctx, req.ID); r != nil {
		t.Error("live request survived the replayed archival")
	}
}

func TestArchiveReplaySettlesIntoSameRecord(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.svc.Start(ctx, trip.ID)
	env.svc.PickUp(ctx, req.ID)
	if err := env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng); err != nil {
		t.Fatalf("Arrive: %v", err)
	}

	first, _ := env.archive.GetByRequestID(ctx, req.ID)
	if first == nil {
		t.Fatal("no archived trip written")
	}

	// A retried final verb writes the same pairing again; the archive must
	// keep the original record.
	replay := &models.Trip{RequestID: req.ID, DriverID: "d1", RiderID: "r1", DropoffTime: 99_999}
	if err := env.archive.ArchivePairing(ctx, replay, trip.ID); err != nil {
		t.Fatalf("replayed ArchivePairing: %v", err)
	}

	settled, _ := env.archive.GetByRequestID(ctx, req.ID)
	if settled.ID != first.ID || settled.DropoffTime != first.DropoffTime {
		t.Errorf("replay rewrote the record: %+v", settled)
	}
	history, _ := env.svc.HistoryForDriver(ctx, "d1")
	if len(history) != 1 {
		t.Errorf("driver history has %d trips, want 1", len(history))
	}
}

func TestPickUpOutOfOrder(t *testing.T) {
	env := newLifecycleEnv()
	_, req := env.seedPairing(false)

	err := env.svc.PickUp(context.Background(), req.ID)
	assertAPIError(t, err, "invalid_transition")
}

func TestRateDriverRunningMean(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	// Driver already has one 4.0 review
	driver, _ := env.users.GetByID(ctx, "d1")
	driver.DriverRating = 4.0
	driver.DriverReviewCount = 1

	env.svc.Accept(ctx, req.ID)
	env.svc.Start(ctx, trip.ID)
	env.svc.PickUp(ctx, req.ID)
	env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng)

	archived, _ := env.archive.GetByRequestID(ctx, req.ID)
	if err := env.svc.RateDriver(ctx, archived.ID, 5); err != nil {
		t.Fatalf("RateDriver: %v", err)
	}

	driver, _ = env.users.GetByID(ctx, "d1")
	if driver.DriverRating != 4.5 || driver.DriverReviewCount != 2 {
		t.Errorf("rating = %.2f over %d reviews, want 4.50 over 2", driver.DriverRating, driver.DriverReviewCount)
	}

	err := env.svc.RateDriver(ctx, archived.ID, 1)
	assertAPIError(t, err, "already_rated")
}

func TestHistoryListsArchivedTrips(t *testing.T) {
	env := newLifecycleEnv()
	trip, req := env.seedPairing(false)
	ctx := context.Background()

	env.svc.Accept(ctx, req.ID)
	env.svc.Start(ctx, trip.ID)
	env.svc.PickUp(ctx, req.ID)
	env.svc.Arrive(ctx, req.ID, trip.DestinationLat, trip.DestinationLng)

	forDriver, _ := env.svc.HistoryForDriver(ctx, "d1")
	forRider, _ := env.svc.HistoryForRider(ctx, "r1")
	if len(forDriver) != 1 || len(forRider) != 1 {
		t.Errorf("history sizes = %d/%d, want 1/1", len(forDriver), len(forRider))
	}
}
