package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/routing"
)

// In-memory fakes for the repositories and collaborators. They mirror the
// conditional-update semantics of the SQL implementations.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == "" {
		user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByAuthUID(ctx context.Context, authUID string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.AuthUID == authUID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateFCMToken(ctx context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.FCMToken = token
	}
	return nil
}

func (r *fakeUserRepo) ApplyDriverRating(ctx context.Context, id string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	u.DriverRating = (u.DriverRating*float64(u.DriverReviewCount) + score) / float64(u.DriverReviewCount+1)
	u.DriverReviewCount++
	return nil
}

func (r *fakeUserRepo) ApplyRiderRating(ctx context.Context, id string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil
	}
	u.RiderRating = (u.RiderRating*float64(u.RiderReviewCount) + score) / float64(u.RiderReviewCount+1)
	u.RiderReviewCount++
	return nil
}

type fakeFutureTripRepo struct {
	mu    sync.Mutex
	trips map[string]*models.FutureTrip
}

func newFakeFutureTripRepo() *fakeFutureTripRepo {
	return &fakeFutureTripRepo{trips: make(map[string]*models.FutureTrip)}
}

func (r *fakeFutureTripRepo) Create(ctx context.Context, trip *models.FutureTrip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if trip.ID == "" {
		trip.ID = fmt.Sprintf("trip-%d", len(r.trips)+1)
	}
	r.trips[trip.ID] = trip
	return nil
}

func (r *fakeFutureTripRepo) GetByID(ctx context.Context, id string) (*models.FutureTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.trips[id], nil
}

func (r *fakeFutureTripRepo) ListByDriver(ctx context.Context, driverID string) ([]*models.FutureTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FutureTrip
	for _, t := range r.trips {
		if t.DriverID == driverID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeFutureTripRepo) ListCandidates(ctx context.Context, riderID string, roundTrip bool, startAfter int64) ([]*models.FutureTrip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.FutureTrip
	for _, t := range r.trips {
		if !t.IsFull && t.DriverID != riderID && t.RoundTrip == roundTrip && t.StartTime > startAfter {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeFutureTripRepo) SetFull(ctx context.Context, id string, full bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.trips[id]; ok {
		t.IsFull = full
	}
	return nil
}

func (r *fakeFutureTripRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.trips, id)
	return nil
}

type fakeRequestRepo struct {
	mu          sync.Mutex
	requests    map[string]*models.RideRequest
	tripRepo    *fakeFutureTripRepo
	failDeletes int
}

func newFakeRequestRepo(tripRepo *fakeFutureTripRepo) *fakeRequestRepo {
	return &fakeRequestRepo{requests: make(map[string]*models.RideRequest), tripRepo: tripRepo}
}

func (r *fakeRequestRepo) Create(ctx context.Context, req *models.RideRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.ID == "" {
		req.ID = fmt.Sprintf("request-%d", len(r.requests)+1)
	}
	req.Status = models.RequestStatusPending
	r.requests[req.ID] = req
	return nil
}

func (r *fakeRequestRepo) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		copied := *req
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeRequestRepo) ListByTrip(ctx context.Context, tripID string) ([]*models.RideRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RideRequest
	for _, req := range r.requests {
		if req.TripID == tripID {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) ListByRider(ctx context.Context, riderID string) ([]*models.RideRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.RideRequest
	for _, req := range r.requests {
		if req.RiderID == riderID {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) ExistsForTripAndRider(ctx context.Context, tripID, riderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.TripID == tripID && req.RiderID == riderID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeRequestRepo) MarkAccepted(ctx context.Context, requestID, tripID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.TripID == tripID && req.Status != models.RequestStatusPending {
			return false, nil
		}
	}
	req, ok := r.requests[requestID]
	if !ok || req.Status != models.RequestStatusPending {
		return false, nil
	}
	req.Status = models.RequestStatusAccepted
	r.tripRepo.SetFull(ctx, tripID, true)
	return true, nil
}

func (r *fakeRequestRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (r *fakeRequestRepo) MarkPickedUp(ctx context.Context, id string, at int64) (bool, error) {
	return r.markWithTimestamp(id, models.RequestStatusStarted, models.RequestStatusPickedUp, at, func(req *models.RideRequest, ts int64) {
		req.PickedUpAt = &ts
	})
}

func (r *fakeRequestRepo) MarkArrived(ctx context.Context, id string, at int64) (bool, error) {
	return r.markWithTimestamp(id, models.RequestStatusPickedUp, models.RequestStatusAtDestination, at, func(req *models.RideRequest, ts int64) {
		req.ArrivedAt = &ts
	})
}

func (r *fakeRequestRepo) MarkLeft(ctx context.Context, id string, at int64) (bool, error) {
	return r.markWithTimestamp(id, models.RequestStatusAtDestination, models.RequestStatusLeftDestination, at, func(req *models.RideRequest, ts int64) {
		req.LeftAt = &ts
	})
}

func (r *fakeRequestRepo) markWithTimestamp(id, from, to string, at int64, record func(*models.RideRequest, int64)) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	record(req, at)
	return true, nil
}

func (r *fakeRequestRepo) SetAuthorization(ctx context.Context, id, authorizationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req, ok := r.requests[id]; ok {
		req.AuthorizationID = authorizationID
	}
	return nil
}

func (r *fakeRequestRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failDeletes > 0 {
		r.failDeletes--
		return errors.New("connection reset")
	}
	delete(r.requests, id)
	return nil
}

type fakeArchiveRepo struct {
	mu          sync.Mutex
	byRequestID map[string]*models.Trip
	byID        map[string]*models.Trip
	requestRepo *fakeRequestRepo
	tripRepo    *fakeFutureTripRepo
	failNext    error
}

func newFakeArchiveRepo(requestRepo *fakeRequestRepo, tripRepo *fakeFutureTripRepo) *fakeArchiveRepo {
	return &fakeArchiveRepo{
		byRequestID: make(map[string]*models.Trip),
		byID:        make(map[string]*models.Trip),
		requestRepo: requestRepo,
		tripRepo:    tripRepo,
	}
}

func (r *fakeArchiveRepo) ArchivePairing(ctx context.Context, trip *models.Trip, futureTripID string) error {
	r.mu.Lock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		r.mu.Unlock()
		return err
	}
	if _, exists := r.byRequestID[trip.RequestID]; !exists {
		if trip.ID == "" {
			trip.ID = fmt.Sprintf("archived-%d", len(r.byID)+1)
		}
		r.byRequestID[trip.RequestID] = trip
		r.byID[trip.ID] = trip
	}
	r.mu.Unlock()

	r.requestRepo.Delete(ctx, trip.RequestID)
	r.tripRepo.Delete(ctx, futureTripID)
	return nil
}

func (r *fakeArchiveRepo) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id], nil
}

func (r *fakeArchiveRepo) GetByRequestID(ctx context.Context, requestID string) (*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byRequestID[requestID], nil
}

func (r *fakeArchiveRepo) ListByDriver(ctx context.Context, driverID string) ([]*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Trip
	for _, t := range r.byID {
		if t.DriverID == driverID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeArchiveRepo) ListByRider(ctx context.Context, riderID string) ([]*models.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Trip
	for _, t := range r.byID {
		if t.RiderID == riderID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeArchiveRepo) MarkDriverRated(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.DriverRated {
		return false, nil
	}
	t.DriverRated = true
	return true, nil
}

func (r *fakeArchiveRepo) MarkRiderRated(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.byID[id]
	if !ok || t.RiderRated {
		return false, nil
	}
	t.RiderRated = true
	return true, nil
}

// fakeGateway records every payment call and can be told to fail.
type fakeGateway struct {
	mu           sync.Mutex
	nextAuth     int
	authorized   []string
	captured     []string
	voided       []string
	payouts      map[string]float64
	failCaptures int
	failAuth     bool
	failVoid     bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{payouts: make(map[string]float64)}
}

func (g *fakeGateway) Authorize(ctx context.Context, amount float64, customerID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failAuth {
		return "", errors.New("card declined")
	}
	g.nextAuth++
	id := fmt.Sprintf("auth-%d", g.nextAuth)
	g.authorized = append(g.authorized, id)
	return id, nil
}

func (g *fakeGateway) Capture(ctx context.Context, authorizationID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCaptures > 0 {
		g.failCaptures--
		return errors.New("hold expired")
	}
	g.captured = append(g.captured, authorizationID)
	return nil
}

func (g *fakeGateway) Void(ctx context.Context, authorizationID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failVoid {
		return errors.New("processor unavailable")
	}
	// Voiding an already-voided hold succeeds without a second cancellation,
	// mirroring the gateway wrapper.
	for _, id := range g.voided {
		if id == authorizationID {
			return nil
		}
	}
	g.voided = append(g.voided, authorizationID)
	return nil
}

func (g *fakeGateway) Payout(ctx context.Context, account string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payouts[account] += amount
	return nil
}

func (g *fakeGateway) voidedIDs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.voided...)
}

// fakeQuoter replays canned legs.
type fakeQuoter struct {
	legs []routing.Leg
	err  error
	last routing.Itinerary
}

func (q *fakeQuoter) Quote(ctx context.Context, it routing.Itinerary) ([]routing.Leg, error) {
	q.last = it
	if q.err != nil {
		return nil, q.err
	}
	return q.legs, nil
}

// fakeSender records pushed notifications per user token.
type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, token, title, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, token+"|"+title)
	return nil
}

func (f *fakeSender) titlesFor(token string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, s := range f.sent {
		for i := 0; i < len(s); i++ {
			if s[i] == '|' {
				if s[:i] == token {
					out = append(out, s[i+1:])
				}
				break
			}
		}
	}
	return out
}

type fakeFuelSource struct {
	price float64
}

func (f *fakeFuelSource) GasPrice(ctx context.Context, lat, lng float64) (float64, error) {
	return f.price, nil
}
