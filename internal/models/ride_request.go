package models

import (
	"time"
)

// Ride request status constants
const (
	RequestStatusPending         = "pending"
	RequestStatusAccepted        = "accepted"
	RequestStatusStarted         = "started"
	RequestStatusPickedUp        = "picked_up"
	RequestStatusAtDestination   = "at_destination"
	RequestStatusLeftDestination = "left_destination"
	RequestStatusDroppedOff      = "dropped_off"
)

// Valid request state transitions. Rejection, cancellation, and archival
// remove the row rather than parking it in a terminal status, so the map only
// covers the forward path.
var ValidRequestTransitions = map[string][]string{
	RequestStatusPending:  {RequestStatusAccepted},
	RequestStatusAccepted: {RequestStatusStarted},
	RequestStatusStarted:  {RequestStatusPickedUp},
	RequestStatusPickedUp: {RequestStatusAtDestination},
	// One-way pairings archive at the destination; only round trips carry on
	// through left_destination to the drop-off back home.
	RequestStatusAtDestination:   {RequestStatusLeftDestination},
	RequestStatusLeftDestination: {RequestStatusDroppedOff},
	RequestStatusDroppedOff:      {},
}

// RideRequest is a rider's ask to join a FutureTrip. Exactly one request per
// trip ever reaches accepted; the rest are voided when the drive starts.
type RideRequest struct {
	ID      string `db:"id" json:"id"`
	TripID  string `db:"trip_id" json:"trip_id"`
	RiderID string `db:"rider_id" json:"rider_id"`
	Status  string `db:"status" json:"status"`

	PickupAddress string  `db:"pickup_address" json:"pickup_address"`
	PickupLat     float64 `db:"pickup_lat" json:"pickup_lat"`
	PickupLng     float64 `db:"pickup_lng" json:"pickup_lng"`
	RoundTrip     bool    `db:"round_trip" json:"round_trip"`

	// Derived schedule, epoch seconds
	PickupTime  int64 `db:"pickup_time" json:"pickup_time"`
	ETA         int64 `db:"eta" json:"eta"`
	DropoffTime int64 `db:"dropoff_time" json:"dropoff_time"`

	DistanceMiles float64 `db:"distance_miles" json:"distance_miles"`
	RiderCost     float64 `db:"rider_cost" json:"rider_cost"`
	DriverPayout  float64 `db:"driver_payout" json:"driver_payout"`
	// AuthorizationID is the payment hold placed when the request was created.
	AuthorizationID string `db:"authorization_id" json:"-"`

	// Actual lifecycle timestamps, recorded as the verbs land
	PickedUpAt *int64 `db:"picked_up_at" json:"picked_up_at,omitempty"`
	ArrivedAt  *int64 `db:"arrived_at" json:"arrived_at,omitempty"`
	LeftAt     *int64 `db:"left_at" json:"left_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateRideRequestRequest struct {
	TripID    string  `json:"trip_id" validate:"required,uuid"`
	RiderID   string  `json:"rider_id" validate:"required,uuid"`
	PickupLat float64 `json:"pickup_lat" validate:"required,latitude"`
	PickupLng float64 `json:"pickup_lng" validate:"required,longitude"`
}

type RideRequestResponse struct {
	ID            string        `json:"id"`
	TripID        string        `json:"trip_id"`
	RiderID       string        `json:"rider_id"`
	Rider         *UserResponse `json:"rider,omitempty"`
	Status        string        `json:"status"`
	PickupAddress string        `json:"pickup_address"`
	RoundTrip     bool          `json:"round_trip"`
	PickupTime    int64         `json:"pickup_time"`
	ETA           int64         `json:"eta"`
	DropoffTime   int64         `json:"dropoff_time"`
	DistanceMiles float64       `json:"distance_miles"`
	RiderCost     float64       `json:"rider_cost"`
	DriverPayout  float64       `json:"driver_payout"`
}

func (r *RideRequest) ToResponse() *RideRequestResponse {
	return &RideRequestResponse{
		ID:            r.ID,
		TripID:        r.TripID,
		RiderID:       r.RiderID,
		Status:        r.Status,
		PickupAddress: r.PickupAddress,
		RoundTrip:     r.RoundTrip,
		PickupTime:    r.PickupTime,
		ETA:           r.ETA,
		DropoffTime:   r.DropoffTime,
		DistanceMiles: r.DistanceMiles,
		RiderCost:     r.RiderCost,
		DriverPayout:  r.DriverPayout,
	}
}

// CanTransitionTo checks whether the request may move to newStatus.
func (r *RideRequest) CanTransitionTo(newStatus string) bool {
	validNextStates, exists := ValidRequestTransitions[r.Status]
	if !exists {
		return false
	}

	for _, state := range validNextStates {
		if state == newStatus {
			return true
		}
	}
	return false
}

// IsAccepted reports whether the request has been accepted, whether or not
// the drive is already under way.
func (r *RideRequest) IsAccepted() bool {
	return r.Status != RequestStatusPending
}

// IsUnderway reports whether the drive has started for this request.
func (r *RideRequest) IsUnderway() bool {
	switch r.Status {
	case RequestStatusStarted, RequestStatusPickedUp, RequestStatusAtDestination,
		RequestStatusLeftDestination, RequestStatusDroppedOff:
		return true
	}
	return false
}
