package models

import (
	"time"
)

// Trip is the archived record of a completed pairing. It is written exactly
// once per ride request; the live FutureTrip and RideRequest rows are removed
// in the same operation.
type Trip struct {
	ID string `db:"id" json:"id"`
	// RequestID keys archival idempotency: a second archive of the same
	// request is a no-op.
	RequestID string `db:"request_id" json:"request_id"`
	DriverID  string `db:"driver_id" json:"driver_id"`
	RiderID   string `db:"rider_id" json:"rider_id"`

	Origin        string `db:"origin" json:"origin"`
	Destination   string `db:"destination" json:"destination"`
	PickupAddress string `db:"pickup_address" json:"pickup_address"`

	StartTime   int64 `db:"start_time" json:"start_time"`
	PickupTime  int64 `db:"pickup_time" json:"pickup_time"`
	ETA         int64 `db:"eta" json:"eta"`
	DropoffTime int64 `db:"dropoff_time" json:"dropoff_time"`
	// TimeAtDestination is the dwell that actually happened, seconds.
	TimeAtDestination int64 `db:"time_at_destination" json:"time_at_destination"`

	RoundTrip     bool    `db:"round_trip" json:"round_trip"`
	DistanceMiles float64 `db:"distance_miles" json:"distance_miles"`
	RiderCost     float64 `db:"rider_cost" json:"rider_cost"`
	DriverPayout  float64 `db:"driver_payout" json:"driver_payout"`

	DriverRated bool `db:"driver_rated" json:"driver_rated"`
	RiderRated  bool `db:"rider_rated" json:"rider_rated"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type RateTripRequest struct {
	Score float64 `json:"score" validate:"required,min=1,max=5"`
}

type TripResponse struct {
	ID                string    `json:"id"`
	DriverID          string    `json:"driver_id"`
	RiderID           string    `json:"rider_id"`
	Origin            string    `json:"origin"`
	Destination       string    `json:"destination"`
	PickupAddress     string    `json:"pickup_address"`
	StartTime         int64     `json:"start_time"`
	PickupTime        int64     `json:"pickup_time"`
	ETA               int64     `json:"eta"`
	DropoffTime       int64     `json:"dropoff_time"`
	TimeAtDestination int64     `json:"time_at_destination"`
	RoundTrip         bool      `json:"round_trip"`
	DistanceMiles     float64   `json:"distance_miles"`
	RiderCost         float64   `json:"rider_cost"`
	DriverPayout      float64   `json:"driver_payout"`
	DriverRated       bool      `json:"driver_rated"`
	RiderRated        bool      `json:"rider_rated"`
	CreatedAt         time.Time `json:"created_at"`
}

func (t *Trip) ToResponse() *TripResponse {
	return &TripResponse{
		ID:                t.ID,
		DriverID:          t.DriverID,
		RiderID:           t.RiderID,
		Origin:            t.Origin,
		Destination:       t.Destination,
		PickupAddress:     t.PickupAddress,
		StartTime:         t.StartTime,
		PickupTime:        t.PickupTime,
		ETA:               t.ETA,
		DropoffTime:       t.DropoffTime,
		TimeAtDestination: t.TimeAtDestination,
		RoundTrip:         t.RoundTrip,
		DistanceMiles:     t.DistanceMiles,
		RiderCost:         t.RiderCost,
		DriverPayout:      t.DriverPayout,
		DriverRated:       t.DriverRated,
		RiderRated:        t.RiderRated,
		CreatedAt:         t.CreatedAt,
	}
}
