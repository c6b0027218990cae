package models

import (
	"time"
)

// FutureTrip is a drive a driver has published and riders can ask to join.
// All times are epoch seconds, distances miles.
type FutureTrip struct {
	ID             string  `db:"id" json:"id"`
	DriverID       string  `db:"driver_id" json:"driver_id"`
	Origin         string  `db:"origin" json:"origin"`
	OriginLat      float64 `db:"origin_lat" json:"origin_lat"`
	OriginLng      float64 `db:"origin_lng" json:"origin_lng"`
	Destination    string  `db:"destination" json:"destination"`
	DestinationLat float64 `db:"destination_lat" json:"destination_lat"`
	DestinationLng float64 `db:"destination_lng" json:"destination_lng"`

	StartTime int64 `db:"start_time" json:"start_time"`
	// ETA is when the driver reaches the destination; ETS is when the whole
	// trip ends (same as ETA for one-way, after the dwell and return leg for
	// round trips).
	ETA int64 `db:"eta" json:"eta"`
	ETS int64 `db:"ets" json:"ets"`
	// TimeAtDestination is the planned dwell at the destination, seconds.
	TimeAtDestination int64 `db:"time_at_destination" json:"time_at_destination"`

	RoundTrip     bool    `db:"round_trip" json:"round_trip"`
	AvoidHighways bool    `db:"avoid_highways" json:"avoid_highways"`
	AvoidTolls    bool    `db:"avoid_tolls" json:"avoid_tolls"`
	DistanceMiles float64 `db:"distance_miles" json:"distance_miles"`
	// GasPrice is the USD/gallon snapshot taken at publish time. Every quote
	// against this trip prices with it.
	GasPrice float64 `db:"gas_price" json:"gas_price"`
	// IsFull is set once a request is accepted and cleared if it withdraws.
	IsFull bool `db:"is_full" json:"is_full"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type PublishTripRequest struct {
	DriverID          string `json:"driver_id" validate:"required,uuid"`
	Origin            string `json:"origin" validate:"required,min=3"`
	Destination       string `json:"destination" validate:"required,min=3"`
	StartTime         int64  `json:"start_time" validate:"required,gt=0"`
	RoundTrip         bool   `json:"round_trip"`
	TimeAtDestination int64  `json:"time_at_destination" validate:"omitempty,min=0"`
	AvoidHighways     bool   `json:"avoid_highways"`
	AvoidTolls        bool   `json:"avoid_tolls"`
}

type FutureTripResponse struct {
	ID                string        `json:"id"`
	Driver            *UserResponse `json:"driver,omitempty"`
	DriverID          string        `json:"driver_id"`
	Origin            string        `json:"origin"`
	Destination       string        `json:"destination"`
	DestinationLat    float64       `json:"destination_lat"`
	DestinationLng    float64       `json:"destination_lng"`
	StartTime         int64         `json:"start_time"`
	ETA               int64         `json:"eta"`
	ETS               int64         `json:"ets"`
	TimeAtDestination int64         `json:"time_at_destination"`
	RoundTrip         bool          `json:"round_trip"`
	DistanceMiles     float64       `json:"distance_miles"`
	GasPrice          float64       `json:"gas_price"`
	IsFull            bool          `json:"is_full"`
}

func (t *FutureTrip) ToResponse() *FutureTripResponse {
	return &FutureTripResponse{
		ID:                t.ID,
		DriverID:          t.DriverID,
		Origin:            t.Origin,
		Destination:       t.Destination,
		DestinationLat:    t.DestinationLat,
		DestinationLng:    t.DestinationLng,
		StartTime:         t.StartTime,
		ETA:               t.ETA,
		ETS:               t.ETS,
		TimeAtDestination: t.TimeAtDestination,
		RoundTrip:         t.RoundTrip,
		DistanceMiles:     t.DistanceMiles,
		GasPrice:          t.GasPrice,
		IsFull:            t.IsFull,
	}
}
