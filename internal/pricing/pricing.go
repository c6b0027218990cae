// Package pricing computes what a rider pays and what a driver earns for a
// carpool pairing. The engine is deterministic: same inputs, same quote.
package pricing

import "math"

// Default engine parameters.
const (
	DefaultMargin        = 1.25
	DefaultPerMinuteRate = 1.25 * 0.25
	DefaultPayoutShare   = 0.8
)

// Inputs are the route and vehicle facts a quote is derived from.
// Distances are miles, fuel price is USD per gallon, times are epoch seconds.
type Inputs struct {
	// TotalDistance is the full route driven with the rider aboard the plan.
	TotalDistance float64
	// BaseDistance is what the driver would have driven anyway, without the detour.
	BaseDistance float64
	// MPG is the driver's vehicle fuel economy.
	MPG float64
	// FuelPrice is the gas price snapshot taken when the trip was published.
	FuelPrice float64
	// PickupTime and ETA bound the stretch the rider actually spends in the car.
	PickupTime int64
	ETA        int64
	// RoundTrip doubles the quote: the same route is driven back.
	RoundTrip bool
}

// Quote is a priced pairing. Both amounts are USD rounded to cents.
type Quote struct {
	RiderCost    float64 `json:"rider_cost"`
	DriverPayout float64 `json:"driver_payout"`
}

// Engine prices pairings. The zero value is not usable; construct with New.
type Engine struct {
	margin        float64
	perMinuteRate float64
	payoutShare   float64
}

func New() *Engine {
	return &Engine{
		margin:        DefaultMargin,
		perMinuteRate: DefaultPerMinuteRate,
		payoutShare:   DefaultPayoutShare,
	}
}

// Price computes the rider's cost and the driver's payout.
//
// The rider covers the full fuel cost of the extra miles the detour adds,
// half the fuel cost of the shared base miles, and a per-minute rate for the
// time spent in the car, all scaled by the margin. Rounding to cents happens
// once, at the end, so intermediate arithmetic stays exact.
func (e *Engine) Price(in Inputs) Quote {
	extraMiles := in.TotalDistance - in.BaseDistance
	if extraMiles < 0 {
		extraMiles = 0
	}

	fuelExtra := extraMiles / in.MPG * in.FuelPrice * e.margin
	fuelShared := in.BaseDistance / in.MPG / 2 * in.FuelPrice * e.margin
	timeCharge := e.perMinuteRate * float64(in.ETA-in.PickupTime) / 60.0

	cost := fuelExtra + fuelShared + timeCharge
	if in.RoundTrip {
		cost *= 2
	}

	return Quote{
		RiderCost:    roundCents(cost),
		DriverPayout: roundCents(cost * e.payoutShare),
	}
}

func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
