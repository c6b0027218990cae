// Package payments holds and settles rider charges. Amounts are USD dollars;
// conversion to the processor's minor units happens at the boundary.
package payments

import "context"

// Gateway is the payment collaborator the lifecycle talks to. Holds are
// placed when a request is created, captured when the drive starts, voided
// when the request dies, and the driver is paid out at archival.
type Gateway interface {
	// Authorize places a hold and returns its id.
	Authorize(ctx context.Context, amount float64, customerID string) (string, error)
	// Capture settles a previously placed hold.
	Capture(ctx context.Context, authorizationID string) error
	// Void releases a hold. Voiding an already-released hold is a no-op.
	Void(ctx context.Context, authorizationID string) error
	// Payout transfers the driver's share to their connected account.
	Payout(ctx context.Context, account string, amount float64) error
}
