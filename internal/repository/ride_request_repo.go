package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/driveu/backend/internal/models"
)

type RideRequestRepository interface {
	Create(ctx context.Context, req *models.RideRequest) error
	GetByID(ctx context.Context, id string) (*models.RideRequest, error)
	ListByTrip(ctx context.Context, tripID string) ([]*models.RideRequest, error)
	ListByRider(ctx context.Context, riderID string) ([]*models.RideRequest, error)
	ExistsForTripAndRider(ctx context.Context, tripID, riderID string) (bool, error)
	// MarkAccepted atomically accepts the request and marks the trip full.
	// It returns false without changing anything if the request is no longer
	// pending or the trip already has an accepted request.
	MarkAccepted(ctx context.Context, requestID, tripID string) (bool, error)
	// TransitionStatus moves the request from one status to another. Returns
	// false if the request was not in the expected status, which is how
	// concurrent lifecycle verbs lose races.
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	MarkPickedUp(ctx context.Context, id string, at int64) (bool, error)
	MarkArrived(ctx context.Context, id string, at int64) (bool, error)
	MarkLeft(ctx context.Context, id string, at int64) (bool, error)
	SetAuthorization(ctx context.Context, id, authorizationID string) error
	Delete(ctx context.Context, id string) error
}

type rideRequestRepository struct {
	db *sqlx.DB
}

func NewRideRequestRepository(db *sqlx.DB) RideRequestRepository {
	return &rideRequestRepository{db: db}
}

func (r *rideRequestRepository) Create(ctx context.Context, req *models.RideRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	req.Status = models.RequestStatusPending
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	query := `
		INSERT INTO ride_requests (id, trip_id, rider_id, status, pickup_address,
			pickup_lat, pickup_lng, round_trip, pickup_time, eta, dropoff_time,
			distance_miles, rider_cost, driver_payout, authorization_id,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.ExecContext(ctx, query,
		req.ID, req.TripID, req.RiderID, req.Status, req.PickupAddress,
		req.PickupLat, req.PickupLng, req.RoundTrip, req.PickupTime, req.ETA, req.DropoffTime,
		req.DistanceMiles, req.RiderCost, req.DriverPayout, req.AuthorizationID,
		req.CreatedAt, req.UpdatedAt)
	return err
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id string) (*models.RideRequest, error) {
	var req models.RideRequest
	query := `SELECT * FROM ride_requests WHERE id = $1`
	err := r.db.GetContext(ctx, &req, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &req, err
}

func (r *rideRequestRepository) ListByTrip(ctx context.Context, tripID string) ([]*models.RideRequest, error) {
	reqs := []*models.RideRequest{}
	query := `SELECT * FROM ride_requests WHERE trip_id = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &reqs, query, tripID)
	return reqs, err
}

func (r *rideRequestRepository) ListByRider(ctx context.Context, riderID string) ([]*models.RideRequest, error) {
	reqs := []*models.RideRequest{}
	query := `SELECT * FROM ride_requests WHERE rider_id = $1 ORDER BY created_at`
	err := r.db.SelectContext(ctx, &reqs, query, riderID)
	return reqs, err
}

func (r *rideRequestRepository) ExistsForTripAndRider(ctx context.Context, tripID, riderID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM ride_requests WHERE trip_id = $1 AND rider_id = $2)`
	err := r.db.GetContext(ctx, &exists, query, tripID, riderID)
	return exists, err
}

// MarkAccepted locks the trip row so two drivers' accept calls (or a retried
// one) serialize. Only one request per trip ever leaves pending.
func (r *rideRequestRepository) MarkAccepted(ctx context.Context, requestID, tripID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var lockedID string
	err = tx.GetContext(ctx, &lockedID,
		`SELECT id FROM future_trips WHERE id = $1 FOR UPDATE`, tripID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	var takenCount int
	err = tx.GetContext(ctx, &takenCount,
		`SELECT COUNT(*) FROM ride_requests WHERE trip_id = $1 AND status != $2`,
		tripID, models.RequestStatusPending)
	if err != nil {
		return false, err
	}
	if takenCount > 0 {
		return false, nil
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE ride_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.RequestStatusAccepted, time.Now(), requestID, models.RequestStatusPending)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE future_trips SET is_full = true, updated_at = $1 WHERE id = $2`,
		time.Now(), tripID)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

func (r *rideRequestRepository) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	query := `UPDATE ride_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *rideRequestRepository) MarkPickedUp(ctx context.Context, id string, at int64) (bool, error) {
	query := `
		UPDATE ride_requests SET status = $1, picked_up_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		models.RequestStatusPickedUp, at, time.Now(), id, models.RequestStatusStarted)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *rideRequestRepository) MarkArrived(ctx context.Context, id string, at int64) (bool, error) {
	query := `
		UPDATE ride_requests SET status = $1, arrived_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		models.RequestStatusAtDestination, at, time.Now(), id, models.RequestStatusPickedUp)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *rideRequestRepository) MarkLeft(ctx context.Context, id string, at int64) (bool, error) {
	query := `
		UPDATE ride_requests SET status = $1, left_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	res, err := r.db.ExecContext(ctx, query,
		models.RequestStatusLeftDestination, at, time.Now(), id, models.RequestStatusAtDestination)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *rideRequestRepository) SetAuthorization(ctx context.Context, id, authorizationID string) error {
	query := `UPDATE ride_requests SET authorization_id = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, authorizationID, time.Now(), id)
	return err
}

func (r *rideRequestRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM ride_requests WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
