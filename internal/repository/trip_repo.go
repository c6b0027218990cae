package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/driveu/backend/internal/models"
)

type TripRepository interface {
	// ArchivePairing writes the archived trip and removes the live request
	// and future trip in one transaction. Re-archiving the same request is a
	// no-op, so retried drop-offs never double-write.
	ArchivePairing(ctx context.Context, trip *models.Trip, futureTripID string) error
	GetByID(ctx context.Context, id string) (*models.Trip, error)
	GetByRequestID(ctx context.Context, requestID string) (*models.Trip, error)
	ListByDriver(ctx context.Context, driverID string) ([]*models.Trip, error)
	ListByRider(ctx context.Context, riderID string) ([]*models.Trip, error)
	// MarkDriverRated flips the flag; returns false if it was already set.
	MarkDriverRated(ctx context.Context, id string) (bool, error)
	MarkRiderRated(ctx context.Context, id string) (bool, error)
}

type tripRepository struct {
	db *sqlx.DB
}

func NewTripRepository(db *sqlx.DB) TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) ArchivePairing(ctx context.Context, trip *models.Trip, futureTripID string) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	trip.CreatedAt = time.Now()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Insert before delete: if anything fails mid-way the live rows survive
	// and the operation can be retried.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO trips (id, request_id, driver_id, rider_id, origin, destination,
			pickup_address, start_time, pickup_time, eta, dropoff_time,
			time_at_destination, round_trip, distance_miles, rider_cost,
			driver_payout, driver_rated, rider_rated, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (request_id) DO NOTHING
	`,
		trip.ID, trip.RequestID, trip.DriverID, trip.RiderID, trip.Origin, trip.Destination,
		trip.PickupAddress, trip.StartTime, trip.PickupTime, trip.ETA, trip.DropoffTime,
		trip.TimeAtDestination, trip.RoundTrip, trip.DistanceMiles, trip.RiderCost,
		trip.DriverPayout, trip.DriverRated, trip.RiderRated, trip.CreatedAt)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM ride_requests WHERE id = $1`, trip.RequestID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM future_trips WHERE id = $1`, futureTripID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *tripRepository) GetByID(ctx context.Context, id string) (*models.Trip, error) {
	var trip models.Trip
	query := `SELECT * FROM trips WHERE id = $1`
	err := r.db.GetContext(ctx, &trip, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &trip, err
}

func (r *tripRepository) GetByRequestID(ctx context.Context, requestID string) (*models.Trip, error) {
	var trip models.Trip
	query := `SELECT * FROM trips WHERE request_id = $1`
	err := r.db.GetContext(ctx, &trip, query, requestID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &trip, err
}

func (r *tripRepository) ListByDriver(ctx context.Context, driverID string) ([]*models.Trip, error) {
	trips := []*models.Trip{}
	query := `SELECT * FROM trips WHERE driver_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &trips, query, driverID)
	return trips, err
}

func (r *tripRepository) ListByRider(ctx context.Context, riderID string) ([]*models.Trip, error) {
	trips := []*models.Trip{}
	query := `SELECT * FROM trips WHERE rider_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &trips, query, riderID)
	return trips, err
}

func (r *tripRepository) MarkDriverRated(ctx context.Context, id string) (bool, error) {
	query := `UPDATE trips SET driver_rated = true WHERE id = $1 AND driver_rated = false`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *tripRepository) MarkRiderRated(ctx context.Context, id string) (bool, error) {
	query := `UPDATE trips SET rider_rated = true WHERE id = $1 AND rider_rated = false`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
