package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/driveu/backend/internal/models"
)

type FutureTripRepository interface {
	Create(ctx context.Context, trip *models.FutureTrip) error
	GetByID(ctx context.Context, id string) (*models.FutureTrip, error)
	ListByDriver(ctx context.Context, driverID string) ([]*models.FutureTrip, error)
	// ListCandidates returns trips a rider could still join: not full, not
	// their own, matching the round-trip flag, starting after the cutoff.
	// The radius filter runs in the service.
	ListCandidates(ctx context.Context, riderID string, roundTrip bool, startAfter int64) ([]*models.FutureTrip, error)
	SetFull(ctx context.Context, id string, full bool) error
	Delete(ctx context.Context, id string) error
}

type futureTripRepository struct {
	db *sqlx.DB
}

func NewFutureTripRepository(db *sqlx.DB) FutureTripRepository {
	return &futureTripRepository{db: db}
}

func (r *futureTripRepository) Create(ctx context.Context, trip *models.FutureTrip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	trip.CreatedAt = time.Now()
	trip.UpdatedAt = time.Now()

	query := `
		INSERT INTO future_trips (id, driver_id, origin, origin_lat, origin_lng,
			destination, destination_lat, destination_lng, start_time, eta, ets,
			time_at_destination, round_trip, avoid_highways, avoid_tolls,
			distance_miles, gas_price, is_full, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20)
	`
	_, err := r.db.ExecContext(ctx, query,
		trip.ID, trip.DriverID, trip.Origin, trip.OriginLat, trip.OriginLng,
		trip.Destination, trip.DestinationLat, trip.DestinationLng, trip.StartTime, trip.ETA, trip.ETS,
		trip.TimeAtDestination, trip.RoundTrip, trip.AvoidHighways, trip.AvoidTolls,
		trip.DistanceMiles, trip.GasPrice, trip.IsFull, trip.CreatedAt, trip.UpdatedAt)
	return err
}

func (r *futureTripRepository) GetByID(ctx context.Context, id string) (*models.FutureTrip, error) {
	var trip models.FutureTrip
	query := `SELECT * FROM future_trips WHERE id = $1`
	err := r.db.GetContext(ctx, &trip, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &trip, err
}

func (r *futureTripRepository) ListByDriver(ctx context.Context, driverID string) ([]*models.FutureTrip, error) {
	trips := []*models.FutureTrip{}
	query := `SELECT * FROM future_trips WHERE driver_id = $1 ORDER BY start_time`
	err := r.db.SelectContext(ctx, &trips, query, driverID)
	return trips, err
}

func (r *futureTripRepository) ListCandidates(ctx context.Context, riderID string, roundTrip bool, startAfter int64) ([]*models.FutureTrip, error) {
	trips := []*models.FutureTrip{}
	query := `
		SELECT * FROM future_trips
		WHERE is_full = false AND driver_id != $1 AND round_trip = $2 AND start_time > $3
		ORDER BY start_time
	`
	err := r.db.SelectContext(ctx, &trips, query, riderID, roundTrip, startAfter)
	return trips, err
}

func (r *futureTripRepository) SetFull(ctx context.Context, id string, full bool) error {
	query := `UPDATE future_trips SET is_full = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, full, time.Now(), id)
	return err
}

func (r *futureTripRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM future_trips WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}
