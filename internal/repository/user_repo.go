package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/driveu/backend/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByAuthUID(ctx context.Context, authUID string) (*models.User, error)
	UpdateFCMToken(ctx context.Context, id, token string) error
	// ApplyDriverRating folds a new score into the driver's running mean.
	ApplyDriverRating(ctx context.Context, id string, score float64) error
	ApplyRiderRating(ctx context.Context, id string, score float64) error
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	query := `
		INSERT INTO users (id, auth_uid, name, email, phone, school, fcm_token,
			is_driver, payout_account, car_color, car_plate, car_make, car_model,
			car_mpg, car_capacity, driver_rating, driver_review_count,
			rider_rating, rider_review_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.AuthUID, user.Name, user.Email, user.Phone, user.School, user.FCMToken,
		user.IsDriver, user.PayoutAccount, user.CarColor, user.CarPlate, user.CarMake, user.CarModel,
		user.CarMPG, user.CarCapacity, user.DriverRating, user.DriverReviewCount,
		user.RiderRating, user.RiderReviewCount, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) GetByAuthUID(ctx context.Context, authUID string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE auth_uid = $1`
	err := r.db.GetContext(ctx, &user, query, authUID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return &user, err
}

func (r *userRepository) UpdateFCMToken(ctx context.Context, id, token string) error {
	query := `UPDATE users SET fcm_token = $1, updated_at = $2 WHERE id = $3`
	_, err := r.db.ExecContext(ctx, query, token, time.Now(), id)
	return err
}

// The mean is folded in SQL so concurrent ratings never lose updates.
func (r *userRepository) ApplyDriverRating(ctx context.Context, id string, score float64) error {
	query := `
		UPDATE users
		SET driver_rating = (driver_rating * driver_review_count + $1) / (driver_review_count + 1),
			driver_review_count = driver_review_count + 1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, score, time.Now(), id)
	return err
}

func (r *userRepository) ApplyRiderRating(ctx context.Context, id string, score float64) error {
	query := `
		UPDATE users
		SET rider_rating = (rider_rating * rider_review_count + $1) / (rider_review_count + 1),
			rider_review_count = rider_review_count + 1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, score, time.Now(), id)
	return err
}
