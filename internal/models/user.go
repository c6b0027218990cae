package models

import (
	"time"
)

// User is a rider, and optionally a driver with a registered vehicle.
type User struct {
	ID            string  `db:"id" json:"id"`
	AuthUID       string  `db:"auth_uid" json:"auth_uid"`
	Name          string  `db:"name" json:"name"`
	Email         string  `db:"email" json:"email"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
	School        *string `db:"school" json:"school,omitempty"`
	FCMToken      string  `db:"fcm_token" json:"-"`
	IsDriver      bool    `db:"is_driver" json:"is_driver"`
	PayoutAccount *string `db:"payout_account" json:"-"`

	// Vehicle, set for drivers only
	CarColor    *string  `db:"car_color" json:"car_color,omitempty"`
	CarPlate    *string  `db:"car_plate" json:"car_plate,omitempty"`
	CarMake     *string  `db:"car_make" json:"car_make,omitempty"`
	CarModel    *string  `db:"car_model" json:"car_model,omitempty"`
	CarMPG      *float64 `db:"car_mpg" json:"car_mpg,omitempty"`
	CarCapacity *int     `db:"car_capacity" json:"car_capacity,omitempty"`

	// Running rating means, updated when archived trips are rated
	DriverRating      float64 `db:"driver_rating" json:"driver_rating"`
	DriverReviewCount int     `db:"driver_review_count" json:"driver_review_count"`
	RiderRating       float64 `db:"rider_rating" json:"rider_rating"`
	RiderReviewCount  int     `db:"rider_review_count" json:"rider_review_count"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type CreateUserRequest struct {
	AuthUID  string `json:"auth_uid" validate:"required,min=4,max=128"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty" validate:"omitempty,min=10,max=15"`
	School   string `json:"school,omitempty" validate:"omitempty,max=100"`
	FCMToken string `json:"fcm_token,omitempty"`
	IsDriver bool   `json:"is_driver"`

	// Required when is_driver is set
	CarColor      string  `json:"car_color,omitempty" validate:"required_if=IsDriver true,omitempty,max=30"`
	CarPlate      string  `json:"car_plate,omitempty" validate:"required_if=IsDriver true,omitempty,max=12"`
	CarMake       string  `json:"car_make,omitempty" validate:"required_if=IsDriver true,omitempty,max=50"`
	CarModel      string  `json:"car_model,omitempty" validate:"required_if=IsDriver true,omitempty,max=50"`
	CarMPG        float64 `json:"car_mpg,omitempty" validate:"required_if=IsDriver true,omitempty,gt=0,lte=150"`
	CarCapacity   int     `json:"car_capacity,omitempty" validate:"required_if=IsDriver true,omitempty,min=1,max=8"`
	PayoutAccount string  `json:"payout_account,omitempty" validate:"required_if=IsDriver true"`
}

type UserResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Phone        *string `json:"phone,omitempty"`
	School       *string `json:"school,omitempty"`
	IsDriver     bool    `json:"is_driver"`
	CarColor     *string `json:"car_color,omitempty"`
	CarPlate     *string `json:"car_plate,omitempty"`
	CarMake      *string `json:"car_make,omitempty"`
	CarModel     *string `json:"car_model,omitempty"`
	CarCapacity  *int    `json:"car_capacity,omitempty"`
	DriverRating float64 `json:"driver_rating"`
	RiderRating  float64 `json:"rider_rating"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Phone:        u.Phone,
		School:       u.School,
		IsDriver:     u.IsDriver,
		CarColor:     u.CarColor,
		CarPlate:     u.CarPlate,
		CarMake:      u.CarMake,
		CarModel:     u.CarModel,
		CarCapacity:  u.CarCapacity,
		DriverRating: u.DriverRating,
		RiderRating:  u.RiderRating,
	}
}
