package service

import (
	"context"
	"log"
	"strings"

	apperrors "github.com/driveu/backend/internal/errors"
	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/repository"
	"github.com/driveu/backend/internal/vehicle"
)

type UserService interface {
	Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error)
	// Lookup finds a user by external auth uid and refreshes their device
	// token when the client presents a new one.
	Lookup(ctx context.Context, authUID, fcmToken string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}

type userService struct {
	userRepo repository.UserRepository
	catalog  vehicle.Catalog
}

func NewUserService(userRepo repository.UserRepository, catalog vehicle.Catalog) UserService {
	return &userService{userRepo: userRepo, catalog: catalog}
}

func (s *userService) Register(ctx context.Context, req *models.CreateUserRequest) (*models.User, error) {
	existing, err := s.userRepo.GetByAuthUID(ctx, req.AuthUID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperrors.Conflict("user_exists", "a user with this auth uid already exists")
	}

	if req.IsDriver {
		if err := s.checkVehicle(ctx, req.CarMake, req.CarModel); err != nil {
			return nil, err
		}
	}

	user := &models.User{
		AuthUID:  req.AuthUID,
		Name:     req.Name,
		Email:    req.Email,
		FCMToken: req.FCMToken,
		IsDriver: req.IsDriver,
	}
	if req.Phone != "" {
		user.Phone = &req.Phone
	}
	if req.School != "" {
		user.School = &req.School
	}
	if req.IsDriver {
		user.PayoutAccount = &req.PayoutAccount
		user.CarColor = &req.CarColor
		user.CarPlate = &req.CarPlate
		user.CarMake = &req.CarMake
		user.CarModel = &req.CarModel
		user.CarMPG = &req.CarMPG
		user.CarCapacity = &req.CarCapacity
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// checkVehicle verifies the make/model pair exists in the public vehicle
// catalog. A catalog outage never blocks registration.
func (s *userService) checkVehicle(ctx context.Context, carMake, carModel string) error {
	if s.catalog == nil {
		return nil
	}

	vehicleModels, err := s.catalog.ModelsForMake(ctx, carMake)
	if err != nil {
		log.Printf("vehicle catalog lookup failed for %q, skipping check: %v", carMake, err)
		return nil
	}
	if len(vehicleModels) == 0 {
		return apperrors.BadRequest("unknown vehicle make")
	}

	for _, m := range vehicleModels {
		if strings.EqualFold(m, carModel) {
			return nil
		}
	}
	return apperrors.BadRequest("unknown model for this vehicle make")
}

func (s *userService) Lookup(ctx context.Context, authUID, fcmToken string) (*models.User, error) {
	user, err := s.userRepo.GetByAuthUID(ctx, authUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}

	if fcmToken != "" && fcmToken != user.FCMToken {
		if err := s.userRepo.UpdateFCMToken(ctx, user.ID, fcmToken); err != nil {
			log.Printf("failed to refresh fcm token for user %s: %v", user.ID, err)
		} else {
			user.FCMToken = fcmToken
		}
	}
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NotFound("user")
	}
	return user, nil
}
