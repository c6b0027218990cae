package service

import (
	"context"
	"errors"
	"testing"

	"github.com/driveu/backend/internal/models"
)

type fakeCatalog struct {
	models map[string][]string
	err    error
}

func (c *fakeCatalog) Makes(ctx context.Context) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	makes := make([]string, 0, len(c.models))
	for m := range c.models {
		makes = append(makes, m)
	}
	return makes, nil
}

func (c *fakeCatalog) ModelsForMake(ctx context.Context, make string) ([]string, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.models[make], nil
}

func newUserEnv() (UserService, *fakeUserRepo, *fakeCatalog) {
	users := newFakeUserRepo()
	catalog := &fakeCatalog{models: map[string][]string{
		"Honda": {"Civic", "Accord"},
	}}
	return NewUserService(users, catalog), users, catalog
}

func driverRequest() *models.CreateUserRequest {
	return &models.CreateUserRequest{
		AuthUID:       "firebase-uid-1",
		Name:          "Dana Driver",
		Email:         "dana@umich.edu",
		IsDriver:      true,
		CarColor:      "blue",
		CarPlate:      "ABC 1234",
		CarMake:       "Honda",
		CarModel:      "Civic",
		CarMPG:        32,
		CarCapacity:   4,
		PayoutAccount: "acct_123",
	}
}

func TestRegisterDriver(t *testing.T) {
	svc, users, _ := newUserEnv()

	user, err := svc.Register(context.Background(), driverRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !user.IsDriver {
		t.Error("expected driver flag set")
	}
	if user.CarMPG == nil || *user.CarMPG != 32 {
		t.Errorf("car mpg not stored: %v", user.CarMPG)
	}
	if user.PayoutAccount == nil || *user.PayoutAccount != "acct_123" {
		t.Errorf("payout account not stored: %v", user.PayoutAccount)
	}

	stored, _ := users.GetByID(context.Background(), user.ID)
	if stored == nil {
		t.Fatal("user not persisted")
	}
}

func TestRegisterDuplicateAuthUID(t *testing.T) {
	svc, _, _ := newUserEnv()

	if _, err := svc.Register(context.Background(), driverRequest()); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(context.Background(), driverRequest())
	assertAPIError(t, err, "user_exists")
}

func TestRegisterUnknownModel(t *testing.T) {
	svc, _, _ := newUserEnv()

	req := driverRequest()
	req.CarModel = "Mustang"

	_, err := svc.Register(context.Background(), req)
	assertAPIError(t, err, "bad_request")
}

func TestRegisterCatalogOutageSkipsCheck(t *testing.T) {
	svc, _, catalog := newUserEnv()
	catalog.err = errors.New("vpic down")

	req := driverRequest()
	req.CarModel = "Mustang"

	if _, err := svc.Register(context.Background(), req); err != nil {
		t.Fatalf("Register during catalog outage: %v", err)
	}
}

func TestRegisterRiderSkipsVehicleCheck(t *testing.T) {
	svc, _, _ := newUserEnv()

	req := &models.CreateUserRequest{
		AuthUID: "firebase-uid-2",
		Name:    "Riley Rider",
		Email:   "riley@umich.edu",
	}
	user, err := svc.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.IsDriver {
		t.Error("expected rider")
	}
	if user.CarMake != nil {
		t.Error("rider should have no vehicle")
	}
}

func TestLookupRefreshesToken(t *testing.T) {
	svc, users, _ := newUserEnv()

	created, err := svc.Register(context.Background(), driverRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.Lookup(context.Background(), created.AuthUID, "new-token")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if user.FCMToken != "new-token" {
		t.Errorf("token = %q, want new-token", user.FCMToken)
	}

	stored, _ := users.GetByID(context.Background(), created.ID)
	if stored.FCMToken != "new-token" {
		t.Errorf("stored token = %q, want new-token", stored.FCMToken)
	}
}

func TestLookupUnknownUser(t *testing.T) {
	svc, _, _ := newUserEnv()

	_, err := svc.Lookup(context.Background(), "nobody", "")
	assertAPIError(t, err, "not_found")
}
