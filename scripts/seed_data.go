//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/driveu/backend/internal/config"
	"github.com/driveu/backend/internal/database"
	"github.com/driveu/backend/internal/models"
	"github.com/driveu/backend/internal/repository"
)

// Ann Arbor coordinates
const (
	baseLat = 42.2808
	baseLng = -83.7430
)

var (
	firstNames = []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Sam", "Jamie", "Avery", "Quinn",
		"Drew", "Reese", "Parker", "Skyler", "Cameron", "Emerson", "Rowan", "Sawyer", "Finley", "Harper"}
	lastNames = []string{"Miller", "Chen", "Patel", "Johnson", "Garcia", "Kim", "Nguyen", "Brown", "Davis", "Wilson"}

	carMakes  = []string{"Honda", "Toyota", "Ford", "Subaru", "Mazda"}
	carModels = []string{"Civic", "Corolla", "Focus", "Impreza", "3"}
	carColors = []string{"blue", "silver", "black", "white", "red"}

	destinations = []struct {
		name     string
		lat, lng float64
	}{
		{"Detroit Metro Airport", 42.2162, -83.3554},
		{"Briarwood Mall, Ann Arbor", 42.2409, -83.7454},
		{"Michigan Stadium, Ann Arbor", 42.2658, -83.7487},
		{"Somerset Collection, Troy", 42.5559, -83.1836},
	}
)

func main() {
	rand.Seed(time.Now().UnixNano())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.DatabaseURL, cfg.DBMaxConnections, cfg.DBMaxIdleConnections)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	userRepo := repository.NewUserRepository(db.DB)
	tripRepo := repository.NewFutureTripRepository(db.DB)

	// Create riders
	log.Println("Creating 30 riders...")
	riderIDs := make([]string, 0)
	for i := 0; i < 30; i++ {
		name := fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))])
		school := "University of Michigan"
		user := &models.User{
			AuthUID: fmt.Sprintf("seed-rider-%d-%d", i, rand.Intn(100000)),
			Name:    name,
			Email:   fmt.Sprintf("rider%d@umich.edu", i),
			School:  &school,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create rider: %v", err)
			continue
		}
		riderIDs = append(riderIDs, user.ID)
	}
	log.Printf("Created %d riders", len(riderIDs))

	// Create drivers
	log.Println("Creating 20 drivers...")
	driverIDs := make([]string, 0)
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("%s %s", firstNames[rand.Intn(len(firstNames))], lastNames[rand.Intn(len(lastNames))])
		school := "University of Michigan"
		color := carColors[rand.Intn(len(carColors))]
		idx := rand.Intn(len(carMakes))
		carMake := carMakes[idx]
		model := carModels[idx]
		plate := fmt.Sprintf("%c%c%c %04d", 'A'+rand.Intn(26), 'A'+rand.Intn(26), 'A'+rand.Intn(26), rand.Intn(10000))
		mpg := 25.0 + rand.Float64()*15
		capacity := 3 + rand.Intn(3)
		account := fmt.Sprintf("acct_seed%04d", rand.Intn(10000))

		user := &models.User{
			AuthUID:       fmt.Sprintf("seed-driver-%d-%d", i, rand.Intn(100000)),
			Name:          name,
			Email:         fmt.Sprintf("driver%d@umich.edu", i),
			School:        &school,
			IsDriver:      true,
			PayoutAccount: &account,
			CarColor:      &color,
			CarPlate:      &plate,
			CarMake:       &carMake,
			CarModel:      &model,
			CarMPG:        &mpg,
			CarCapacity:   &capacity,
		}

		if err := userRepo.Create(ctx, user); err != nil {
			log.Printf("Failed to create driver: %v", err)
			continue
		}
		driverIDs = append(driverIDs, user.ID)
	}
	log.Printf("Created %d drivers", len(driverIDs))

	// Publish trips for a subset of drivers. Route numbers are seeded
	// directly so the script does not need a Maps key.
	log.Println("Publishing trips...")
	tripCount := 0
	for _, driverID := range driverIDs {
		if rand.Float64() > 0.7 {
			continue
		}

		dest := destinations[rand.Intn(len(destinations))]
		start := time.Now().Add(time.Duration(1+rand.Intn(72)) * time.Hour).Unix()
		driveSecs := int64(1200 + rand.Intn(2400))
		roundTrip := rand.Float64() > 0.5

		trip := &models.FutureTrip{
			DriverID:       driverID,
			Origin:         "Central Campus, Ann Arbor",
			OriginLat:      baseLat + (rand.Float64()-0.5)*0.02,
			OriginLng:      baseLng + (rand.Float64()-0.5)*0.02,
			Destination:    dest.name,
			DestinationLat: dest.lat,
			DestinationLng: dest.lng,
			StartTime:      start,
			ETA:            start + driveSecs,
			RoundTrip:      roundTrip,
			DistanceMiles:  5 + rand.Float64()*30,
			GasPrice:       cfg.DefaultGasPriceUSD,
		}
		if roundTrip {
			trip.TimeAtDestination = int64(1800 + rand.Intn(5400))
			trip.ETS = trip.ETA + trip.TimeAtDestination + driveSecs
		} else {
			trip.ETS = trip.ETA
		}

		if err := tripRepo.Create(ctx, trip); err != nil {
			log.Printf("Failed to create trip: %v", err)
			continue
		}
		tripCount++
	}
	log.Printf("Published %d trips", tripCount)

	// Summary
	log.Println("\n=== Seed Data Summary ===")
	log.Printf("Riders created:  %d", len(riderIDs))
	log.Printf("Drivers created: %d", len(driverIDs))
	log.Printf("Trips published: %d", tripCount)
	log.Println("\nSample Rider ID:", riderIDs[0])
	log.Println("Sample Driver ID:", driverIDs[0])
	log.Println("\nYou can now test with these IDs!")
}
