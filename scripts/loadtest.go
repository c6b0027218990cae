//go:build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Ann Arbor coordinates
const (
	baseURL = "http://localhost:8080"
	baseLat = 42.2808
	baseLng = -83.7430
)

type Stats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	TotalLatency    int64
	MinLatency      int64
	MaxLatency      int64
}

func main() {
	rand.Seed(time.Now().UnixNano())

	fmt.Println("DriveU Load Test")
	fmt.Println("================")

	// First, seed some data
	fmt.Println("\n1. Creating test data...")
	riderIDs, driverIDs := createTestData()

	if len(riderIDs) == 0 || len(driverIDs) == 0 {
		log.Fatal("Failed to create test data")
	}

	fmt.Printf("Created %d riders and %d drivers\n", len(riderIDs), len(driverIDs))

	// Test 1: Trip Discovery Throughput
	fmt.Println("\n2. Testing Trip Discovery (1000 searches, 50 concurrent)...")
	stats := testDiscovery(riderIDs, 1000, 50)
	printStats("Trip Discovery", stats)

	// Test 2: Trip Publishing
	fmt.Println("\n3. Testing Trip Publishing (100 trips, 10 concurrent)...")
	stats = testTripPublishing(driverIDs, 100, 10)
	printStats("Trip Publishing", stats)

	// Test 3: Mixed Load
	fmt.Println("\n4. Testing Mixed Load (30 seconds)...")
	stats = testMixedLoad(riderIDs, 30*time.Second)
	printStats("Mixed Load", stats)

	fmt.Println("\nLoad test completed!")
}

func createTestData() ([]string, []string) {
	riderIDs := make([]string, 0)
	driverIDs := make([]string, 0)

	// Create riders
	for i := 0; i < 20; i++ {
		rider := map[string]interface{}{
			"auth_uid": fmt.Sprintf("loadtest-rider-%d-%d", i, time.Now().UnixNano()),
			"name":     fmt.Sprintf("LoadTest Rider %d", i),
			"email":    fmt.Sprintf("loadtest.rider%d@umich.edu", i),
		}
		body, _ := json.Marshal(rider)
		resp, err := http.Post(baseURL+"/v1/users", "application/json", bytes.NewBuffer(body))
		if err != nil {
			continue
		}
		defer resp.Body.Close()

		if resp.StatusCode == 201 {
			var result map[string]interface{}
			json.NewDecoder(resp.Body).Decode(&result)
			if id, ok := result["id"].(string); ok {
				riderIDs = append(riderIDs, id)
			}
		}
	}

	// Create drivers
	for i := 0; i < 20; i++ {
		driver := map[string]interface{}{
			"auth_uid":       fmt.Sprintf("loadtest-driver-%d-%d", i, time.Now().UnixNano()),
			"name":           fmt.Sprintf("LoadTest Driver %d", i),
			"email":          fmt.Sprintf("loadtest.driver%d@umich.edu", i),
			"is_driver":      true,
			"car_color":      "blue",
			"car_plate":      fmt.Sprintf("LT %04d", rand.Intn(10000)),
			"car_make":       "Honda",
			"car_model":      "Civic",
			"car_mpg":        32.0,
			"car_capacity":   4,
			"payout_account": fmt.Sprintf("acct_loadtest%04d", i),
		}
		body, _ := json.Marshal(driver)
		resp, err := http.Post(baseURL+"/v1/users", "application/json", bytes.NewBuffer(body))
		if err != nil {
			continue
		}
		defer resp.Body.Close()

		if resp.StatusCode == 201 {
			var result map[string]interface{}
			json.NewDecoder(resp.Body).Decode(&result)
			if id, ok := result["id"].(string); ok {
				driverIDs = append(driverIDs, id)
			}
		}
	}

	return riderIDs, driverIDs
}

func testDiscovery(riderIDs []string, numRequests, concurrency int) *Stats {
	stats := &Stats{MinLatency: int64(^uint64(0) >> 1)}
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(riderID string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			lat := baseLat + (rand.Float64()-0.5)*0.1
			lng := baseLng + (rand.Float64()-0.5)*0.1

			url := fmt.Sprintf("%s/v1/trips/discover?rider_id=%s&lat=%f&lng=%f&radius=10", baseURL, riderID, lat, lng)

			start := time.Now()
			resp, err := http.Get(url)
			latency := time.Since(start).Milliseconds()

			atomic.AddInt64(&stats.TotalRequests, 1)
			atomic.AddInt64(&stats.TotalLatency, latency)

			if err != nil || resp.StatusCode != 200 {
				atomic.AddInt64(&stats.FailedRequests, 1)
				if resp != nil {
					io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			atomic.AddInt64(&stats.SuccessRequests, 1)
			recordLatency(stats, latency)
		}(riderIDs[rand.Intn(len(riderIDs))])
	}

	wg.Wait()
	return stats
}

func testTripPublishing(driverIDs []string, numRequests, concurrency int) *Stats {
	stats := &Stats{MinLatency: int64(^uint64(0) >> 1)}
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(idx int, driverID string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			// Spread start times so trips never overlap for a driver
			start := time.Now().Add(time.Duration(24+idx*4) * time.Hour).Unix()

			trip := map[string]interface{}{
				"driver_id":   driverID,
				"origin":      "Central Campus, Ann Arbor, MI",
				"destination": "Detroit Metro Airport, Romulus, MI",
				"start_time":  start,
			}
			body, _ := json.Marshal(trip)

			req, _ := http.NewRequest("POST", baseURL+"/v1/trips", bytes.NewBuffer(body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Idempotency-Key", fmt.Sprintf("load-test-trip-%d-%d", idx, time.Now().UnixNano()))

			begin := time.Now()
			resp, err := http.DefaultClient.Do(req)
			latency := time.Since(begin).Milliseconds()

			atomic.AddInt64(&stats.TotalRequests, 1)
			atomic.AddInt64(&stats.TotalLatency, latency)

			if err != nil || (resp.StatusCode != 201 && resp.StatusCode != 409) {
				atomic.AddInt64(&stats.FailedRequests, 1)
				if resp != nil {
					io.Copy(io.Discard, resp.Body)
					resp.Body.Close()
				}
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()

			atomic.AddInt64(&stats.SuccessRequests, 1)
			recordLatency(stats, latency)
		}(i, driverIDs[rand.Intn(len(driverIDs))])
	}

	wg.Wait()
	return stats
}

func testMixedLoad(riderIDs []string, duration time.Duration) *Stats {
	stats := &Stats{MinLatency: int64(^uint64(0) >> 1)}
	var wg sync.WaitGroup
	done := make(chan struct{})

	// Discovery polling workers (high frequency)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					riderID := riderIDs[rand.Intn(len(riderIDs))]
					lat := baseLat + (rand.Float64()-0.5)*0.1
					lng := baseLng + (rand.Float64()-0.5)*0.1

					url := fmt.Sprintf("%s/v1/trips/discover?rider_id=%s&lat=%f&lng=%f", baseURL, riderID, lat, lng)

					start := time.Now()
					resp, err := http.Get(url)
					latency := time.Since(start).Milliseconds()

					atomic.AddInt64(&stats.TotalRequests, 1)
					atomic.AddInt64(&stats.TotalLatency, latency)

					if err != nil || resp.StatusCode != 200 {
						atomic.AddInt64(&stats.FailedRequests, 1)
					} else {
						atomic.AddInt64(&stats.SuccessRequests, 1)
					}

					if resp != nil {
						io.Copy(io.Discard, resp.Body)
						resp.Body.Close()
					}

					time.Sleep(10 * time.Millisecond)
				}
			}
		}()
	}

	// Wait for duration
	time.Sleep(duration)
	close(done)
	wg.Wait()

	return stats
}

func recordLatency(stats *Stats, latency int64) {
	for {
		old := atomic.LoadInt64(&stats.MinLatency)
		if latency >= old || atomic.CompareAndSwapInt64(&stats.MinLatency, old, latency) {
			break
		}
	}
	for {
		old := atomic.LoadInt64(&stats.MaxLatency)
		if latency <= old || atomic.CompareAndSwapInt64(&stats.MaxLatency, old, latency) {
			break
		}
	}
}

func printStats(name string, stats *Stats) {
	avgLatency := float64(0)
	if stats.TotalRequests > 0 {
		avgLatency = float64(stats.TotalLatency) / float64(stats.TotalRequests)
	}

	fmt.Printf("\n%s Results:\n", name)
	fmt.Printf("  Total Requests:   %d\n", stats.TotalRequests)
	fmt.Printf("  Successful:       %d\n", stats.SuccessRequests)
	fmt.Printf("  Failed:           %d\n", stats.FailedRequests)
	fmt.Printf("  Success Rate:     %.2f%%\n", float64(stats.SuccessRequests)/float64(stats.TotalRequests)*100)
	fmt.Printf("  Avg Latency:      %.2f ms\n", avgLatency)
	if stats.MinLatency != int64(^uint64(0)>>1) {
		fmt.Printf("  Min Latency:      %d ms\n", stats.MinLatency)
	}
	fmt.Printf("  Max Latency:      %d ms\n", stats.MaxLatency)
	fmt.Printf("  Throughput:       %.0f req/s\n", float64(stats.TotalRequests)/(float64(stats.TotalLatency)/1000))
}
