// Package fuel looks up local gas prices for trip pricing snapshots.
package fuel

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/driveu/backend/internal/cache"
)

// PriceSource returns the USD/gallon gasoline price near a coordinate.
type PriceSource interface {
	GasPrice(ctx context.Context, lat, lng float64) (float64, error)
}

// CollectAPIClient fetches gas prices from the CollectAPI gasPrice endpoint.
type CollectAPIClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewCollectAPIClient(apiKey string) *CollectAPIClient {
	return &CollectAPIClient{
		baseURL: "https://api.collectapi.com/gasPrice",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type gasPriceResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Gasoline string `json:"gasoline"`
	} `json:"result"`
}

func (c *CollectAPIClient) GasPrice(ctx context.Context, lat, lng float64) (float64, error) {
	url := fmt.Sprintf("%s/fromCoordinates?lng=%f&lat=%f", c.baseURL, lng, lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "apikey "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("collectapi returned status %d", resp.StatusCode)
	}

	var body gasPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	if !body.Success {
		return 0, fmt.Errorf("collectapi reported failure")
	}

	price, err := strconv.ParseFloat(body.Result.Gasoline, 64)
	if err != nil {
		return 0, fmt.Errorf("collectapi returned unparseable price %q", body.Result.Gasoline)
	}
	return price, nil
}

// CachedSource wraps a PriceSource with the redis-backed area cache and a
// fallback price for when the upstream is down. It never returns an error:
// a pricing snapshot must always be available at publish time.
type CachedSource struct {
	source   PriceSource
	cache    cache.FuelPriceCache
	fallback float64
}

func NewCachedSource(source PriceSource, priceCache cache.FuelPriceCache, fallback float64) *CachedSource {
	return &CachedSource{source: source, cache: priceCache, fallback: fallback}
}

func (s *CachedSource) GasPrice(ctx context.Context, lat, lng float64) (float64, error) {
	if price, ok, err := s.cache.Get(ctx, lat, lng); err == nil && ok {
		return price, nil
	}

	price, err := s.source.GasPrice(ctx, lat, lng)
	if err != nil {
		log.Printf("fuel price lookup failed, using fallback %.2f: %v", s.fallback, err)
		return s.fallback, nil
	}

	if err := s.cache.Set(ctx, lat, lng, price); err != nil {
		log.Printf("fuel price cache write failed: %v", err)
	}
	return price, nil
}
