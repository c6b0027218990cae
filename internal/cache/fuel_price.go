package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const fuelPriceKeyPrefix = "fuel:price:"

// FuelPriceCache memoizes gas prices by area so trip publishes in the same
// neighborhood don't each hit the upstream provider. Coordinates are rounded
// to two decimals (roughly a one-kilometer cell).
type FuelPriceCache interface {
	Get(ctx context.Context, lat, lng float64) (float64, bool, error)
	Set(ctx context.Context, lat, lng, price float64) error
}

type fuelPriceCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewFuelPriceCache(redisClient *redis.Client, ttl time.Duration) FuelPriceCache {
	return &fuelPriceCache{redis: redisClient, ttl: ttl}
}

func (c *fuelPriceCache) Get(ctx context.Context, lat, lng float64) (float64, bool, error) {
	result, err := c.redis.Get(ctx, fuelPriceKey(lat, lng)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	price, err := strconv.ParseFloat(result, 64)
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

func (c *fuelPriceCache) Set(ctx context.Context, lat, lng, price float64) error {
	return c.redis.Set(ctx, fuelPriceKey(lat, lng), fmt.Sprintf("%.3f", price), c.ttl).Err()
}

func fuelPriceKey(lat, lng float64) string {
	return fmt.Sprintf("%s%.2f:%.2f", fuelPriceKeyPrefix, lat, lng)
}
