package geo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey is the GEO set holding every shop location.
	DefaultRedisKey = "shop:geo"
	// RedisMaxLatitude is the EPSG:3857 bound GEOADD enforces.
	RedisMaxLatitude = 85.05112878
)

// RedisIndex stores shop locations in a Redis GEO set and queries it with GEOSEARCH.
type RedisIndex struct {
	rdb redis.Cmdable
	key string
}

func NewRedisIndex(rdb redis.Cmdable, key string) *RedisIndex {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisIndex{rdb: rdb, key: key}
}

// CheckBounds rejects latitudes GEOADD would refuse.
func (r *RedisIndex) CheckBounds(c Coordinate) error {
	if c.Latitude < -RedisMaxLatitude || c.Latitude > RedisMaxLatitude {
		return fmt.Errorf("%w: redis GEO accepts latitude within ±%.8f, got %.6f",
			ErrOutOfIndexRange, RedisMaxLatitude, c.Latitude)
	}
	return nil
}

func (r *RedisIndex) Upsert(ctx context.Context, shopID int64, c Coordinate) error {
	if err := CheckIndexable(r, c); err != nil {
		return err
	}
	return r.rdb.GeoAdd(ctx, r.key, &redis.GeoLocation{
		Name:      strconv.FormatInt(shopID, 10),
		Longitude: c.Longitude,
		Latitude:  c.Latitude,
	}).Err()
}

func (r *RedisIndex) Remove(ctx context.Context, shopID int64) error {
	return r.rdb.ZRem(ctx, r.key, strconv.FormatInt(shopID, 10)).Err()
}

// UpsertBatch writes all locations in one pipeline.
func (r *RedisIndex) UpsertBatch(ctx context.Context, locations map[int64]Coordinate) error {
	if len(locations) == 0 {
		return nil
	}
	for id, c := range locations {
		if err := CheckIndexable(r, c); err != nil {
			return fmt.Errorf("shop %d: %w", id, err)
		}
	}
	_, err := r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for id, c := range locations {
			pipe.GeoAdd(ctx, r.key, &redis.GeoLocation{
				Name:      strconv.FormatInt(id, 10),
				Longitude: c.Longitude,
				Latitude:  c.Latitude,
			})
		}
		return nil
	})
	return err
}

func (r *RedisIndex) WithinRadius(ctx context.Context, origin Coordinate, radiusMeters float64) ([]Hit, error) {
	if err := CheckIndexable(r, origin); err != nil {
		return nil, err
	}
	radius := ClampRadius(radiusMeters)
	locations, err := r.rdb.GeoSearchLocation(ctx, r.key, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Longitude,
			Latitude:   origin.Latitude,
			Radius:     radius,
			RadiusUnit: "m",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis geosearch: %w", err)
	}

	hits := make([]Hit, 0, len(locations))
	for _, loc := range locations {
		id, err := strconv.ParseInt(loc.Name, 10, 64)
		if err != nil {
			// not a shop member
			continue
		}
		hits = append(hits, Hit{
			ShopID:         id,
			Coordinate:     Coordinate{Latitude: loc.Latitude, Longitude: loc.Longitude},
			DistanceMeters: loc.Dist,
		})
	}
	hits = keepWithin(hits, radius)
	sortHits(hits)
	return hits, nil
}
