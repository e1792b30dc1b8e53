// Package geo stores shop coordinates and answers radius queries with
// great-circle distances. Three backends share the Index contract: Redis GEO
// sets, an Elasticsearch geo_point index and an in-process scan.
package geo

import (
	"context"
	"errors"
	"sort"
)

// ErrOutOfIndexRange is returned when a valid WGS84 coordinate falls outside what
// a backend can store.
var ErrOutOfIndexRange = errors.New("coordinate outside index range")

// Hit is one shop inside the queried radius.
type Hit struct {
	ShopID         int64
	Coordinate     Coordinate
	DistanceMeters float64
}

// Index is the spatial lookup used by search. Implementations clamp the radius,
// order hits by distance ascending and only return hits within the clamped radius.
type Index interface {
	Upsert(ctx context.Context, shopID int64, c Coordinate) error
	Remove(ctx context.Context, shopID int64) error
	WithinRadius(ctx context.Context, origin Coordinate, radiusMeters float64) ([]Hit, error)
}

// Bounded is implemented by backends that store only part of the WGS84 range.
type Bounded interface {
	CheckBounds(c Coordinate) error
}

// CheckIndexable validates c and, for bounded backends, the backend range.
func CheckIndexable(idx Index, c Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if b, ok := idx.(Bounded); ok {
		return b.CheckBounds(c)
	}
	return nil
}

// sortHits orders by distance, then shop id, so results are deterministic.
func sortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].DistanceMeters != hits[j].DistanceMeters {
			return hits[i].DistanceMeters < hits[j].DistanceMeters
		}
		return hits[i].ShopID < hits[j].ShopID
	})
}

// keepWithin drops hits the backend reported past the radius.
func keepWithin(hits []Hit, radius float64) []Hit {
	out := hits[:0]
	for _, h := range hits {
		if h.DistanceMeters <= radius {
			out = append(out, h)
		}
	}
	return out
}
