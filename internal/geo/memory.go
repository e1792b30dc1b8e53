package geo

import (
	"context"
	"sync"
)

// MemoryIndex is an in-process Index backed by a full haversine scan.
type MemoryIndex struct {
	mu     sync.RWMutex
	points map[int64]Coordinate
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[int64]Coordinate)}
}

func (m *MemoryIndex) Upsert(_ context.Context, shopID int64, c Coordinate) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.points[shopID] = c
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) Remove(_ context.Context, shopID int64) error {
	m.mu.Lock()
	delete(m.points, shopID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryIndex) WithinRadius(ctx context.Context, origin Coordinate, radiusMeters float64) ([]Hit, error) {
	if err := origin.Validate(); err != nil {
		return nil, err
	}
	radius := ClampRadius(radiusMeters)

	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make([]Hit, 0)
	for id, c := range m.points {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := Distance(origin, c)
		if d <= radius {
			hits = append(hits, Hit{ShopID: id, Coordinate: c, DistanceMeters: d})
		}
	}
	sortHits(hits)
	return hits, nil
}

// Len returns the number of indexed shops.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points)
}
