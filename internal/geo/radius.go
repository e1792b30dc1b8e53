package geo

const (
	MinRadiusMeters     = 500.0
	MaxRadiusMeters     = 100000.0
	DefaultRadiusMeters = 10000.0
)

// ClampRadius silently clamps radius into [MinRadiusMeters, MaxRadiusMeters].
func ClampRadius(radius float64) float64 {
	return ClampRadiusTo(radius, MinRadiusMeters, MaxRadiusMeters)
}

// ClampRadiusTo clamps radius into [lo, hi].
func ClampRadiusTo(radius, lo, hi float64) float64 {
	if radius < lo {
		return lo
	}
	if radius > hi {
		return hi
	}
	return radius
}
