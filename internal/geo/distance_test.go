package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKnownPairs(t *testing.T) {
	hyderabad := Coordinate{Latitude: 17.3850, Longitude: 78.4867}
	vijayawada := Coordinate{Latitude: 16.5062, Longitude: 80.6480}

	d := Distance(hyderabad, vijayawada)
	// about 250 km
	assert.InDelta(t, 250_000, d, 5_000)
	assert.InDelta(t, d, Distance(vijayawada, hyderabad), 1e-6)
	assert.Zero(t, Distance(hyderabad, hyderabad))
}

func TestDistanceIsGreatCircleNotPlanar(t *testing.T) {
	// one degree of longitude is ~111.2 km at the equator and half that at 60°
	equator := Distance(Coordinate{0, 0}, Coordinate{0, 1})
	north := Distance(Coordinate{60, 0}, Coordinate{60, 1})
	assert.InDelta(t, 111_195, equator, 50)
	assert.InDelta(t, equator/2, north, 300)
}

func TestDistanceAntipodal(t *testing.T) {
	d := Distance(Coordinate{0, 0}, Coordinate{0, 180})
	assert.InDelta(t, math.Pi*EarthRadiusMeters, d, 1)
}

func TestCoordinateValidate(t *testing.T) {
	require.NoError(t, Coordinate{Latitude: 90, Longitude: -180}.Validate())

	cases := []Coordinate{
		{Latitude: 91, Longitude: 0},
		{Latitude: 0, Longitude: 180.5},
		{Latitude: math.NaN(), Longitude: 0},
		{Latitude: 0, Longitude: math.Inf(1)},
	}
	for _, c := range cases {
		err := c.Validate()
		require.Error(t, err, c.String())
		assert.ErrorIs(t, err, ErrInvalidCoordinate)
	}
}

func TestClampRadius(t *testing.T) {
	assert.Equal(t, 500.0, ClampRadius(200))
	assert.Equal(t, 100000.0, ClampRadius(500000))
	assert.Equal(t, 7500.0, ClampRadius(7500))
	assert.Equal(t, 500.0, ClampRadius(500))
	assert.Equal(t, 100000.0, ClampRadius(100000))
}
