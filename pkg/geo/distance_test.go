package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm_Symmetric(t *testing.T) {
	points := [][2]float64{
		{6.5244, 3.3792},
		{9.0765, 7.3986},
		{40.7128, -74.0060},
		{-33.8688, 151.2093},
		{0, 179.9},
		{0, -179.9},
	}

	for _, a := range points {
		for _, b := range points {
			ab := HaversineKm(a[0], a[1], b[0], b[1])
			ba := HaversineKm(b[0], b[1], a[0], a[1])
			assert.InDelta(t, ab, ba, 1e-9)
		}
		assert.Zero(t, HaversineKm(a[0], a[1], a[0], a[1]))
	}
}

func TestHaversineKm_KnownDistance(t *testing.T) {
	// Lagos to Abuja is roughly 525 km as the crow flies.
	d := HaversineKm(6.5244, 3.3792, 9.0765, 7.3986)
	assert.InDelta(t, 525, d, 10)
}

func TestDistanceKm_RoundsToOneDecimal(t *testing.T) {
	d := DistanceKm(6.5244, 3.3792, 6.5344, 3.3792)
	assert.Equal(t, 1.1, d)
	assert.Equal(t, d, math.Round(d*10)/10)
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(6.5, 3.3))
	assert.False(t, ValidCoordinate(math.NaN(), 3.3))
	assert.False(t, ValidCoordinate(6.5, math.Inf(1)))
	assert.False(t, ValidCoordinate(91, 0))
	assert.False(t, ValidCoordinate(0, -181))
}
