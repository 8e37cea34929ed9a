package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupancyRate(t *testing.T) {
	assert.Equal(t, 0.0, OccupancyRate(5, 0))
	assert.Equal(t, 0.0, OccupancyRate(5, -1))
	assert.Equal(t, 50.0, OccupancyRate(25, 50))
	assert.Equal(t, 100.0, OccupancyRate(50, 50))
	assert.Equal(t, 100.0, OccupancyRate(60, 50))
	assert.InDelta(t, 33.333, OccupancyRate(1, 3), 0.001)
}

func TestAvailableSeats(t *testing.T) {
	seats, warn := AvailableSeats(30, 50)
	assert.Equal(t, 20, seats)
	assert.Nil(t, warn)

	seats, warn = AvailableSeats(50, 50)
	assert.Equal(t, 0, seats)
	assert.Nil(t, warn)

	seats, warn = AvailableSeats(53, 50)
	assert.Equal(t, 0, seats)
	require.NotNil(t, warn)
	assert.Equal(t, WarningNegativeAvailableSeats, warn.Code)
}

func TestTripOccupancy(t *testing.T) {
	occ := TripOccupancy("T-17", 55, 50)
	assert.Equal(t, 100.0, occ.Rate)
	assert.Equal(t, 0, occ.AvailableSeats)
	require.Len(t, occ.Warnings, 1)
	assert.Equal(t, "T-17", occ.Warnings[0].Subject)

	occ = TripOccupancy("T-18", 10, 40)
	assert.Equal(t, 25.0, occ.Rate)
	assert.Equal(t, 30, occ.AvailableSeats)
	assert.Empty(t, occ.Warnings)
}
