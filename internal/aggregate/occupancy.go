package aggregate

import "fmt"

// OccupancyRate returns current/max as a percentage in [0, 100].
// An unset or zero capacity yields 0.
func OccupancyRate(currentPassengers, maxPassengers int) float64 {
	if maxPassengers <= 0 {
		return 0
	}
	rate := float64(currentPassengers) / float64(maxPassengers) * 100
	return min(max(rate, 0), 100)
}

// AvailableSeats returns the free seats, clamped at zero. An overbooked trip
// yields 0 plus a warning.
func AvailableSeats(currentPassengers, maxPassengers int) (int, *DataIntegrityWarning) {
	free := maxPassengers - currentPassengers
	if free >= 0 {
		return free, nil
	}
	return 0, &DataIntegrityWarning{
		Code:    WarningNegativeAvailableSeats,
		Message: fmt.Sprintf("%d passengers on %d seats", currentPassengers, maxPassengers),
	}
}

type Occupancy struct {
	Rate           float64
	AvailableSeats int
	Warnings       []DataIntegrityWarning
}

// TripOccupancy combines rate and free seats for a multi-passenger trip.
func TripOccupancy(tripID string, currentPassengers, maxPassengers int) Occupancy {
	occ := Occupancy{Rate: OccupancyRate(currentPassengers, maxPassengers)}

	seats, warn := AvailableSeats(currentPassengers, maxPassengers)
	occ.AvailableSeats = seats
	if warn != nil {
		warn.Subject = tripID
		occ.Warnings = append(occ.Warnings, *warn)
	}
	return occ
}
