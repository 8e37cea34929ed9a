package aggregate

import (
	"fmt"
	"time"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

// Regulatory driving caps in minutes.
const (
	DailyDrivingCapMinutes  = 540  // 9h
	WeeklyDrivingCapMinutes = 3360 // 56h
)

// DrivingBudget is the remaining driving time in minutes.
type DrivingBudget struct {
	Daily  int
	Weekly int
}

// Effective is what the driver may still drive today, given both caps.
func (b DrivingBudget) Effective() int {
	return min(b.Daily, b.Weekly)
}

// RemainingDrivingTime returns cap minus consumed for both periods, never below zero.
// Negative consumption is treated as none.
func RemainingDrivingTime(dailyConsumedMinutes, weeklyConsumedMinutes int) DrivingBudget {
	return DrivingBudget{
		Daily:  remaining(DailyDrivingCapMinutes, dailyConsumedMinutes),
		Weekly: remaining(WeeklyDrivingCapMinutes, weeklyConsumedMinutes),
	}
}

func remaining(limit, consumed int) int {
	if consumed < 0 {
		consumed = 0
	}
	return max(0, limit-consumed)
}

// DrivingTimeLedger is the consumed driving time of one driver as of a given day.
type DrivingTimeLedger struct {
	DriverID               string
	Date                   time.Time
	ConsumedMinutesDriving int
	ConsumedMinutesWeek    int
	Warnings               []DataIntegrityWarning
}

func (l DrivingTimeLedger) Remaining() DrivingBudget {
	return RemainingDrivingTime(l.ConsumedMinutesDriving, l.ConsumedMinutesWeek)
}

// BuildDrivingLedger sums the driver's logs for the day of asOf and for its
// ISO week (Monday up to and including that day). Logs of other drivers,
// later days or earlier weeks are ignored; negative entries are skipped with a warning.
func BuildDrivingLedger(driverID string, asOf time.Time, logs []model.DrivingLog) DrivingTimeLedger {
	today := dateOnly(asOf)
	monday := weekStart(asOf)

	ledger := DrivingTimeLedger{DriverID: driverID, Date: today}
	for _, l := range logs {
		if l.DriverID != driverID {
			continue
		}
		logDay := dateOnly(time.Time(l.Day))
		if logDay.Before(monday) || logDay.After(today) {
			continue
		}
		if l.Minutes < 0 {
			ledger.Warnings = append(ledger.Warnings, DataIntegrityWarning{
				Code:    WarningNegativeDrivingMinutes,
				Subject: driverID,
				Message: fmt.Sprintf("driving log %s on %s has %d minutes", l.ID, logDay.Format(time.DateOnly), l.Minutes),
			})
			continue
		}

		ledger.ConsumedMinutesWeek += l.Minutes
		if logDay.Equal(today) {
			ledger.ConsumedMinutesDriving += l.Minutes
		}
	}
	return ledger
}
