package aggregate

import (
	"time"

	"github.com/Leganyst/charter-scheduling/internal/model"
)

var maintenanceLookaheadDays = map[model.MaintenanceType]int{
	model.MaintenanceTypeHU: 30,
	model.MaintenanceTypeSP: 14,
}

// MaintenanceLookahead returns the warning threshold in days for an inspection type.
func MaintenanceLookahead(t model.MaintenanceType) (int, bool) {
	days, ok := maintenanceLookaheadDays[t]
	return days, ok
}

// IsMaintenanceDueSoon reports whether dueDate falls within the type's lookahead.
// Overdue windows are due soon as well. Unknown types never are.
func IsMaintenanceDueSoon(t model.MaintenanceType, dueDate, now time.Time) bool {
	threshold, ok := MaintenanceLookahead(t)
	if !ok {
		return false
	}
	return DaysUntil(dueDate, now) <= threshold
}

// NearestActiveWindow picks the incomplete window of busID and type that
// decides the due-soon state: the nearest due date not before now, or, when
// every active window is already past, the most recent one.
func NearestActiveWindow(windows []model.MaintenanceWindow, busID string, t model.MaintenanceType, now time.Time) (model.MaintenanceWindow, bool) {
	var (
		future, past       model.MaintenanceWindow
		hasFuture, hasPast bool
	)
	for _, w := range windows {
		if w.BusID != busID || w.Type != t || w.Completed {
			continue
		}
		due := w.Due()
		if DaysUntil(due, now) >= 0 {
			if !hasFuture || due.Before(future.Due()) {
				future, hasFuture = w, true
			}
			continue
		}
		if !hasPast || due.After(past.Due()) {
			past, hasPast = w, true
		}
	}

	if hasFuture {
		return future, true
	}
	return past, hasPast
}

// MaintenanceState summarises one inspection type of a bus.
type MaintenanceState struct {
	Type         model.MaintenanceType
	Window       *model.MaintenanceWindow
	DaysUntilDue int
	DueSoon      bool
	Overdue      bool
	Warnings     []DataIntegrityWarning
}

// MaintenanceStatus evaluates HU and SP for busID. Types without an active window
// are reported with a nil Window and DueSoon=false. A window due before its
// issue date is still evaluated and carries a warning.
func MaintenanceStatus(busID string, windows []model.MaintenanceWindow, now time.Time) []MaintenanceState {
	types := []model.MaintenanceType{model.MaintenanceTypeHU, model.MaintenanceTypeSP}

	out := make([]MaintenanceState, 0, len(types))
	for _, t := range types {
		st := MaintenanceState{Type: t}
		if w, ok := NearestActiveWindow(windows, busID, t, now); ok {
			st.Window = &w
			st.DaysUntilDue = DaysUntil(w.Due(), now)
			st.DueSoon = IsMaintenanceDueSoon(t, w.Due(), now)
			st.Overdue = st.DaysUntilDue < 0
			if w.IssuedOn != nil {
				if warn := CheckDueDate(w.ID.String(), time.Time(*w.IssuedOn), w.Due()); warn != nil {
					st.Warnings = append(st.Warnings, *warn)
				}
			}
		}
		out = append(out, st)
	}
	return out
}
