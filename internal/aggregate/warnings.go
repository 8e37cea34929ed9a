package aggregate

import (
	"fmt"
	"time"
)

type WarningCode string

const (
	WarningNegativeAvailableSeats WarningCode = "negative_available_seats"
	WarningNegativeDrivingMinutes WarningCode = "negative_driving_minutes"
	WarningDueBeforeIssue         WarningCode = "due_before_issue"
)

// DataIntegrityWarning flags inconsistent source data. The value it belongs to
// has already been clamped to a safe default; nothing here is fatal.
type DataIntegrityWarning struct {
	Code    WarningCode
	Subject string
	Message string
}

func (w DataIntegrityWarning) String() string {
	return fmt.Sprintf("%s [%s]: %s", w.Code, w.Subject, w.Message)
}

// CheckDueDate warns when a due date lies before its issue date.
func CheckDueDate(subject string, issueDate, dueDate time.Time) *DataIntegrityWarning {
	if !dueDate.Before(issueDate) {
		return nil
	}
	return &DataIntegrityWarning{
		Code:    WarningDueBeforeIssue,
		Subject: subject,
		Message: fmt.Sprintf("due date %s is before issue date %s",
			dueDate.Format(time.DateOnly), issueDate.Format(time.DateOnly)),
	}
}
