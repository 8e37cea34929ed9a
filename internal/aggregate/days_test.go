package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysUntil(t *testing.T) {
	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   int
	}{
		{"same instant", now, 0},
		{"one nanosecond ahead", now.Add(time.Nanosecond), 1},
		{"exactly one day", now.Add(24 * time.Hour), 1},
		{"one and a half days", now.Add(36 * time.Hour), 2},
		{"half a day behind", now.Add(-12 * time.Hour), 0},
		{"exactly one day behind", now.Add(-24 * time.Hour), -1},
		{"one and a half days behind", now.Add(-36 * time.Hour), -1},
		{"fourteen days", now.AddDate(0, 0, 14), 14},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DaysUntil(tt.target, now))
		})
	}
}

func TestWeekStart(t *testing.T) {
	// 2025-06-04 is a Wednesday, 2025-06-08 a Sunday.
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), weekStart(time.Date(2025, 6, 4, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), weekStart(time.Date(2025, 6, 8, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), weekStart(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)))
}

func TestCheckDueDate(t *testing.T) {
	issue := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	assert.Nil(t, CheckDueDate("INV-1", issue, issue))
	assert.Nil(t, CheckDueDate("INV-1", issue, issue.AddDate(0, 0, 14)))

	w := CheckDueDate("INV-1", issue, issue.AddDate(0, 0, -1))
	if assert.NotNil(t, w) {
		assert.Equal(t, WarningDueBeforeIssue, w.Code)
		assert.Equal(t, "INV-1", w.Subject)
		assert.Contains(t, w.String(), "2025-06-09")
	}
}
