// Package compliance provides pure functions for the monthly HQ-day
// advisory shown on expense sheets. These functions have no dependencies on
// HTTP, storage, or any other infrastructure.
package compliance

import (
	"fmt"
	"time"

	"fieldforce-backend/internal/roster"
)

// ── Advisory Status Constants ────────────────────────────────────
// Status is always computed from (hqDays, role, month, now).
// It is never stored.

const (
	StatusOnTrack    = "on_track"    // Minimum already reached
	StatusAtRisk     = "at_risk"     // Below minimum but still reachable this month
	StatusBelowMin   = "below_min"   // Below minimum and no longer reachable
	StatusNotApplied = "not_applied" // Role is not subject to the HQ-day rule
)

// MinHQDays is the number of HQ days a field rep is expected to log per month.
const MinHQDays = 8

// Advisory is the read-only compliance hint attached to a sheet. It never
// blocks submission.
type Advisory struct {
	Status       string `json:"status"`
	HQDays       int    `json:"hqDays"`
	Required     int    `json:"required"`
	WorkDaysLeft int    `json:"workDaysLeft"`
	Warning      string `json:"warning,omitempty"`
	ShowToOwner  bool   `json:"showToOwner"`
}

// ── Rule ─────────────────────────────────────────────────────────

// OnTrack reports whether hqDays meets the monthly minimum.
func OnTrack(hqDays int) bool {
	return hqDays >= MinHQDays
}

// AppliesTo reports whether the HQ-day advisory is surfaced for owners of
// the given role. Only MRs see it.
func AppliesTo(role roster.Role) bool {
	return role == roster.RoleMR
}

// Evaluate builds the advisory for a sheet of (year, month) owned by a user
// with ownerRole.
//   - hqDays: count of HQ-category entries on the sheet
//   - now:    current time (injected for testability)
func Evaluate(hqDays int, ownerRole roster.Role, year, month int, now time.Time) Advisory {
	a := Advisory{
		HQDays:       hqDays,
		Required:     MinHQDays,
		WorkDaysLeft: WorkDaysLeft(year, month, now),
		ShowToOwner:  AppliesTo(ownerRole),
	}

	switch {
	case !a.ShowToOwner:
		a.Status = StatusNotApplied
	case OnTrack(hqDays):
		a.Status = StatusOnTrack
	case hqDays+a.WorkDaysLeft >= MinHQDays:
		a.Status = StatusAtRisk
		a.Warning = fmt.Sprintf("Only %d HQ days logged, %d required this month", hqDays, MinHQDays)
	default:
		a.Status = StatusBelowMin
		a.Warning = fmt.Sprintf("Only %d HQ days logged, %d required this month", hqDays, MinHQDays)
	}
	return a
}

// ── Helper Computations ──────────────────────────────────────────

// WorkDaysLeft counts the non-Sunday days from today through the end of the
// month. Past months yield 0, future months yield every working day.
func WorkDaysLeft(year, month int, now time.Time) int {
	if month < 1 || month > 12 {
		return 0
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	today := truncateToDay(now)

	start := first
	if today.After(first) {
		start = today
	}

	days := 0
	for d := start; !d.After(last); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Sunday {
			days++
		}
	}
	return days
}

// truncateToDay strips the time component, keeping only the date.
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
