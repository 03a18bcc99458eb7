package models

import (
	"fieldforce-backend/internal/attendance"
	"fieldforce-backend/internal/compliance"
	"fieldforce-backend/internal/expense"
	"fieldforce-backend/internal/roster"
)

// ── Field dashboard ──────────────────────────────────────────────

// FieldDashboard is the home screen of a field user.
type FieldDashboard struct {
	User          roster.Profile      `json:"user"`
	Today         attendance.Daily    `json:"today"`
	VisitsToday   int                 `json:"visitsToday"`
	SheetStatus   expense.Status      `json:"sheetStatus,omitempty"`
	MonthTotals   *expense.Totals     `json:"monthTotals,omitempty"`
	Compliance    compliance.Advisory `json:"compliance"`
	UnreadNotices int                 `json:"unreadNotifications"`
}

// ── Manager dashboard ────────────────────────────────────────────

// ManagerDashboard summarizes a manager's team for today.
type ManagerDashboard struct {
	TeamSize         int                       `json:"teamSize"`
	Working          int                       `json:"working"`
	Completed        int                       `json:"completed"`
	Absent           int                       `json:"absent"`
	PendingApprovals int                       `json:"pendingApprovals"`
	Team             []attendance.MemberStatus `json:"team"`
}

// Count fills the status counters from Team.
func (d *ManagerDashboard) Count() {
	d.TeamSize = len(d.Team)
	d.Working, d.Completed, d.Absent = 0, 0, 0
	for _, m := range d.Team {
		switch m.Status {
		case attendance.StatusWorking:
			d.Working++
		case attendance.StatusCompleted:
			d.Completed++
		default:
			d.Absent++
		}
	}
}
