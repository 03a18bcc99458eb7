// Package attendance records daily punch-in/punch-out with the geofence
// result attached, and summarizes a team's live status.
package attendance

import (
	"fmt"
	"time"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/geofence"
	"fieldforce-backend/internal/location"
	"fieldforce-backend/internal/roster"
)

// DateLayout is the calendar date format used in ids and records.
const DateLayout = "2006-01-02"

// PunchType is IN or OUT.
type PunchType string

const (
	PunchIn  PunchType = "IN"
	PunchOut PunchType = "OUT"
)

// IsValid reports whether t is IN or OUT.
func (t PunchType) IsValid() bool {
	return t == PunchIn || t == PunchOut
}

// Punch is one immutable clock event with the fix it was taken at.
type Punch struct {
	ID                    string       `json:"id"`
	Type                  PunchType    `json:"type"`
	Timestamp             time.Time    `json:"timestamp"`
	Location              location.Fix `json:"location"`
	VerifiedTerritoryID   *string      `json:"verifiedTerritoryId,omitempty"`
	VerifiedTerritoryName *string      `json:"verifiedTerritoryName,omitempty"`
}

// NewPunch builds a punch from a verified fix. A fix outside every
// territory is still recorded, without a verified territory.
func NewPunch(id string, t PunchType, fix location.Fix, res geofence.Result, now time.Time) Punch {
	if fix.Timestamp.IsZero() {
		fix.Timestamp = now
	}
	return Punch{
		ID:                    id,
		Type:                  t,
		Timestamp:             now,
		Location:              fix,
		VerifiedTerritoryID:   res.MatchedTerritoryID,
		VerifiedTerritoryName: res.MatchedTerritoryName,
	}
}

// Daily is a user's attendance for one date.
type Daily struct {
	ID               string  `json:"id"`
	UserID           string  `json:"userId"`
	Date             string  `json:"date"`
	PunchIn          *Punch  `json:"punchIn,omitempty"`
	PunchOuts        []Punch `json:"punchOuts"`
	IsSyncedToSheets bool    `json:"isSyncedToSheets"`
	Version          int64   `json:"version"`
}

// DailyID returns the document id for a user's date.
func DailyID(userID, date string) string {
	return fmt.Sprintf("%s_%s", userID, date)
}

// NewDaily returns an empty record for the date.
func NewDaily(userID, date string) Daily {
	return Daily{ID: DailyID(userID, date), UserID: userID, Date: date, PunchOuts: []Punch{}}
}

// Record attaches p to the day. A second punch-in and a punch-out before
// any punch-in are refused. Any change marks the record as not yet exported.
func (d Daily) Record(p Punch) (Daily, error) {
	switch p.Type {
	case PunchIn:
		if d.PunchIn != nil {
			return Daily{}, apperr.New(apperr.KindInvalidTransition, "ALREADY_PUNCHED_IN", "You have already punched in today")
		}
	case PunchOut:
		if d.PunchIn == nil {
			return Daily{}, apperr.New(apperr.KindInvalidTransition, "NOT_PUNCHED_IN", "Punch in before punching out")
		}
	default:
		return Daily{}, apperr.Newf(apperr.KindValidation, "INVALID_PUNCH_TYPE", "Unknown punch type %q", p.Type)
	}

	out := d
	out.PunchOuts = append([]Punch{}, d.PunchOuts...)
	if p.Type == PunchIn {
		out.PunchIn = &p
	} else {
		out.PunchOuts = append(out.PunchOuts, p)
	}
	out.IsSyncedToSheets = false
	return out, nil
}

// LastPunchOut returns the most recent punch-out, if any.
func (d Daily) LastPunchOut() *Punch {
	if len(d.PunchOuts) == 0 {
		return nil
	}
	p := d.PunchOuts[len(d.PunchOuts)-1]
	return &p
}

// Message levels for punch feedback.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
)

// StatusMessage returns the user-facing feedback for a punch.
func StatusMessage(t PunchType, res geofence.Result) (string, string) {
	if res.Matched() {
		if t == PunchIn {
			return "Verified: Inside " + *res.MatchedTerritoryName, LevelSuccess
		}
		return "Punched out inside " + *res.MatchedTerritoryName, LevelSuccess
	}
	if t == PunchIn {
		return "Warning: You are outside your assigned territory.", LevelInfo
	}
	return "Punched out outside your assigned territories.", LevelInfo
}

// LiveStatus is a team member's state for the day.
type LiveStatus string

const (
	StatusAbsent    LiveStatus = "ABSENT"
	StatusWorking   LiveStatus = "WORKING"
	StatusCompleted LiveStatus = "COMPLETED"
)

// MemberStatus is one row of the manager's live dashboard.
type MemberStatus struct {
	UserID     string      `json:"userId"`
	Name       string      `json:"name"`
	Role       roster.Role `json:"role"`
	Status     LiveStatus  `json:"status"`
	Location   string      `json:"location"`
	LastActive *time.Time  `json:"lastActive,omitempty"`
}

// TeamStatus derives each field member's status from today's records,
// keyed by user id. Only MRs and ASMs are listed.
func TeamStatus(members []roster.Profile, today map[string]Daily) []MemberStatus {
	out := []MemberStatus{}
	for _, m := range members {
		if m.Role != roster.RoleMR && m.Role != roster.RoleASM {
			continue
		}
		row := MemberStatus{
			UserID:   m.ID,
			Name:     m.DisplayName,
			Role:     m.Role,
			Status:   StatusAbsent,
			Location: "Not Started",
		}
		if d, ok := today[m.ID]; ok && d.PunchIn != nil {
			row.Status = StatusWorking
			if len(d.PunchOuts) > 0 {
				row.Status = StatusCompleted
			}
			row.Location = "Field"
			if d.PunchIn.VerifiedTerritoryName != nil {
				row.Location = *d.PunchIn.VerifiedTerritoryName
			}
			ts := d.PunchIn.Timestamp
			row.LastActive = &ts
		}
		out = append(out, row)
	}
	return out
}

// WorkingCount returns how many members are currently working.
func WorkingCount(rows []MemberStatus) int {
	n := 0
	for _, r := range rows {
		if r.Status == StatusWorking {
			n++
		}
	}
	return n
}
