// Package tourplan holds a user's monthly tour plan: where they intend to
// work each day, submitted to their manager for approval before the month.
package tourplan

import (
	"fmt"
	"strings"
	"time"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/roster"
)

// ActivityType is what a planned day is spent on.
type ActivityType string

const (
	ActivityFieldWork ActivityType = "FIELD_WORK"
	ActivityMeeting   ActivityType = "MEETING"
	ActivityLeave     ActivityType = "LEAVE"
	ActivityHoliday   ActivityType = "HOLIDAY"
	ActivityAdminDay  ActivityType = "ADMIN_DAY"
)

// IsValid reports whether a is a known activity.
func (a ActivityType) IsValid() bool {
	switch a {
	case ActivityFieldWork, ActivityMeeting, ActivityLeave, ActivityHoliday, ActivityAdminDay:
		return true
	}
	return false
}

// Entry is one planned day.
type Entry struct {
	ID               string       `json:"id"`
	Date             string       `json:"date"`
	ActivityType     ActivityType `json:"activityType"`
	TerritoryID      string       `json:"territoryId,omitempty"`
	TerritoryName    string       `json:"territoryName,omitempty"`
	JointWorkWithUID string       `json:"jointWorkWithUid,omitempty"`
	Notes            string       `json:"notes,omitempty"`
}

// Plan is a user's tour plan for a calendar month (1-12). Like expense
// sheets, methods return a new Plan and leave the receiver untouched.
type Plan struct {
	ID              string     `json:"id"`
	UserID          string     `json:"userId"`
	Year            int        `json:"year"`
	Month           int        `json:"month"`
	Status          Status     `json:"status"`
	Entries         []Entry    `json:"entries"`
	SubmittedAt     *time.Time `json:"submittedAt,omitempty"`
	ReviewedBy      string     `json:"reviewedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	Version         int64      `json:"version"`
}

// PlanID returns the document id of a user's monthly plan.
func PlanID(userID string, year, month int) string {
	return fmt.Sprintf("%s_%d_%d", userID, year, month)
}

// NewPlan creates a DRAFT plan with one entry per day. Sundays are seeded as
// HOLIDAY and every other day as FIELD_WORK.
func NewPlan(userID string, year, month int, newID func() string) (Plan, error) {
	if userID == "" {
		return Plan{}, apperr.New(apperr.KindValidation, "MISSING_USER", "User id is required")
	}
	if month < 1 || month > 12 {
		return Plan{}, apperr.Newf(apperr.KindValidation, "INVALID_MONTH", "Month must be between 1 and 12, got %d", month)
	}
	if year < 2000 || year > 2100 {
		return Plan{}, apperr.Newf(apperr.KindValidation, "INVALID_YEAR", "Year %d is out of range", year)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	entries := make([]Entry, 0, days)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		activity := ActivityFieldWork
		if day.Weekday() == time.Sunday {
			activity = ActivityHoliday
		}
		entries = append(entries, Entry{ID: newID(), Date: day.Format("2006-01-02"), ActivityType: activity})
	}

	return Plan{
		ID:      PlanID(userID, year, month),
		UserID:  userID,
		Year:    year,
		Month:   month,
		Status:  StatusDraft,
		Entries: entries,
	}, nil
}

// Clone returns a deep copy of p.
func (p Plan) Clone() Plan {
	out := p
	out.Entries = append([]Entry(nil), p.Entries...)
	out.SubmittedAt = copyTime(p.SubmittedAt)
	out.ApprovedAt = copyTime(p.ApprovedAt)
	return out
}

// IsOwner reports whether actor owns the plan.
func (p Plan) IsOwner(actor roster.Actor) bool {
	return actor.UserID != "" && actor.UserID == p.UserID
}

// CanEdit reports whether actor may change entries.
func (p Plan) CanEdit(actor roster.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	return p.IsOwner(actor) && p.Status.OwnerEditable()
}

// EntryUpdate replaces the editable fields of one planned day. An empty
// TerritoryID clears the territory.
type EntryUpdate struct {
	EntryID          string       `json:"entryId" validate:"required"`
	ActivityType     ActivityType `json:"activityType" validate:"required"`
	TerritoryID      string       `json:"territoryId"`
	JointWorkWithUID string       `json:"jointWorkWithUid"`
	Notes            string       `json:"notes" validate:"max=500"`
}

// ApplyChanges validates every update against the owner's territories and
// then applies them all.
func (p Plan) ApplyChanges(actor roster.Actor, updates []EntryUpdate, territories []roster.Territory) (Plan, error) {
	if !p.CanEdit(actor) {
		return Plan{}, apperr.Newf(apperr.KindPermissionDenied, "PLAN_LOCKED", "Tour plan is %s and cannot be edited", p.Status)
	}

	index := make(map[string]int, len(p.Entries))
	for i, e := range p.Entries {
		index[e.ID] = i
	}
	for _, u := range updates {
		if _, ok := index[u.EntryID]; !ok {
			return Plan{}, apperr.Newf(apperr.KindNotFound, "ENTRY_NOT_FOUND", "Entry %q is not on this plan", u.EntryID)
		}
		if !u.ActivityType.IsValid() {
			return Plan{}, apperr.Newf(apperr.KindValidation, "INVALID_ACTIVITY", "Unknown activity %q", u.ActivityType)
		}
		if u.TerritoryID != "" {
			if _, ok := roster.FindTerritory(territories, u.TerritoryID); !ok {
				return Plan{}, apperr.Newf(apperr.KindValidation, "UNKNOWN_TERRITORY", "Territory %q is not assigned to this user", u.TerritoryID)
			}
		}
		if u.JointWorkWithUID != "" && u.JointWorkWithUID == p.UserID {
			return Plan{}, apperr.New(apperr.KindValidation, "INVALID_JOINT_WORK", "Joint work partner must be another user")
		}
	}

	out := p.Clone()
	for _, u := range updates {
		e := &out.Entries[index[u.EntryID]]
		e.ActivityType = u.ActivityType
		e.TerritoryID = u.TerritoryID
		e.TerritoryName = ""
		if t, ok := roster.FindTerritory(territories, u.TerritoryID); ok {
			e.TerritoryName = t.Name
		}
		e.JointWorkWithUID = u.JointWorkWithUID
		e.Notes = strings.TrimSpace(u.Notes)
	}
	return out, nil
}

// Submit sends the plan for review. Only the owner may submit.
func (p Plan) Submit(actor roster.Actor, now time.Time) (Plan, error) {
	if !p.IsOwner(actor) {
		return Plan{}, apperr.New(apperr.KindPermissionDenied, "NOT_OWNER", "Only the owner can submit this tour plan")
	}
	next, ok := p.Status.Next(ActionSubmit)
	if !ok {
		return Plan{}, invalidTransition(p.Status, ActionSubmit)
	}

	out := p.Clone()
	out.Status = next
	out.SubmittedAt = &now
	out.RejectionReason = ""
	return out, nil
}

// Approve finalizes a submitted plan.
func (p Plan) Approve(actor roster.Actor, owner roster.Profile, now time.Time) (Plan, error) {
	if err := p.authorizeReview(actor, owner, ActionApprove); err != nil {
		return Plan{}, err
	}

	out := p.Clone()
	out.Status = StatusApproved
	out.ReviewedBy = actor.UserID
	out.ApprovedAt = &now
	return out, nil
}

// Reject returns a submitted plan to the owner with a reason.
func (p Plan) Reject(actor roster.Actor, owner roster.Profile, reason string) (Plan, error) {
	if err := p.authorizeReview(actor, owner, ActionReject); err != nil {
		return Plan{}, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Plan{}, apperr.New(apperr.KindValidation, "MISSING_REASON", "A rejection reason is required")
	}

	out := p.Clone()
	out.Status = StatusRejected
	out.ReviewedBy = actor.UserID
	out.RejectionReason = reason
	return out, nil
}

func (p Plan) authorizeReview(actor roster.Actor, owner roster.Profile, a Action) error {
	r, ok := reviewers[actor.Role]
	if !ok {
		return apperr.Newf(apperr.KindPermissionDenied, "NO_APPROVAL_AUTHORITY", "Role %s cannot review tour plans", actor.Role)
	}
	if owner.ID != p.UserID {
		return apperr.New(apperr.KindValidation, "OWNER_MISMATCH", "Owner profile does not match tour plan")
	}
	if r.directOnly && !owner.ReportsTo(actor.UserID) {
		return apperr.New(apperr.KindPermissionDenied, "NOT_DIRECT_REPORT", "Tour plan does not belong to a direct report")
	}
	if _, ok := p.Status.Next(a); !ok || !r.from[p.Status] {
		return invalidTransition(p.Status, a)
	}
	return nil
}

func invalidTransition(from Status, a Action) error {
	return apperr.Newf(apperr.KindInvalidTransition, "INVALID_TRANSITION", "Cannot %s a tour plan in status %s", a, from)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
