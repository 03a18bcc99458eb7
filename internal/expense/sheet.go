package expense

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/compliance"
	"fieldforce-backend/internal/rates"
	"fieldforce-backend/internal/roster"
)

// Sheet is one user's expense claim for a calendar month (1-12).
//
// Methods never modify the receiver: every operation returns a new Sheet, and
// a failed operation returns the zero Sheet with an error so the stored copy
// stays authoritative.
type Sheet struct {
	ID                string     `json:"id"`
	UserID            string     `json:"userId"`
	Year              int        `json:"year"`
	Month             int        `json:"month"`
	Status            Status     `json:"status"`
	Entries           []Entry    `json:"entries"`
	SubmittedAt       *time.Time `json:"submittedAt,omitempty"`
	ApprovedByASMAt   *time.Time `json:"approvedByAsmAt,omitempty"`
	ApprovedByAdminAt *time.Time `json:"approvedByAdminAt,omitempty"`
	RejectionReason   string     `json:"rejectionReason,omitempty"`
	Version           int64      `json:"version"`
}

// SheetID returns the deterministic document id of a user's monthly sheet.
func SheetID(userID string, year, month int) string {
	return fmt.Sprintf("%s_%d_%d", userID, year, month)
}

// NewSheet creates a DRAFT sheet with one entry per day of the month.
// Sundays are seeded as HOLIDAY, every other day as HQ, all amounts zero.
func NewSheet(userID string, year, month int, newID func() string) (Sheet, error) {
	if userID == "" {
		return Sheet{}, apperr.New(apperr.KindValidation, "MISSING_USER", "User id is required")
	}
	if month < 1 || month > 12 {
		return Sheet{}, apperr.Newf(apperr.KindValidation, "INVALID_MONTH", "Month must be between 1 and 12, got %d", month)
	}
	if year < 2000 || year > 2100 {
		return Sheet{}, apperr.Newf(apperr.KindValidation, "INVALID_YEAR", "Year %d is out of range", year)
	}

	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	entries := make([]Entry, 0, days)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		category := CategoryHQ
		if day.Weekday() == time.Sunday {
			category = CategoryHoliday
		}
		entries = append(entries, Entry{
			ID:       newID(),
			Date:     day.Format("2006-01-02"),
			Category: category,
		})
	}

	return Sheet{
		ID:      SheetID(userID, year, month),
		UserID:  userID,
		Year:    year,
		Month:   month,
		Status:  StatusDraft,
		Entries: entries,
	}, nil
}

// Clone returns a deep copy of s.
func (s Sheet) Clone() Sheet {
	out := s
	out.Entries = append([]Entry(nil), s.Entries...)
	out.SubmittedAt = copyTime(s.SubmittedAt)
	out.ApprovedByASMAt = copyTime(s.ApprovedByASMAt)
	out.ApprovedByAdminAt = copyTime(s.ApprovedByAdminAt)
	return out
}

// IsOwner reports whether actor owns the sheet.
func (s Sheet) IsOwner(actor roster.Actor) bool {
	return actor.UserID != "" && actor.UserID == s.UserID
}

// CanEdit reports whether actor may change entries: admins always, owners
// only while the sheet is DRAFT or REJECTED.
func (s Sheet) CanEdit(actor roster.Actor) bool {
	if actor.IsAdmin() {
		return true
	}
	return s.IsOwner(actor) && s.Status.OwnerEditable()
}

// EntryUpdate targets one row of the sheet.
type EntryUpdate struct {
	EntryID string `json:"entryId" validate:"required"`
	Change  Change `json:"change"`
}

// ApplyChanges applies row edits on behalf of actor. territories are the
// owner's territories and cfg the owner's resolved rates. All updates are
// validated before any is applied.
func (s Sheet) ApplyChanges(actor roster.Actor, updates []EntryUpdate, territories []roster.Territory, cfg rates.Config) (Sheet, error) {
	if !s.CanEdit(actor) {
		return Sheet{}, apperr.Newf(apperr.KindPermissionDenied, "SHEET_LOCKED", "Sheet is %s and cannot be edited", s.Status)
	}

	index := make(map[string]int, len(s.Entries))
	for i, e := range s.Entries {
		index[e.ID] = i
	}
	for _, u := range updates {
		if _, ok := index[u.EntryID]; !ok {
			return Sheet{}, apperr.Newf(apperr.KindNotFound, "ENTRY_NOT_FOUND", "Entry %q is not on this sheet", u.EntryID)
		}
		if err := u.Change.Validate(territories); err != nil {
			return Sheet{}, err
		}
	}

	out := s.Clone()
	for _, u := range updates {
		i := index[u.EntryID]
		out.Entries[i] = ApplyChange(out.Entries[i], u.Change, territories, cfg)
	}
	return out, nil
}

// Reprice recalculates every row with cfg, for example after the rate table
// changed.
func (s Sheet) Reprice(cfg rates.Config) Sheet {
	out := s.Clone()
	for i, e := range out.Entries {
		out.Entries[i] = Recalculate(e, cfg)
	}
	return out
}

// Submit moves the sheet to SUBMITTED. Only the owner may submit, from DRAFT
// or REJECTED. A sheet without entries may be submitted.
func (s Sheet) Submit(actor roster.Actor, now time.Time) (Sheet, error) {
	if !s.IsOwner(actor) {
		return Sheet{}, apperr.New(apperr.KindPermissionDenied, "NOT_OWNER", "Only the owner can submit this sheet")
	}
	next, ok := s.Status.Next(ActionSubmit)
	if !ok {
		return Sheet{}, invalidTransition(s.Status, ActionSubmit)
	}

	out := s.Clone()
	out.Status = next
	out.SubmittedAt = &now
	return out, nil
}

// Approve advances the sheet on behalf of a reviewer. owner is the sheet
// owner's profile, used to check the reporting line for ASMs. The ASM or
// admin approval stamp is set according to the reviewer's role.
func (s Sheet) Approve(actor roster.Actor, owner roster.Profile, now time.Time) (Sheet, error) {
	r, err := s.authorizeReview(actor, owner)
	if err != nil {
		return Sheet{}, err
	}
	next, ok := s.Status.Next(r.approve)
	if !ok || !r.from[s.Status] {
		return Sheet{}, invalidTransition(s.Status, r.approve)
	}

	out := s.Clone()
	out.Status = next
	if r.stampsAdmin {
		out.ApprovedByAdminAt = &now
	} else {
		out.ApprovedByASMAt = &now
	}
	return out, nil
}

// Reject sends the sheet back to the owner with a reason. Earlier approval
// stamps are kept.
func (s Sheet) Reject(actor roster.Actor, owner roster.Profile, reason string) (Sheet, error) {
	r, err := s.authorizeReview(actor, owner)
	if err != nil {
		return Sheet{}, err
	}
	next, ok := s.Status.Next(ActionReject)
	if !ok || !r.from[s.Status] {
		return Sheet{}, invalidTransition(s.Status, ActionReject)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return Sheet{}, apperr.New(apperr.KindValidation, "MISSING_REASON", "A rejection reason is required")
	}

	out := s.Clone()
	out.Status = next
	out.RejectionReason = reason
	return out, nil
}

func (s Sheet) authorizeReview(actor roster.Actor, owner roster.Profile) (reviewer, error) {
	r, ok := reviewers[actor.Role]
	if !ok {
		return reviewer{}, apperr.Newf(apperr.KindPermissionDenied, "NO_APPROVAL_AUTHORITY", "Role %s cannot review expense sheets", actor.Role)
	}
	if owner.ID != s.UserID {
		return reviewer{}, apperr.New(apperr.KindValidation, "OWNER_MISMATCH", "Owner profile does not match sheet")
	}
	if r.directOnly && !owner.ReportsTo(actor.UserID) {
		return reviewer{}, apperr.New(apperr.KindPermissionDenied, "NOT_DIRECT_REPORT", "Sheet does not belong to a direct report")
	}
	return r, nil
}

func invalidTransition(from Status, a Action) error {
	return apperr.Newf(apperr.KindInvalidTransition, "INVALID_TRANSITION", "Cannot %s a sheet in status %s", strings.ReplaceAll(string(a), "_", " "), from)
}

// Totals is the element-wise sum over a sheet's entries.
type Totals struct {
	DailyAllowance decimal.Decimal `json:"dailyAllowance"`
	TravelAmount   decimal.Decimal `json:"travelAmount"`
	MiscAmount     decimal.Decimal `json:"miscAmount"`
	Km             decimal.Decimal `json:"km"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	HQDays         int             `json:"hqDays"`
}

// OnTrack reports whether the sheet meets the monthly HQ-day minimum.
func (t Totals) OnTrack() bool {
	return compliance.OnTrack(t.HQDays)
}

// Totals sums the sheet.
func (s Sheet) Totals() Totals {
	var t Totals
	for _, e := range s.Entries {
		t.DailyAllowance = t.DailyAllowance.Add(e.DailyAllowance)
		t.TravelAmount = t.TravelAmount.Add(e.TravelAmount)
		t.MiscAmount = t.MiscAmount.Add(e.MiscAmount)
		t.Km = t.Km.Add(e.Km)
		t.TotalAmount = t.TotalAmount.Add(e.TotalAmount)
		if e.Category == CategoryHQ {
			t.HQDays++
		}
	}
	return t
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
