package tourplan

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/roster"
)

var (
	mr    = roster.Actor{UserID: "mr-1", Role: roster.RoleMR}
	asm   = roster.Actor{UserID: "asm-1", Role: roster.RoleASM}
	admin = roster.Actor{UserID: "admin-1", Role: roster.RoleAdmin}

	owner = roster.Profile{ID: "mr-1", Role: roster.RoleMR, ReportingManagerID: "asm-1"}
	now   = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

	territories = []roster.Territory{{ID: "t-hq", Name: "Andheri", Category: "HQ"}}
)

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("d%d", n)
	}
}

func planIn(t *testing.T, status Status) Plan {
	t.Helper()
	p, err := NewPlan(owner.ID, 2026, 11, seqIDs())
	require.NoError(t, err)
	p.Status = status
	return p
}

func TestNewPlan(t *testing.T) {
	p, err := NewPlan("mr-1", 2026, 10, seqIDs())
	require.NoError(t, err)

	assert.Equal(t, "mr-1_2026_10", p.ID)
	assert.Equal(t, StatusDraft, p.Status)
	require.Len(t, p.Entries, 31)

	holidays := 0
	for _, e := range p.Entries {
		if e.ActivityType == ActivityHoliday {
			holidays++
		} else {
			assert.Equal(t, ActivityFieldWork, e.ActivityType)
		}
	}
	assert.Equal(t, 4, holidays)
	assert.Equal(t, ActivityHoliday, p.Entries[3].ActivityType, "2026-10-04 is a Sunday")

	_, err = NewPlan("mr-1", 2026, 13, seqIDs())
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = NewPlan("mr-1", 1999, 1, seqIDs())
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = NewPlan("", 2026, 1, seqIDs())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestStatusTransitions(t *testing.T) {
	actions := []Action{ActionSubmit, ActionApprove, ActionReject}
	legal := map[Status][]Action{
		StatusDraft:     {ActionSubmit},
		StatusSubmitted: {ActionApprove, ActionReject},
		StatusApproved:  {},
		StatusRejected:  {ActionSubmit},
	}
	for status, allowed := range legal {
		for _, a := range actions {
			_, ok := status.Next(a)
			assert.Equal(t, contains(allowed, a), ok, "%s + %s", status, a)
		}
	}
	assert.False(t, Status("ARCHIVED").IsValid())
}

func TestApplyChanges(t *testing.T) {
	p := planIn(t, StatusDraft)
	updated, err := p.ApplyChanges(mr, []EntryUpdate{
		{EntryID: "d2", ActivityType: ActivityFieldWork, TerritoryID: "t-hq", JointWorkWithUID: "asm-1", Notes: "  call on Dr. Rao  "},
		{EntryID: "d3", ActivityType: ActivityLeave},
	}, territories)
	require.NoError(t, err)

	assert.Equal(t, "Andheri", updated.Entries[1].TerritoryName)
	assert.Equal(t, "asm-1", updated.Entries[1].JointWorkWithUID)
	assert.Equal(t, "call on Dr. Rao", updated.Entries[1].Notes)
	assert.Equal(t, ActivityLeave, updated.Entries[2].ActivityType)
	assert.Empty(t, p.Entries[1].TerritoryID, "receiver is unchanged")

	cases := []struct {
		name   string
		update EntryUpdate
		code   string
	}{
		{"unknown entry", EntryUpdate{EntryID: "nope", ActivityType: ActivityMeeting}, "ENTRY_NOT_FOUND"},
		{"unknown activity", EntryUpdate{EntryID: "d2", ActivityType: "GOLF"}, "INVALID_ACTIVITY"},
		{"foreign territory", EntryUpdate{EntryID: "d2", ActivityType: ActivityFieldWork, TerritoryID: "t-other"}, "UNKNOWN_TERRITORY"},
		{"joint work with self", EntryUpdate{EntryID: "d2", ActivityType: ActivityFieldWork, JointWorkWithUID: "mr-1"}, "INVALID_JOINT_WORK"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.ApplyChanges(mr, []EntryUpdate{tc.update}, territories)
			var ae *apperr.Error
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tc.code, ae.Code)
		})
	}

	_, err = planIn(t, StatusSubmitted).ApplyChanges(mr, []EntryUpdate{{EntryID: "d2", ActivityType: ActivityLeave}}, territories)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	_, err = planIn(t, StatusApproved).ApplyChanges(admin, []EntryUpdate{{EntryID: "d2", ActivityType: ActivityLeave}}, territories)
	assert.NoError(t, err)
	_, err = p.ApplyChanges(asm, []EntryUpdate{{EntryID: "d2", ActivityType: ActivityLeave}}, territories)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestWorkflow(t *testing.T) {
	p := planIn(t, StatusDraft)

	_, err := p.Submit(asm, now)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	submitted, err := p.Submit(mr, now)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, submitted.Status)
	require.NotNil(t, submitted.SubmittedAt)

	_, err = submitted.Submit(mr, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	_, err = submitted.Reject(asm, owner, "  ")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	rejected, err := submitted.Reject(asm, owner, "Too few field days")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "asm-1", rejected.ReviewedBy)

	resubmitted, err := rejected.Submit(mr, now)
	require.NoError(t, err)
	assert.Empty(t, resubmitted.RejectionReason)

	approved, err := resubmitted.Approve(admin, owner, now)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)

	_, err = approved.Reject(admin, owner, "late")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
	_, err = approved.ApplyChanges(mr, []EntryUpdate{{EntryID: "d2", ActivityType: ActivityLeave}}, territories)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}

func TestReviewAuthority(t *testing.T) {
	submitted := planIn(t, StatusSubmitted)

	_, err := submitted.Approve(mr, owner, now)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	otherASM := roster.Actor{UserID: "asm-2", Role: roster.RoleASM}
	_, err = submitted.Approve(otherASM, owner, now)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	_, err = submitted.Approve(asm, roster.Profile{ID: "mr-9", ReportingManagerID: "asm-1"}, now)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = planIn(t, StatusDraft).Approve(admin, owner, now)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	assert.True(t, CanReview(roster.RoleASM))
	assert.False(t, CanReview(roster.RoleRM))
	assert.Equal(t, []Status{StatusSubmitted}, ReviewableStatuses(roster.RoleAdmin))
	assert.Nil(t, ReviewableStatuses(roster.RoleMR))
}

func contains(actions []Action, a Action) bool {
	for _, x := range actions {
		if x == a {
			return true
		}
	}
	return false
}
