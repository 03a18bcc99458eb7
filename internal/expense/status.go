package expense

import "fieldforce-backend/internal/roster"

// Status is the approval state of a sheet.
type Status string

const (
	StatusDraft         Status = "DRAFT"
	StatusSubmitted     Status = "SUBMITTED"
	StatusApprovedASM   Status = "APPROVED_ASM"
	StatusApprovedAdmin Status = "APPROVED_ADMIN"
	StatusRejected      Status = "REJECTED"
)

// Action is a workflow step applied to a sheet.
type Action string

const (
	ActionSubmit       Action = "submit"
	ActionApproveASM   Action = "approve_asm"
	ActionApproveAdmin Action = "approve_admin"
	ActionReject       Action = "reject"
)

// transitions is the complete state machine. A (status, action) pair that is
// not listed is illegal.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		ActionApproveASM:   StatusApprovedASM,
		ActionApproveAdmin: StatusApprovedAdmin,
		ActionReject:       StatusRejected,
	},
	StatusApprovedASM: {
		ActionApproveAdmin: StatusApprovedAdmin,
		ActionReject:       StatusRejected,
	},
	StatusApprovedAdmin: {},
	StatusRejected: {
		ActionSubmit: StatusSubmitted,
	},
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the status reached by applying a to s.
func (s Status) Next(a Action) (Status, bool) {
	next, ok := transitions[s][a]
	return next, ok
}

// OwnerEditable reports whether the owner may still change entries.
func (s Status) OwnerEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

// reviewer describes what a role may do when reviewing someone's sheet.
type reviewer struct {
	approve     Action
	from        map[Status]bool
	directOnly  bool
	stampsAdmin bool
}

// reviewers lists the roles with approval authority. Roles missing here
// cannot approve or reject at all.
var reviewers = map[roster.Role]reviewer{
	roster.RoleASM: {
		approve:    ActionApproveASM,
		from:       map[Status]bool{StatusSubmitted: true},
		directOnly: true,
	},
	roster.RoleAdmin: {
		approve:     ActionApproveAdmin,
		from:        map[Status]bool{StatusSubmitted: true, StatusApprovedASM: true},
		stampsAdmin: true,
	},
}

// CanReview reports whether role carries approval authority.
func CanReview(role roster.Role) bool {
	_, ok := reviewers[role]
	return ok
}

// ReviewableStatuses returns the statuses role may act on, in workflow order.
func ReviewableStatuses(role roster.Role) []Status {
	r, ok := reviewers[role]
	if !ok {
		return nil
	}
	var out []Status
	for _, s := range []Status{StatusSubmitted, StatusApprovedASM} {
		if r.from[s] {
			out = append(out, s)
		}
	}
	return out
}
