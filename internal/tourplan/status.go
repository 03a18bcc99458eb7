package tourplan

import "fieldforce-backend/internal/roster"

// Status is the approval state of a tour plan.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Action is a workflow step applied to a plan.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// transitions is the complete plan workflow. Pairs not listed are illegal.
var transitions = map[Status]map[Action]Status{
	StatusDraft: {
		ActionSubmit: StatusSubmitted,
	},
	StatusSubmitted: {
		ActionApprove: StatusApproved,
		ActionReject:  StatusRejected,
	},
	StatusApproved: {},
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

// OwnerEditable reports whether the owner may still change the plan.
func (s Status) OwnerEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

type reviewer struct {
	from       map[Status]bool
	directOnly bool
}

// A single approval finalizes a plan, so ASMs and admins review the same
// SUBMITTED state.
var reviewers = map[roster.Role]reviewer{
	roster.RoleASM: {
		from:       map[Status]bool{StatusSubmitted: true},
		directOnly: true,
	},
	roster.RoleAdmin: {
		from: map[Status]bool{StatusSubmitted: true},
	},
}

// CanReview reports whether role may approve or reject plans.
func CanReview(role roster.Role) bool {
	_, ok := reviewers[role]
	return ok
}

// ReviewableStatuses returns the statuses role may act on.
func ReviewableStatuses(role roster.Role) []Status {
	r, ok := reviewers[role]
	if !ok {
		return nil
	}
	var out []Status
	for _, s := range []Status{StatusSubmitted} {
		if r.from[s] {
			out = append(out, s)
		}
	}
	return out
}
