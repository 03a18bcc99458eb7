// Package ctxkeys defines typed context keys shared between middleware and handlers.
// Both import this package, so neither needs the other for key types.
package ctxkeys

import (
	"context"

	"fieldforce-backend/internal/roster"
)

// Key is a typed string used as context key to prevent collisions.
type Key string

const (
	UserID     Key = "userID"
	UserRole   Key = "userRole"
	UserStatus Key = "userStatus"
)

// WithActor stores the authenticated user in ctx.
func WithActor(ctx context.Context, a roster.Actor) context.Context {
	ctx = context.WithValue(ctx, UserID, a.UserID)
	ctx = context.WithValue(ctx, UserRole, a.Role)
	return context.WithValue(ctx, UserStatus, a.Status)
}

// Actor returns the authenticated user. The zero Actor means the request
// did not pass through the auth middleware.
func Actor(ctx context.Context) roster.Actor {
	id, _ := ctx.Value(UserID).(string)
	role, _ := ctx.Value(UserRole).(roster.Role)
	status, _ := ctx.Value(UserStatus).(roster.Status)
	return roster.Actor{UserID: id, Role: role, Status: status}
}
