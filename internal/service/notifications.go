package service

import (
	"context"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/notify"
	"fieldforce-backend/internal/roster"
	"fieldforce-backend/internal/store"
)

// Notifications is the per-user inbox.
type Notifications struct {
	env Env
}

func NewNotifications(env Env) *Notifications {
	env.defaults()
	return &Notifications{env: env}
}

// Send stores a new notification for userID.
func (s *Notifications) Send(ctx context.Context, userID string, typ notify.Type, title, message string) (notify.Notification, error) {
	n := notify.New(s.env.NewID(), userID, typ, title, message, s.env.Now())
	version, err := store.PutJSON(ctx, s.env.Store, store.Notifications, n.ID, n, 0)
	if err != nil {
		return notify.Notification{}, err
	}
	n.Version = version
	return n, nil
}

// Remind stores an approval reminder unless the approver already got one
// for this sheet today. It reports whether a reminder was created.
func (s *Notifications) Remind(ctx context.Context, approverID, sheetID, message string) (bool, error) {
	now := s.env.Now()
	n := notify.New(notify.ReminderID(approverID, sheetID, now), approverID, notify.TypeAlert, "Approval pending", message, now)
	_, err := store.PutJSON(ctx, s.env.Store, store.Notifications, n.ID, n, 0)
	if apperr.KindOf(err) == apperr.KindConflict {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the actor's notifications, newest first.
func (s *Notifications) List(ctx context.Context, actor roster.Actor) ([]notify.Notification, error) {
	ns, err := store.QueryJSON[notify.Notification](ctx, s.env.Store, store.Notifications, store.Eq("userId", actor.UserID))
	if err != nil {
		return nil, err
	}
	notify.SortNewestFirst(ns)
	return ns, nil
}

// MarkRead flags one of the actor's notifications as read. Another user's
// notification is reported as not found.
func (s *Notifications) MarkRead(ctx context.Context, actor roster.Actor, id string) (notify.Notification, error) {
	n, version, err := store.GetJSON[notify.Notification](ctx, s.env.Store, store.Notifications, id)
	if err != nil {
		return notify.Notification{}, err
	}
	if n.UserID != actor.UserID {
		return notify.Notification{}, store.NotFound(store.Notifications, id)
	}
	if n.IsRead {
		n.Version = version
		return n, nil
	}
	n.IsRead = true
	newVersion, err := store.PutJSON(ctx, s.env.Store, store.Notifications, id, n, version)
	if err != nil {
		return notify.Notification{}, err
	}
	n.Version = newVersion
	return n, nil
}
