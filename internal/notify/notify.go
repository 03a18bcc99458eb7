// Package notify defines in-app notifications.
package notify

import (
	"fmt"
	"sort"
	"time"
)

type Type string

const (
	TypeAlert   Type = "ALERT"
	TypeInfo    Type = "INFO"
	TypeSuccess Type = "SUCCESS"
)

// Notification is a message shown in a user's inbox.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      Type      `json:"type"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
	Version   int64     `json:"version"`
}

// New builds an unread notification.
func New(id, userID string, typ Type, title, message string, now time.Time) Notification {
	return Notification{ID: id, UserID: userID, Type: typ, Title: title, Message: message, CreatedAt: now}
}

// ReminderID is deterministic so an approver gets at most one reminder per
// sheet per day.
func ReminderID(approverID, sheetID string, day time.Time) string {
	return fmt.Sprintf("reminder_%s_%s_%s", approverID, sheetID, day.Format("20060102"))
}

// SortNewestFirst orders notifications by creation time, newest first.
func SortNewestFirst(ns []Notification) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].CreatedAt.After(ns[j].CreatedAt)
	})
}

// Unread counts unread notifications.
func Unread(ns []Notification) int {
	n := 0
	for _, x := range ns {
		if !x.IsRead {
			n++
		}
	}
	return n
}
