package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fieldforce-backend/internal/notify"
)

func TestReminderID(t *testing.T) {
	day := time.Date(2026, 10, 19, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "reminder_asm-1_mr-1_2026_10_20261019", notify.ReminderID("asm-1", "mr-1_2026_10", day))
	assert.Equal(t, notify.ReminderID("asm-1", "s", day), notify.ReminderID("asm-1", "s", day.Add(-time.Hour)))
}

func TestSortAndUnread(t *testing.T) {
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	ns := []notify.Notification{
		notify.New("a", "u", notify.TypeInfo, "A", "", base),
		notify.New("b", "u", notify.TypeAlert, "B", "", base.Add(time.Hour)),
		notify.New("c", "u", notify.TypeSuccess, "C", "", base.Add(-time.Hour)),
	}
	ns[0].IsRead = true
	notify.SortNewestFirst(ns)
	assert.Equal(t, []string{"b", "a", "c"}, []string{ns[0].ID, ns[1].ID, ns[2].ID})
	assert.Equal(t, 2, notify.Unread(ns))
}
