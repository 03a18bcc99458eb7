package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
	"fieldforce-backend/internal/notify"
)

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.notify.Send(ctx, "mr-1", notify.TypeInfo, "Hello", "first")
	require.NoError(t, err)
	f.now = f.now.Add(1)
	_, err = f.notify.Send(ctx, "mr-1", notify.TypeAlert, "Hello", "second")
	require.NoError(t, err)
	_, err = f.notify.Send(ctx, "mr-2", notify.TypeInfo, "Other", "not yours")
	require.NoError(t, err)

	list, err := f.notify.List(ctx, mr1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Message)
	assert.Equal(t, 2, notify.Unread(list))

	read, err := f.notify.MarkRead(ctx, mr1, first.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	again, err := f.notify.MarkRead(ctx, mr1, first.ID)
	require.NoError(t, err)
	assert.Equal(t, read.Version, again.Version, "already read is a no-op")

	_, err = f.notify.MarkRead(ctx, mr2, first.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRemind_OncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ok, err := f.notify.Remind(ctx, "asm-1", "mr-1_2026_10", "waiting")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.notify.Remind(ctx, "asm-1", "mr-1_2026_10", "waiting")
	require.NoError(t, err)
	assert.False(t, ok)
}
