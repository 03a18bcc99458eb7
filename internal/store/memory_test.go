package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
)

type sheetDoc struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	Status string `json:"status"`
}

func TestMemoryStore_Versioning(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, Sheets, "u1_2026_10")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	v, err := PutJSON(ctx, s, Sheets, "u1_2026_10", sheetDoc{ID: "u1_2026_10", Status: "DRAFT"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = PutJSON(ctx, s, Sheets, "u1_2026_10", sheetDoc{Status: "DRAFT"}, 0)
	assert.ErrorIs(t, err, apperr.ErrConflict, "create on existing id")

	v, err = PutJSON(ctx, s, Sheets, "u1_2026_10", sheetDoc{ID: "u1_2026_10", Status: "SUBMITTED"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = PutJSON(ctx, s, Sheets, "u1_2026_10", sheetDoc{Status: "DRAFT"}, 1)
	assert.ErrorIs(t, err, apperr.ErrConflict, "stale write")

	got, ver, err := GetJSON[sheetDoc](ctx, s, Sheets, "u1_2026_10")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ver)
	assert.Equal(t, "SUBMITTED", got.Status, "failed writes leave the stored document intact")

	v, err = PutJSON(ctx, s, Sheets, "u1_2026_10", sheetDoc{Status: "APPROVED_ASM"}, AnyVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	_, err = PutJSON(ctx, s, Sheets, "missing", sheetDoc{}, 4)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for _, d := range []sheetDoc{
		{ID: "c", UserID: "u2", Status: "SUBMITTED"},
		{ID: "a", UserID: "u1", Status: "SUBMITTED"},
		{ID: "b", UserID: "u1", Status: "DRAFT"},
		{ID: "d", UserID: "u3", Status: "APPROVED_ASM"},
	} {
		_, err := PutJSON(ctx, s, Sheets, d.ID, d, 0)
		require.NoError(t, err)
	}

	all, err := QueryJSON[sheetDoc](ctx, s, Sheets)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].ID, "ordered by id")

	pending, err := QueryJSON[sheetDoc](ctx, s, Sheets, In("status", "SUBMITTED", "APPROVED_ASM"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, ids(pending))

	mine, err := QueryJSON[sheetDoc](ctx, s, Sheets, Eq("userId", "u1"), Eq("status", "SUBMITTED"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(mine))

	none, err := QueryJSON[sheetDoc](ctx, s, Visits)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_RejectsInvalidJSON(t *testing.T) {
	_, err := NewMemoryStore().Put(context.Background(), Users, "x", []byte("{"), 0)
	assert.Error(t, err)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Put(ctx, Users, "x", []byte(`{"a":"b"}`), 0)
	require.NoError(t, err)

	doc, err := s.Get(ctx, Users, "x")
	require.NoError(t, err)
	doc.Body[2] = 'z'

	again, err := s.Get(ctx, Users, "x")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"b"}`, string(again.Body))
}

func ids(docs []sheetDoc) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}
