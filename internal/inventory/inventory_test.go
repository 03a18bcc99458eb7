package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/apperr"
)

func TestDefaultItems(t *testing.T) {
	items := DefaultItems()
	require.Len(t, items, 5)
	seen := map[string]bool{}
	for _, it := range items {
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
		assert.False(t, it.UnitPrice.IsNegative())
	}
	assert.Equal(t, ItemInput, items[4].Type)
}

func TestIssue(t *testing.T) {
	pen := DefaultItems()[2]

	s, err := Issue(Stock{}, "mr-1", pen, 10)
	require.NoError(t, err)
	assert.Equal(t, "mr-1_g1", s.ID)
	assert.Equal(t, "Pen", s.ItemName)
	assert.Equal(t, 10, s.Quantity)

	s, err = Issue(s, "mr-1", pen, 5)
	require.NoError(t, err)
	assert.Equal(t, 15, s.Quantity)

	_, err = Issue(s, "mr-1", pen, 0)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = Issue(s, "mr-1", pen, -3)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeduct(t *testing.T) {
	tests := []struct {
		name      string
		have, qty int
		left      int
		removed   int
	}{
		{"partial", 10, 3, 7, 3},
		{"exact", 4, 4, 0, 4},
		{"clamps at zero", 2, 5, 0, 2},
		{"empty stock", 0, 1, 0, 0},
		{"non-positive request", 6, -2, 6, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, removed := Deduct(Stock{Quantity: tt.have}, tt.qty)
			assert.Equal(t, tt.left, s.Quantity)
			assert.Equal(t, tt.removed, removed)
		})
	}
}

func TestTransactionInvolves(t *testing.T) {
	tx := Transaction{FromUserID: "asm-1", ToUserID: "mr-1"}
	assert.True(t, tx.Involves("asm-1"))
	assert.True(t, tx.Involves("mr-1"))
	assert.False(t, tx.Involves("mr-2"))
	assert.False(t, Transaction{ToUserID: "mr-1"}.Involves(""))
}
