package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(dir, "/api/files/")
	require.NoError(t, err)
	ctx := context.Background()

	info, err := s.Save(ctx, "receipts/mr-1/1700000000_bill.pdf", strings.NewReader("%PDF-1.4"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/api/files/receipts/mr-1/1700000000_bill.pdf", info.URL)
	assert.Equal(t, "1700000000_bill.pdf", info.FileName)
	assert.Equal(t, int64(8), info.FileSize)

	raw, err := os.ReadFile(filepath.Join(dir, "receipts", "mr-1", "1700000000_bill.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(raw))

	require.NoError(t, s.Delete(ctx, "receipts/mr-1/1700000000_bill.pdf"))
	require.NoError(t, s.Delete(ctx, "receipts/mr-1/1700000000_bill.pdf"), "second delete is a no-op")
}

func TestLocalStore_StaysInsideDir(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "uploads"), "/api/files")
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../../escape.txt", strings.NewReader("x"), "text/plain")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "uploads", "escape.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "escape.txt"))
	assert.True(t, os.IsNotExist(err))
}
