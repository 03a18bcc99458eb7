package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fieldforce-backend/internal/config"
)

// fakeS3 accepts path-style PUT, HEAD and DELETE object requests.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := r.URL.Path
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		obj, ok := f.objects[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", strconv.Itoa(len(obj)))
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		delete(f.objects, key)
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestR2Store(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	s, err := newS3Store(ctx, srv.URL, true, config.R2Config{
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "receipts",
		PublicURL: "https://pub.example.r2.dev/",
	})
	require.NoError(t, err)

	info, err := s.Save(ctx, "/attendance/2026-10-19/mr-1.json", strings.NewReader(`{"ok":true}`), "application/json")
	require.NoError(t, err)
	assert.Equal(t, "https://pub.example.r2.dev/attendance/2026-10-19/mr-1.json", info.URL)
	assert.Equal(t, "mr-1.json", info.FileName)
	assert.Positive(t, info.FileSize)
	assert.Contains(t, fake.objects, "/receipts/attendance/2026-10-19/mr-1.json")

	require.NoError(t, s.Delete(ctx, "attendance/2026-10-19/mr-1.json"))
	assert.Empty(t, fake.objects)
}
