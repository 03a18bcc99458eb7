package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps documents in process memory. Used by tests and when no
// database is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]map[string]Document
	now  func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: map[string]map[string]Document{}, now: time.Now}
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[collection][id]
	if !ok {
		return Document{}, NotFound(collection, id)
	}
	return copyDoc(doc), nil
}

func (m *MemoryStore) Put(ctx context.Context, collection, id string, body []byte, expectedVersion int64) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if !json.Valid(body) {
		return 0, fmt.Errorf("put %s/%s: body is not valid JSON", collection, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	coll, ok := m.docs[collection]
	if !ok {
		coll = map[string]Document{}
		m.docs[collection] = coll
	}

	current, exists := coll[id]
	switch {
	case expectedVersion == AnyVersion:
	case expectedVersion == 0 && exists:
		return 0, Conflict(collection, id)
	case expectedVersion > 0 && (!exists || current.Version != expectedVersion):
		return 0, Conflict(collection, id)
	}

	next := current.Version + 1
	coll[id] = Document{
		ID:        id,
		Version:   next,
		Body:      append(json.RawMessage(nil), body...),
		UpdatedAt: m.now(),
	}
	return next, nil
}

func (m *MemoryStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []Document{}
	for _, doc := range m.docs[collection] {
		ok, err := matches(doc.Body, filters)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}
		if ok {
			out = append(out, copyDoc(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func matches(body []byte, filters []Filter) (bool, error) {
	if len(filters) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return false, err
	}
	for _, f := range filters {
		s, ok := fields[f.Field].(string)
		if !ok || !containsString(f.Values, s) {
			return false, nil
		}
	}
	return true, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func copyDoc(d Document) Document {
	d.Body = append(json.RawMessage(nil), d.Body...)
	return d
}

var _ Store = (*MemoryStore)(nil)
