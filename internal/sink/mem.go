package sink

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemStore is an in-memory object backend for tests.
type MemStore struct {
	mu      sync.Mutex
	objects map[string]memObject

	// FailPut makes every Put return an error, for exercising the
	// best-effort archive path.
	FailPut bool
}

type memObject struct {
	data    []byte
	created time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string]memObject)}
}

func (m *MemStore) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailPut {
		return fmt.Errorf("put %s: store unavailable", name)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[name] = memObject{data: buf, created: time.Now()}
	return nil
}

func (m *MemStore) Get(_ context.Context, name string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("object %s not found", name)
	}
	return obj.data, nil
}

func (m *MemStore) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var objects []ObjectInfo
	for name, obj := range m.objects {
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			objects = append(objects, ObjectInfo{Name: name, Created: obj.created})
		}
	}
	return objects, nil
}

// SetCreated overrides an object's creation time, for ordering tests.
func (m *MemStore) SetCreated(name string, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if obj, ok := m.objects[name]; ok {
		obj.created = t
		m.objects[name] = obj
	}
}

// Len returns the number of stored objects.
func (m *MemStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
