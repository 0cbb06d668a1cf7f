package kvstore

import (
	"context"
	"sync"
)

// Memory is the shared state behind in-memory stores. Each Open() handle
// models one execution context: a write through one handle notifies
// watchers registered through the others.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[string][]*memWatcher
	nextID   int64
}

type memWatcher struct {
	id     int64
	handle *MemoryStore
	fn     func(value []byte)
}

func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]byte),
		watchers: make(map[string][]*memWatcher),
	}
}

// Open returns a new handle onto the shared state.
func (m *Memory) Open() *MemoryStore {
	return &MemoryStore{state: m}
}

type MemoryStore struct {
	state *Memory
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	v, ok := s.state.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	s.state.mu.Lock()
	s.state.data[key] = stored
	foreign := s.foreignWatchersLocked(key)
	s.state.mu.Unlock()

	for _, w := range foreign {
		w.fn(stored)
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.state.mu.Lock()
	delete(s.state.data, key)
	foreign := s.foreignWatchersLocked(key)
	s.state.mu.Unlock()

	for _, w := range foreign {
		w.fn(nil)
	}
	return nil
}

func (s *MemoryStore) Watch(key string, fn func(value []byte)) (stop func()) {
	s.state.mu.Lock()
	s.state.nextID++
	w := &memWatcher{id: s.state.nextID, handle: s, fn: fn}
	s.state.watchers[key] = append(s.state.watchers[key], w)
	s.state.mu.Unlock()

	return func() {
		s.state.mu.Lock()
		defer s.state.mu.Unlock()

		list := s.state.watchers[key]
		for i, cand := range list {
			if cand.id == w.id {
				s.state.watchers[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

// foreignWatchersLocked returns watchers registered through other handles.
func (s *MemoryStore) foreignWatchersLocked(key string) []*memWatcher {
	var out []*memWatcher
	for _, w := range s.state.watchers[key] {
		if w.handle != s {
			out = append(out, w)
		}
	}
	return out
}
