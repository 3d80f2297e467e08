package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// MemoryStore implements Store with in-process storage. It is used in tests
// and as the default backend when no remote database is configured.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  map[string]json.RawMessage
	watchers map[int]*memoryWatcher
	nextID   int
}

type memoryWatcher struct {
	prefix string
	ch     chan Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:  make(map[string]json.RawMessage),
		watchers: make(map[int]*memoryWatcher),
	}
}

func (s *MemoryStore) Write(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", path, err)
	}

	s.mu.Lock()
	s.entries[path] = data
	s.mu.Unlock()

	s.notify(path)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	delete(s.entries, path)
	s.mu.Unlock()

	s.notify(path)
	return nil
}

func (s *MemoryStore) ReadOnce(ctx context.Context, path string, dest any) error {
	s.mu.RLock()
	data, ok := s.entries[path]
	s.mu.RUnlock()

	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal value at %s: %w", path, err)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(prefix), nil
}

func (s *MemoryStore) listLocked(prefix string) map[string]json.RawMessage {
	result := make(map[string]json.RawMessage)
	for path, data := range s.entries {
		if strings.HasPrefix(path, prefix+"/") {
			result[path] = append(json.RawMessage(nil), data...)
		}
	}
	return result
}

func (s *MemoryStore) Watch(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	w := &memoryWatcher{prefix: prefix, ch: make(chan Snapshot, 16)}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = w
	w.ch <- Snapshot{Prefix: prefix, Entries: s.listLocked(prefix)}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
		close(w.ch)
	}()

	return w.ch, nil
}

// notify re-lists each affected watcher's prefix and pushes a fresh
// snapshot. Slow watchers drop intermediate snapshots rather than block a
// write; the next change delivers a complete view again.
func (s *MemoryStore) notify(path string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchers {
		if !strings.HasPrefix(path, w.prefix+"/") {
			continue
		}
		snap := Snapshot{Prefix: w.prefix, Entries: s.listLocked(w.prefix)}
		select {
		case w.ch <- snap:
		default:
		}
	}
}
