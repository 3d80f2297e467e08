package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/skycole768/RoommateShopping/internal/store"
)

// fakeStore is an in-memory store with per-path-prefix fault injection so
// tests can fail exactly one step of a multi-step operation.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string][]byte

	failWrites  map[string]error // prefix -> error
	failDeletes map[string]error
	failReads   map[string]error

	writes  int
	deletes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		entries:     make(map[string][]byte),
		failWrites:  make(map[string]error),
		failDeletes: make(map[string]error),
		failReads:   make(map[string]error),
	}
}

func errFor(m map[string]error, path string) error {
	for prefix, err := range m {
		if strings.HasPrefix(path, prefix) {
			return err
		}
	}
	return nil
}

func (f *fakeStore) Write(ctx context.Context, path string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := errFor(f.failWrites, path); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[path] = data
	f.writes++
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := errFor(f.failDeletes, path); err != nil {
		return err
	}
	delete(f.entries, path)
	f.deletes++
	return nil
}

func (f *fakeStore) ReadOnce(ctx context.Context, path string, dest any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := errFor(f.failReads, path); err != nil {
		return err
	}
	data, ok := f.entries[path]
	if !ok {
		return store.ErrNotFound
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := make(map[string]json.RawMessage)
	for path, data := range f.entries {
		if strings.HasPrefix(path, prefix+"/") {
			result[path] = append(json.RawMessage(nil), data...)
		}
	}
	return result, nil
}

func (f *fakeStore) Watch(ctx context.Context, prefix string) (<-chan store.Snapshot, error) {
	entries, _ := f.List(ctx, prefix)
	ch := make(chan store.Snapshot, 1)
	ch <- store.Snapshot{Prefix: prefix, Entries: entries}
	close(ch)
	return ch, nil
}

// has reports whether a value exists at path.
func (f *fakeStore) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[path]
	return ok
}

// get unmarshals the value at path, failing the test on absence is the
// caller's business; absent paths return false.
func (f *fakeStore) get(path string, dest any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[path]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// seed stores a value directly, bypassing fault injection and counters.
func (f *fakeStore) seed(path string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	f.entries[path] = data
}
