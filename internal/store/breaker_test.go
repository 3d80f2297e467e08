package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyStore fails every call with err when set, else delegates to a
// MemoryStore.
type flakyStore struct {
	*MemoryStore
	err error
}

func (f *flakyStore) Write(ctx context.Context, path string, value any) error {
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.Write(ctx, path, value)
}

func (f *flakyStore) ReadOnce(ctx context.Context, path string, dest any) error {
	if f.err != nil {
		return f.err
	}
	return f.MemoryStore.ReadOnce(ctx, path, dest)
}

func TestBreaker_PassesThroughWhenHealthy(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	s := WithBreaker(inner, "test")
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "items/a", record{Name: "Apples"}))

	var got record
	require.NoError(t, s.ReadOnce(ctx, "items/a", &got))
	assert.Equal(t, "Apples", got.Name)

	entries, err := s.List(ctx, "items")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.IsType(t, map[string]json.RawMessage{}, entries)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore(), err: fmt.Errorf("connection refused")}
	s := WithBreaker(inner, "test")
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.Error(t, s.Write(ctx, "items/a", record{Name: "Apples"}))
	}

	err := s.Write(ctx, "items/a", record{Name: "Apples"})
	require.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	inner := &flakyStore{MemoryStore: NewMemoryStore()}
	s := WithBreaker(inner, "test")
	ctx := context.Background()

	var got record
	for i := 0; i < 10; i++ {
		require.ErrorIs(t, s.ReadOnce(ctx, "items/nothing", &got), ErrNotFound)
	}

	// Absent values are normal reads; the circuit stays closed.
	require.NoError(t, s.Write(ctx, "items/a", record{Name: "Apples"}))
}
