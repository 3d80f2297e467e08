package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerStore decorates a Store with a circuit breaker so a flaky remote
// fails fast instead of stacking up slow, doomed writes. Absent values are
// normal reads and never count against the breaker. Watch streams are
// long-lived and bypass the breaker entirely.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps inner with a named circuit breaker.
func WithBreaker(inner Store, name string) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound)
		},
	}
	return &BreakerStore{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerStore) Write(ctx context.Context, path string, value any) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Write(ctx, path, value)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, path string) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.Delete(ctx, path)
	})
	return err
}

func (b *BreakerStore) ReadOnce(ctx context.Context, path string, dest any) error {
	_, err := b.cb.Execute(func() (any, error) {
		return nil, b.inner.ReadOnce(ctx, path, dest)
	})
	return err
}

func (b *BreakerStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	result, err := b.cb.Execute(func() (any, error) {
		return b.inner.List(ctx, prefix)
	})
	if err != nil {
		return nil, err
	}
	return result.(map[string]json.RawMessage), nil
}

func (b *BreakerStore) Watch(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	return b.inner.Watch(ctx, prefix)
}
