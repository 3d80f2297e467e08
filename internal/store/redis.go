package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of redis. Paths are used as keys
// directly; change fan-out rides a pub/sub channel per top-level collection,
// and every notification makes watchers re-list their prefix so snapshots
// are always full replacements.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Write(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", path, err)
	}
	if err := s.client.Set(ctx, path, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, path).Err(); err != nil {
		return fmt.Errorf("redis delete %s failed: %w", path, err)
	}
	s.publish(ctx, path)
	return nil
}

func (s *RedisStore) ReadOnce(ctx context.Context, path string, dest any) error {
	data, err := s.client.Get(ctx, path).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s failed: %w", path, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal value at %s: %w", path, err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	result := make(map[string]json.RawMessage)

	iter := s.client.Scan(ctx, 0, prefix+"/*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // deleted between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("redis get %s failed: %w", key, err)
		}
		result[key] = data
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s failed: %w", prefix, err)
	}
	return result, nil
}

func (s *RedisStore) Watch(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	pubsub := s.client.Subscribe(ctx, changeChannel(rootOf(prefix)))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe %s failed: %w", prefix, err)
	}

	out := make(chan Snapshot, 16)
	go func() {
		defer close(out)
		defer pubsub.Close()

		s.emit(ctx, prefix, out)
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				if !pathInPrefix(msg.Payload, prefix) {
					continue
				}
				s.emit(ctx, prefix, out)
			}
		}
	}()
	return out, nil
}

func (s *RedisStore) emit(ctx context.Context, prefix string, out chan<- Snapshot) {
	entries, err := s.List(ctx, prefix)
	if err != nil {
		return // next change triggers another full list
	}
	select {
	case out <- Snapshot{Prefix: prefix, Entries: entries}:
	case <-ctx.Done():
	}
}

func (s *RedisStore) publish(ctx context.Context, path string) {
	// Change notifications are best effort; watchers re-list on the next
	// event, readers always see the committed write.
	s.client.Publish(ctx, changeChannel(rootOf(path)), path)
}

func changeChannel(root string) string {
	return "changes:" + root
}

func pathInPrefix(path, prefix string) bool {
	return len(path) > len(prefix) && path[:len(prefix)] == prefix && path[len(prefix)] == '/'
}
