package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// watchTick is how often a mongo watcher polls its prefix for changes.
const watchTick = 500 * time.Millisecond

// MongoStore implements Store over a single path-keyed collection. Each
// record holds the raw JSON value, so reads are symmetric with the other
// backends. Watch polls the prefix on a ticker and emits a snapshot whenever
// the listed contents change.
type MongoStore struct {
	collection *mongo.Collection
}

type mongoRecord struct {
	Path      string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// NewMongoStore uses the "records" collection of the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection("records")}
}

// ConnectMongo dials mongo and verifies the connection with a ping.
func ConnectMongo(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client.Database(database), nil
}

func (s *MongoStore) Write(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %s: %w", path, err)
	}

	record := mongoRecord{Path: path, Data: data, UpdatedAt: time.Now()}
	opts := options.Replace().SetUpsert(true)
	if _, err := s.collection.ReplaceOne(ctx, bson.M{"_id": path}, record, opts); err != nil {
		return fmt.Errorf("mongo write %s failed: %w", path, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, path string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": path}); err != nil {
		return fmt.Errorf("mongo delete %s failed: %w", path, err)
	}
	return nil
}

func (s *MongoStore) ReadOnce(ctx context.Context, path string, dest any) error {
	var record mongoRecord
	err := s.collection.FindOne(ctx, bson.M{"_id": path}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("mongo read %s failed: %w", path, err)
	}
	if err := json.Unmarshal(record.Data, dest); err != nil {
		return fmt.Errorf("unmarshal value at %s: %w", path, err)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context, prefix string) (map[string]json.RawMessage, error) {
	filter := bson.M{"_id": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix+"/")}}
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo list %s failed: %w", prefix, err)
	}
	defer cursor.Close(ctx)

	result := make(map[string]json.RawMessage)
	for cursor.Next(ctx) {
		var record mongoRecord
		if err := cursor.Decode(&record); err != nil {
			return nil, fmt.Errorf("decode record under %s: %w", prefix, err)
		}
		result[record.Path] = record.Data
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo list %s failed: %w", prefix, err)
	}
	return result, nil
}

func (s *MongoStore) Watch(ctx context.Context, prefix string) (<-chan Snapshot, error) {
	out := make(chan Snapshot, 16)
	go func() {
		defer close(out)

		var last map[string]json.RawMessage
		emit := func() {
			entries, err := s.List(ctx, prefix)
			if err != nil {
				return
			}
			if last != nil && sameEntries(last, entries) {
				return
			}
			last = entries
			select {
			case out <- Snapshot{Prefix: prefix, Entries: entries}:
			case <-ctx.Done():
			}
		}

		emit()
		ticker := time.NewTicker(watchTick)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			}
		}
	}()
	return out, nil
}

func sameEntries(a, b map[string]json.RawMessage) bool {
	if len(a) != len(b) {
		return false
	}
	for path, data := range a {
		other, ok := b[path]
		if !ok || !bytes.Equal(data, other) {
			return false
		}
	}
	return true
}
