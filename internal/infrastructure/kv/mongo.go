package kv

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type mongoEntry struct {
	Key   string `bson:"_id"`
	Value string `bson:"value"`
}

// Mongo keeps one document per key in a single collection.
type Mongo struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongo wraps a connected client.
func NewMongo(client *mongo.Client, database, collection string, timeout time.Duration) *Mongo {
	if database == "" {
		database = "tracker"
	}
	if collection == "" {
		collection = "kv_entries"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Mongo{
		client:  client,
		coll:    client.Database(database).Collection(collection),
		timeout: timeout,
	}
}

func (m *Mongo) Get(key string) (string, bool, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	var entry mongoEntry
	err := m.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&entry)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, err
	}
	return entry.Value, true, nil
}

func (m *Mongo) Set(key, value string) error {
	ctx, cancel := m.ctx()
	defer cancel()

	_, err := m.coll.ReplaceOne(ctx,
		bson.M{"_id": key},
		mongoEntry{Key: key, Value: value},
		options.Replace().SetUpsert(true),
	)
	return err
}

func (m *Mongo) Remove(key string) error {
	ctx, cancel := m.ctx()
	defer cancel()

	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (m *Mongo) Keys() ([]string, error) {
	ctx, cancel := m.ctx()
	defer cancel()

	cursor, err := m.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var keys []string
	for cursor.Next(ctx) {
		var entry mongoEntry
		if err := cursor.Decode(&entry); err != nil {
			return nil, err
		}
		keys = append(keys, entry.Key)
	}
	return keys, cursor.Err()
}

func (m *Mongo) Ping() error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.client.Ping(ctx, readpref.Primary())
}

func (m *Mongo) Close() error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Mongo) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), m.timeout)
}

var _ Store = (*Mongo)(nil)
