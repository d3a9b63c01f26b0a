package kv

import (
	"context"
	"errors"
	"strings"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

// Redis stores records as plain string keys under a namespace prefix.
type Redis struct {
	client    *redislib.Client
	namespace string
	timeout   time.Duration
}

// NewRedis wraps an already connected client.
func NewRedis(client *redislib.Client, namespace string, timeout time.Duration) *Redis {
	if namespace == "" {
		namespace = "tracker:"
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Redis{
		client:    client,
		namespace: namespace,
		timeout:   timeout,
	}
}

func (r *Redis) Get(key string) (string, bool, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) Set(key, value string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Remove(key string) error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *Redis) Keys() ([]string, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	var keys []string
	iter := r.client.Scan(ctx, 0, r.namespace+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), r.namespace))
	}
	return keys, iter.Err()
}

func (r *Redis) Ping() error {
	ctx, cancel := r.ctx()
	defer cancel()
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(k string) string {
	return r.namespace + k
}

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

var _ Store = (*Redis)(nil)
