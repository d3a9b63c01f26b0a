package redis

import (
	"context"
	"time"

	goRedis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/internal/config"
)

const clientName = "tasktracker"

// Options builds client options for the tracker's key/value store.
// Socket timeouts follow the store's per-operation timeout, and go-redis's own
// retries are disabled because the store wraps the client in its own retrier.
func Options(cfg config.RedisConfig, store config.StoreConfig) (*goRedis.Options, error) {
	opts, err := goRedis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if store.OpTimeout > 0 {
		opts.DialTimeout = store.OpTimeout
		opts.ReadTimeout = store.OpTimeout
		opts.WriteTimeout = store.OpTimeout
	}
	if store.RetryAttempts > 0 {
		opts.MaxRetries = -1
	}
	opts.ClientName = clientName
	return opts, nil
}

// NewClient creates a Redis client and performs a health check bounded by the
// store's operation timeout.
func NewClient(ctx context.Context, cfg config.RedisConfig, store config.StoreConfig, logger *zap.Logger) (*goRedis.Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := Options(cfg, store)
	if err != nil {
		return nil, err
	}

	client := goRedis.NewClient(opts)

	timeout := store.OpTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	if store.RedisNamespace == "" {
		logger.Warn("redis namespace is empty, tracker keys share the whole database", zap.Int("db", opts.DB))
	}
	logger.Info("connected to redis",
		zap.String("addr", opts.Addr),
		zap.Int("db", opts.DB),
		zap.String("namespace", store.RedisNamespace),
	)
	return client, nil
}
