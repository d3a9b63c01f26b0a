package kv

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/tasktracker/internal/config"
	mongoInfra "github.com/fastygo/tasktracker/internal/infrastructure/mongo"
	pgInfra "github.com/fastygo/tasktracker/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/tasktracker/internal/infrastructure/redis"
)

// Open builds the Store selected by cfg.Store.Driver. Network drivers are
// wrapped in Resilient.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sc := cfg.Store

	var (
		store Store
		err   error
	)
	switch sc.Driver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data will not survive a restart")
		return NewMemory(), nil

	case config.DriverBolt, "":
		store, err = OpenBolt(sc.BoltPath, sc.BoltBucket)
		if err != nil {
			return nil, fmt.Errorf("open bolt store: %w", err)
		}
		logger.Info("bolt store opened", zap.String("path", sc.BoltPath))
		return store, nil

	case config.DriverRedis:
		client, cerr := redisInfra.NewClient(ctx, cfg.Redis, sc, logger)
		if cerr != nil {
			return nil, fmt.Errorf("redis connection failed: %w", cerr)
		}
		store = NewRedis(client, sc.RedisNamespace, sc.OpTimeout)

	case config.DriverPostgres:
		if err = pgInfra.RunMigrations(cfg, logger); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		pool, cerr := pgInfra.NewPool(ctx, cfg.Database, logger)
		if cerr != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", cerr)
		}
		store = NewPostgres(pool, sc.OpTimeout)

	case config.DriverMongo:
		client, cerr := mongoInfra.NewClient(ctx, cfg.Mongo, logger)
		if cerr != nil {
			return nil, fmt.Errorf("mongo connection failed: %w", cerr)
		}
		store = NewMongo(client, cfg.Mongo.Database, cfg.Mongo.Collection, sc.OpTimeout)

	default:
		return nil, fmt.Errorf("unsupported store driver %q", sc.Driver)
	}

	logger.Info("kv store connected", zap.String("driver", sc.Driver))
	return NewResilient(store, ResilienceConfig{
		Name:           sc.Driver,
		Attempts:       sc.RetryAttempts,
		Backoff:        sc.RetryBackoff,
		BreakerTimeout: sc.BreakerTimeout,
	}, logger.Named("kv")), nil
}
