package storage

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	KeyTTL    time.Duration
}

// RedisStore keeps ledger keys in Redis under <prefix>:<run id>:<kind>:<key>.
type RedisStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and returns a store scoped to runID.
func NewRedisStore(ctx context.Context, opts RedisOptions, runID string) (*RedisStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	return &RedisStore{
		rdb:    rdb,
		prefix: opts.KeyPrefix + ":" + runID,
		ttl:    opts.KeyTTL,
	}, nil
}

// Set returns the KeySet for kind within this run.
func (rs *RedisStore) Set(kind string) KeySet {
	return &redisSet{store: rs, namespace: rs.prefix + ":" + kind + ":"}
}

func (rs *RedisStore) Close() error {
	return rs.rdb.Close()
}

type redisSet struct {
	store     *RedisStore
	namespace string
}

func (s *redisSet) TestAndSet(ctx context.Context, key string) (bool, error) {
	ok, err := s.store.rdb.SetNX(ctx, s.namespace+key, 1, s.store.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: setnx: %w", err)
	}
	return ok, nil
}
