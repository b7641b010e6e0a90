package redisstore

import (
	"context"
	"time"

	"txscope/internal/application"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "txscope:idem:"

type Store struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

var _ application.IdempotencyStore = (*Store)(nil)

func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{Client: client, TTL: ttl, Prefix: defaultPrefix}
}

func (s *Store) TryReserve(ctx context.Context, key string) (bool, error) {
	return s.Client.SetNX(ctx, s.Prefix+key, "1", s.TTL).Result()
}

func (s *Store) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Prefix+key).Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx).Err()
}
