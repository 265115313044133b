package annotations

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps one topology's annotations under a single Redis key,
// for deployments where several server instances share the same lab.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to the given address and namespaces the key by
// lab name, so several labs can share one Redis instance. The store owns
// the connection; Close releases it.
func NewRedisStore(addr, lab string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		key:    fmt.Sprintf("topolab:annotations:%s", lab),
	}
}

func (s *RedisStore) Load(ctx context.Context) (*Set, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return &Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse annotations: %w", err)
	}
	return &set, nil
}

func (s *RedisStore) Save(ctx context.Context, set *Set) error {
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal annotations: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
