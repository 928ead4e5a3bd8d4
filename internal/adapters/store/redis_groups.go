// Package store holds the persistent group stores.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkeye/Huddle/internal/domain"
	"github.com/redis/go-redis/v9"
)

const defaultGroupsKey = "huddle:groups"

// RedisGroupStore appends groups as JSON to one Redis list, so reads come
// back in creation order.
type RedisGroupStore struct {
	rdb *redis.Client
	key string
}

func NewRedisGroupStore(rdb *redis.Client, key string) *RedisGroupStore {
	if key == "" {
		key = defaultGroupsKey
	}
	return &RedisGroupStore{rdb: rdb, key: key}
}

func (s *RedisGroupStore) List(ctx context.Context) ([]domain.Group, error) {
	vals, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err == redis.Nil {
		return []domain.Group{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	out := make([]domain.Group, 0, len(vals))
	for _, v := range vals {
		var g domain.Group
		if err := json.Unmarshal([]byte(v), &g); err != nil {
			return nil, fmt.Errorf("decode group: %w", err)
		}
		out = append(out, g)
	}
	return out, nil
}

func (s *RedisGroupStore) Add(ctx context.Context, g domain.Group) error {
	b, err := json.Marshal(g)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, s.key, b).Err(); err != nil {
		return fmt.Errorf("add group: %w", err)
	}
	return nil
}

// Clear drops every stored group.
func (s *RedisGroupStore) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
