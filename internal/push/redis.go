package push

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "facemood:push:subscriptions"

// RedisStore keeps subscriptions in a single hash (endpoint -> JSON), which
// makes Add idempotent through HSETNX.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, key: defaultRedisKey}
}

func (s *RedisStore) Add(ctx context.Context, sub Subscription) (bool, error) {
	sub = sub.Normalized()
	if err := sub.Validate(); err != nil {
		return false, err
	}

	raw, err := json.Marshal(sub)
	if err != nil {
		return false, fmt.Errorf("marshal subscription: %w", err)
	}

	added, err := s.client.HSetNX(ctx, s.key, sub.Endpoint, raw).Result()
	if err != nil {
		return false, fmt.Errorf("store subscription: %w", err)
	}
	return added, nil
}

func (s *RedisStore) List(ctx context.Context) ([]Subscription, error) {
	values, err := s.client.HVals(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	subs := make([]Subscription, 0, len(values))
	for _, v := range values {
		var sub Subscription
		if err := json.Unmarshal([]byte(v), &sub); err != nil {
			// skip corrupt entries
			continue
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (s *RedisStore) Remove(ctx context.Context, endpoint string) error {
	if err := s.client.HDel(ctx, s.key, strings.TrimSpace(endpoint)).Err(); err != nil {
		return fmt.Errorf("remove subscription: %w", err)
	}
	return nil
}

func (s *RedisStore) Count(ctx context.Context) (int, error) {
	n, err := s.client.HLen(ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("count subscriptions: %w", err)
	}
	return int(n), nil
}

// Ping is used by the readiness probe.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
