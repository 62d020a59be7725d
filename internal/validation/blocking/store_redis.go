package blocking

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const toggleKeyPrefix = "blocking:rule:"

// RedisToggles reads blocking toggles from Redis so operators can flip rules
// without a deploy. A missing key reads as "not blocking".
type RedisToggles struct {
	client *redis.Client
}

func NewRedisToggles(client *redis.Client) *RedisToggles {
	return &RedisToggles{client: client}
}

func (s *RedisToggles) IsBlocking(ctx context.Context, rule string) (bool, error) {
	value, err := s.client.Get(ctx, toggleKeyPrefix+rule).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read blocking toggle %s: %w", rule, err)
	}
	return value == "1" || value == "true", nil
}

// SetBlocking writes a toggle; used by admin tooling and integration tests.
func (s *RedisToggles) SetBlocking(ctx context.Context, rule string, enabled bool) error {
	value := "0"
	if enabled {
		value = "1"
	}
	if err := s.client.Set(ctx, toggleKeyPrefix+rule, value, 0).Err(); err != nil {
		return fmt.Errorf("write blocking toggle %s: %w", rule, err)
	}
	return nil
}
