package redisad

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"reviewharvest/internal/domain"
)

// Checkpoints stores continuation cursors per platform+app so an interrupted
// run can pick up where it left off instead of refetching from the top.
type Checkpoints struct {
	c   *redis.Client
	ttl time.Duration
}

func New(addr, pass string, db int, ttl time.Duration) *Checkpoints {
	return &Checkpoints{
		c:   redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		ttl: ttl,
	}
}

func key(p domain.Platform, appID string) string {
	return fmt.Sprintf("cursor:%s:%s", p, appID)
}

func (s *Checkpoints) Get(ctx context.Context, p domain.Platform, appID string) (string, bool, error) {
	v, err := s.c.Get(ctx, key(p, appID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Checkpoints) Set(ctx context.Context, p domain.Platform, appID, cursor string) error {
	return s.c.Set(ctx, key(p, appID), cursor, s.ttl).Err()
}

func (s *Checkpoints) Clear(ctx context.Context, p domain.Platform, appID string) error {
	return s.c.Del(ctx, key(p, appID)).Err()
}
