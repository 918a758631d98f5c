package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListRepository stores capped, expiring lists of serialized entries.
type ListRepository interface {
	// PushCapped appends values to the list at key, keeps only the newest
	// maxLen entries and refreshes the key's expiry.
	PushCapped(ctx context.Context, key string, maxLen int64, ttl time.Duration, values ...string) error
	Range(ctx context.Context, key string) ([]string, error)
	Del(ctx context.Context, key string) error
}

type listRepository struct {
	client redis.UniversalClient
}

func NewListRepository(client redis.UniversalClient) ListRepository {
	return &listRepository{client: client}
}

func (r *listRepository) PushCapped(ctx context.Context, key string, maxLen int64, ttl time.Duration, values ...string) error {
	if len(values) == 0 {
		return nil
	}

	args := make([]interface{}, len(values))
	for i, value := range values {
		args[i] = value
	}

	pipe := r.StartPipeline(ctx)
	pipe.RPush(ctx, key, args...)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, -maxLen, -1)
	}
	if ttl > 0 {
		pipe.Expire(ctx, key, ttl)
	}
	if err := pipe.Execute(ctx); err != nil {
		return fmt.Errorf("failed to push to %s: %w", key, err)
	}
	return nil
}

func (r *listRepository) Range(ctx context.Context, key string) ([]string, error) {
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return values, nil
}

func (r *listRepository) Del(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// Pipeline batches list commands into a single round trip.
type Pipeline struct {
	pipe redis.Pipeliner
}

// StartPipeline starts a new transactional pipeline.
func (r *listRepository) StartPipeline(ctx context.Context) *Pipeline {
	return &Pipeline{
		pipe: r.client.TxPipeline(),
	}
}

func (p *Pipeline) Execute(ctx context.Context) error {
	_, err := p.pipe.Exec(ctx)
	return err
}

func (p *Pipeline) RPush(ctx context.Context, key string, values ...interface{}) {
	p.pipe.RPush(ctx, key, values...)
}

func (p *Pipeline) LTrim(ctx context.Context, key string, start, stop int64) {
	p.pipe.LTrim(ctx, key, start, stop)
}

func (p *Pipeline) Expire(ctx context.Context, key string, expiration time.Duration) {
	p.pipe.Expire(ctx, key, expiration)
}
