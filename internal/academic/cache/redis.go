// Package cache keeps resolved curricula in Redis so ingestion runs do not
// rebuild the same template for every record of a year and grade.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sigcerh/internal/academic/models"
)

const keyPrefix = "sigcerh:curriculum:"

// Redis is a read-through curriculum cache. Entries live under a per-institution
// generation number; Invalidate bumps the generation instead of scanning keys.
type Redis struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedis(client redis.UniversalClient, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, institution string, year, grade int) (*models.Curriculum, bool, error) {
	gen, err := c.generation(ctx, institution)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.client.Get(ctx, entryKey(institution, gen, year, grade)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read curriculum: %w", err)
	}
	var cur models.Curriculum
	if err := json.Unmarshal(raw, &cur); err != nil {
		return nil, false, fmt.Errorf("decode curriculum: %w", err)
	}
	return &cur, true, nil
}

func (c *Redis) Set(ctx context.Context, cur *models.Curriculum) error {
	gen, err := c.generation(ctx, cur.Institution)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("encode curriculum: %w", err)
	}
	return c.client.Set(ctx, entryKey(cur.Institution, gen, cur.Year, cur.Grade), raw, c.ttl).Err()
}

func (c *Redis) Invalidate(ctx context.Context, institution string) error {
	return c.client.Incr(ctx, generationKey(institution)).Err()
}

func (c *Redis) generation(ctx context.Context, institution string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey(institution)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read curriculum generation: %w", err)
	}
	return gen, nil
}

func generationKey(institution string) string {
	return keyPrefix + institution + ":gen"
}

func entryKey(institution string, gen int64, year, grade int) string {
	return fmt.Sprintf("%s%s:%d:%d:%d", keyPrefix, institution, gen, year, grade)
}
