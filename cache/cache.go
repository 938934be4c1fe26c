// Package cache keeps a copy of the ordered question catalog in Redis so a
// fleet of kiosks doesn't hit the database on every welcome screen.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mbolis/survey-kiosk/model"
)

const DefaultKey = "survey-kiosk:questions"

type Catalog struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewCatalog(rdb *redis.Client, key string, ttl time.Duration) *Catalog {
	if key == "" {
		key = DefaultKey
	}
	return &Catalog{rdb: rdb, key: key, ttl: ttl}
}

// Connect creates a Redis client and verifies connectivity.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Get reports false on a cache miss.
func (c *Catalog) Get(ctx context.Context) ([]model.Question, bool, error) {
	data, err := c.rdb.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false, fmt.Errorf("decode cached catalog: %w", err)
	}
	return questions, true, nil
}

func (c *Catalog) Set(ctx context.Context, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key, data, c.ttl).Err()
}

func (c *Catalog) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, c.key).Err()
}
