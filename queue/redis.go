package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/flashauction/blockengine/bundle"
)

// windowKey returns the per-window FIFO list key, per the external wire
// topology's "bundle_window:{window_id}" naming.
func windowKey(windowID uint64) string {
	return fmt.Sprintf("bundle_window:%d", windowID)
}

// RedisQueue is the external FIFO bundle queue: searchers (or an
// upstream gateway) RPush serialized bundles onto a per-window list key;
// the engine pops all entries per tick, runs the auction, then deletes
// the key.
type RedisQueue struct {
	client *redis.Client
}

// NewRedisQueue wraps an existing Redis client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{client: client}
}

// Push appends a serialized bundle to the window's FIFO list.
func (q *RedisQueue) Push(ctx context.Context, windowID uint64, b bundle.Bundle) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("queue: marshal bundle: %w", err)
	}
	return q.client.RPush(ctx, windowKey(windowID), payload).Err()
}

// PopAll returns every bundle currently queued for windowID, in FIFO
// order. It does not delete the key; call Delete once the window's
// auction has consumed the entries.
func (q *RedisQueue) PopAll(ctx context.Context, windowID uint64) ([]bundle.Bundle, error) {
	raw, err := q.client.LRange(ctx, windowKey(windowID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: lrange %s: %w", windowKey(windowID), err)
	}

	bundles := make([]bundle.Bundle, 0, len(raw))
	for _, item := range raw {
		var b bundle.Bundle
		if err := json.Unmarshal([]byte(item), &b); err != nil {
			return nil, fmt.Errorf("queue: unmarshal bundle: %w", err)
		}
		bundles = append(bundles, b)
	}
	return bundles, nil
}

// Delete removes the window's FIFO key entirely.
func (q *RedisQueue) Delete(ctx context.Context, windowID uint64) error {
	return q.client.Del(ctx, windowKey(windowID)).Err()
}
