package reminder

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// GenerationStore keeps the current reminder generation per task in Redis
// so every instance agrees on which queued reminder is live.
type GenerationStore struct {
	client *redis.Client
}

// NewGenerationStore creates a store using the provided Redis client.
func NewGenerationStore(client *redis.Client) *GenerationStore {
	return &GenerationStore{client: client}
}

func (g *GenerationStore) key(ownerID, taskID string) string {
	return fmt.Sprintf("reminder:%s:%s", ownerID, taskID)
}

// Put records gen as the task's current generation.
func (g *GenerationStore) Put(ctx context.Context, ownerID, taskID string, gen int64, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = graceTTL
	}
	return g.client.Set(ctx, g.key(ownerID, taskID), gen, ttl).Err()
}

// Get returns the task's current generation, with ok false when no
// reminder is armed.
func (g *GenerationStore) Get(ctx context.Context, ownerID, taskID string) (int64, bool, error) {
	val, err := g.client.Get(ctx, g.key(ownerID, taskID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	gen, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return gen, true, nil
}

// Delete removes the task's generation. Deleting an absent key is not an
// error.
func (g *GenerationStore) Delete(ctx context.Context, ownerID, taskID string) error {
	return g.client.Del(ctx, g.key(ownerID, taskID)).Err()
}

var lastGeneration int64

// nextGeneration returns a strictly increasing value even when two arms
// land in the same nanosecond.
func nextGeneration() int64 {
	for {
		now := time.Now().UnixNano()
		last := atomic.LoadInt64(&lastGeneration)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastGeneration, last, now) {
			return now
		}
	}
}
