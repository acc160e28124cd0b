package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"planner-api/domain"
)

type backend interface {
	CreateTask(ctx context.Context, ownerID string, nt domain.NewTask) (domain.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (domain.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
	ListTasks(ctx context.Context, ownerID string, f ListFilter) ([]domain.Task, error)
	FetchSettings(ctx context.Context, ownerID string) (domain.Settings, error)
	SaveSettings(ctx context.Context, ownerID string, settings domain.Settings) error
}

// Cache wraps a task store with Redis-backed caching for read operations.
// Every mutation evicts the owner's cached entries, so cached data lives
// at most one screen visit between writes.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching store wrapper using the provided Redis client
// and TTL. A zero TTL disables write-through while leaving eviction intact.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) CreateTask(ctx context.Context, ownerID string, nt domain.NewTask) (domain.Task, error) {
	task, err := c.base.CreateTask(ctx, ownerID, nt)
	if err != nil {
		return domain.Task{}, err
	}
	c.EvictOwner(ctx, ownerID)
	return task, nil
}

func (c *Cache) GetTask(ctx context.Context, ownerID, id string) (domain.Task, error) {
	return c.base.GetTask(ctx, ownerID, id)
}

func (c *Cache) UpdateTask(ctx context.Context, ownerID, id string, patch domain.TaskPatch) (domain.Task, error) {
	task, err := c.base.UpdateTask(ctx, ownerID, id, patch)
	if err != nil {
		return domain.Task{}, err
	}
	c.EvictOwner(ctx, ownerID)
	return task, nil
}

func (c *Cache) DeleteTask(ctx context.Context, ownerID, id string) error {
	if err := c.base.DeleteTask(ctx, ownerID, id); err != nil {
		return err
	}
	c.EvictOwner(ctx, ownerID)
	return nil
}

// ListTasks serves unfiltered listings from Redis when possible. Filtered
// listings go straight to the backing store; the dashboard only drills
// into a single date occasionally and caching every date key is not worth
// the invalidation surface.
func (c *Cache) ListTasks(ctx context.Context, ownerID string, f ListFilter) ([]domain.Task, error) {
	if f.DueOn != nil {
		return c.base.ListTasks(ctx, ownerID, f)
	}
	if tasks, ok := c.loadTasks(ctx, ownerID); ok {
		return tasks, nil
	}
	tasks, err := c.base.ListTasks(ctx, ownerID, f)
	if err != nil {
		return nil, err
	}
	c.storeTasks(ctx, ownerID, tasks)
	return tasks, nil
}

func (c *Cache) FetchSettings(ctx context.Context, ownerID string) (domain.Settings, error) {
	if settings, ok := c.loadSettings(ctx, ownerID); ok {
		return settings, nil
	}
	settings, err := c.base.FetchSettings(ctx, ownerID)
	if err != nil {
		return domain.Settings{}, err
	}
	c.storeSettings(ctx, ownerID, settings)
	return settings, nil
}

func (c *Cache) SaveSettings(ctx context.Context, ownerID string, settings domain.Settings) error {
	if err := c.base.SaveSettings(ctx, ownerID, settings); err != nil {
		return err
	}
	c.EvictOwner(ctx, ownerID)
	return nil
}

// EvictOwner drops every cached entry for the owner. The refresh bus calls
// this when another instance reports a mutation.
func (c *Cache) EvictOwner(ctx context.Context, ownerID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, tasksCacheKey(ownerID), settingsCacheKey(ownerID)).Result()
}

func (c *Cache) loadTasks(ctx context.Context, ownerID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing store without failing.
			_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(ownerID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) loadSettings(ctx context.Context, ownerID string) (domain.Settings, bool) {
	if c.redis == nil {
		return domain.Settings{}, false
	}
	data, err := c.redis.Get(ctx, settingsCacheKey(ownerID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, settingsCacheKey(ownerID)).Err()
		}
		return domain.Settings{}, false
	}
	var settings domain.Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		_ = c.redis.Del(ctx, settingsCacheKey(ownerID)).Err()
		return domain.Settings{}, false
	}
	return settings, true
}

func (c *Cache) storeTasks(ctx context.Context, ownerID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(ownerID), data, c.ttl).Err()
}

func (c *Cache) storeSettings(ctx context.Context, ownerID string, settings domain.Settings) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, settingsCacheKey(ownerID), data, c.ttl).Err()
}

func tasksCacheKey(ownerID string) string {
	return "tasks:" + ownerID
}

func settingsCacheKey(ownerID string) string {
	return "settings:" + ownerID
}
