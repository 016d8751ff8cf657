package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"uptask-api/domain"
)

type backend interface {
	domain.UserStorage
	domain.ProjectStorage
	domain.TaskStorage
}

// Cache wraps a backend with Redis-backed caching for the list queries.
// Writes evict the owner's cached lists.
type Cache struct {
	backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
// A nil client or zero TTL disables caching.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{backend: base, redis: client, ttl: ttl}
}

func (c *Cache) ListProjects(ctx context.Context, owner domain.UserID) ([]domain.Project, error) {
	key := projectsCacheKey(owner)
	var (
		gen       string
		cacheable bool
	)
	if c.enabled() {
		data, err := c.redis.Get(ctx, key).Bytes()
		if err == nil {
			var projects []domain.Project
			if err := sonic.Unmarshal(data, &projects); err == nil {
				return projects, nil
			}
		}
		c.dropOnError(ctx, err, key)
		gen, cacheable = c.generation(ctx, key)
	}

	projects, err := c.backend.ListProjects(ctx, owner)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if data, err := sonic.Marshal(projects); err == nil {
			c.storeIfCurrent(ctx, key, gen, func(pipe redis.Pipeliner) {
				pipe.Set(ctx, key, data, c.ttl)
			})
		}
	}
	return projects, nil
}

func (c *Cache) ListTasks(ctx context.Context, owner domain.UserID, projectID string) ([]domain.Task, error) {
	key := tasksCacheKey(owner)
	var (
		gen       string
		cacheable bool
	)
	if c.enabled() {
		data, err := c.redis.HGet(ctx, key, projectID).Bytes()
		if err == nil {
			var tasks []domain.Task
			if err := sonic.Unmarshal(data, &tasks); err == nil {
				return tasks, nil
			}
		}
		c.dropOnError(ctx, err, key)
		gen, cacheable = c.generation(ctx, key)
	}

	tasks, err := c.backend.ListTasks(ctx, owner, projectID)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if data, err := sonic.Marshal(tasks); err == nil {
			c.storeIfCurrent(ctx, key, gen, func(pipe redis.Pipeliner) {
				pipe.HSet(ctx, key, projectID, data)
				pipe.Expire(ctx, key, c.ttl)
			})
		}
	}
	return tasks, nil
}

func (c *Cache) InsertProject(ctx context.Context, p domain.Project) error {
	if err := c.backend.InsertProject(ctx, p); err != nil {
		return err
	}
	c.evict(ctx, projectsCacheKey(p.CreatorID))
	return nil
}

func (c *Cache) UpdateProject(ctx context.Context, upd domain.ProjectUpdate) (domain.Project, error) {
	p, err := c.backend.UpdateProject(ctx, upd)
	c.evict(ctx, projectsCacheKey(upd.CreatorID))
	return p, err
}

func (c *Cache) DeleteProject(ctx context.Context, p domain.Project) error {
	err := c.backend.DeleteProject(ctx, p)
	c.evict(ctx, projectsCacheKey(p.CreatorID))
	return err
}

func (c *Cache) InsertTask(ctx context.Context, t domain.Task) error {
	if err := c.backend.InsertTask(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, tasksCacheKey(t.CreatorID))
	return nil
}

func (c *Cache) UpdateTask(ctx context.Context, upd domain.TaskUpdate) (domain.Task, error) {
	t, err := c.backend.UpdateTask(ctx, upd)
	c.evict(ctx, tasksCacheKey(upd.CreatorID))
	return t, err
}

func (c *Cache) DeleteTask(ctx context.Context, t domain.Task) error {
	err := c.backend.DeleteTask(ctx, t)
	c.evict(ctx, tasksCacheKey(t.CreatorID))
	return err
}

func (c *Cache) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

// dropOnError removes an entry that could not be read. Misses are left alone.
func (c *Cache) dropOnError(ctx context.Context, err error, key string) {
	if err == redis.Nil {
		return
	}
	_ = c.redis.Del(ctx, key).Err()
}

// evict drops key and bumps its generation so that list calls that read the
// backend before the write do not store their result.
func (c *Cache) evict(ctx context.Context, key string) {
	if c.redis == nil {
		return
	}
	gk := generationKey(key)
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gk)
		pipe.Expire(ctx, gk, generationTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("failed to evict cache entry")
	}
}

// generation returns the current generation of key. ok is false when Redis
// could not be read, in which case nothing should be stored.
func (c *Cache) generation(ctx context.Context, key string) (string, bool) {
	gen, err := c.redis.Get(ctx, generationKey(key)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", false
	}
	return gen, true
}

var errStaleGeneration = errors.New("cache generation changed")

// storeIfCurrent runs write in a transaction only if the generation of key is
// still gen.
func (c *Cache) storeIfCurrent(ctx context.Context, key, gen string, write func(redis.Pipeliner)) {
	gk := generationKey(key)
	err := c.redis.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, gk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			write(pipe)
			return nil
		})
		return err
	}, gk)
	if err != nil && !errors.Is(err, errStaleGeneration) && !errors.Is(err, redis.TxFailedErr) {
		log.WithError(err).WithField("key", key).Debug("skipping cache store")
	}
}

// generationTTL outlives any single list call, so an expired generation
// cannot reappear with the value a reader saw before a write.
const generationTTL = 24 * time.Hour

func generationKey(key string) string {
	return key + ":gen"
}

func projectsCacheKey(owner domain.UserID) string {
	return "projects:" + owner.String()
}

func tasksCacheKey(owner domain.UserID) string {
	return "tasks:" + owner.String()
}
