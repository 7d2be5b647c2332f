package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache errors
var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

// CacheConfig pairs a key prefix with its TTL
type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Listings change only on instructor/admin writes, which invalidate them
	ClassCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "class:",
	}

	InstructorCacheConfig = CacheConfig{
		TTL:    15 * time.Minute,
		Prefix: "instructor:",
	}
)

// CacheHelper is a prefixed JSON cache over redis. A nil client turns every
// operation into a miss or a no-op.
type CacheHelper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCacheHelper(client *redis.Client, config CacheConfig) *CacheHelper {
	return &CacheHelper{
		client: client,
		prefix: config.Prefix,
		ttl:    config.TTL,
	}
}

func (c *CacheHelper) key(key string) string {
	return c.prefix + key
}

// Get retrieves and unmarshals data from cache
func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set marshals and stores data with the helper's TTL
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}) error {
	if c.client == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, c.ttl).Err()
}

// InvalidatePattern removes all keys matching pattern using SCAN
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	fullPattern := c.key(pattern)
	var cursor uint64
	var keys []string
	for {
		batch, next, err := c.client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := min(i+batchSize, len(keys))
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}
	return nil
}

// generationKey holds the helper's listing generation. Cache-aside entries
// are stored under the generation read before the fetch, so bumping it
// orphans every entry computed from data that was read before the bump.
const generationKey = "gen"

func (c *CacheHelper) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.key(generationKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func versionedKey(gen int64, key string) string {
	return fmt.Sprintf("v%d:%s", gen, key)
}

// Invalidate bumps the generation, then drops entries matching pattern in
// every generation. A write-back still in flight lands on a dead key.
func (c *CacheHelper) Invalidate(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Incr(ctx, c.key(generationKey)).Err(); err != nil {
		return fmt.Errorf("cache generation bump error: %w", err)
	}
	return c.InvalidatePattern(ctx, "v*:"+pattern)
}

// CacheOrExecute implements cache-aside. Cache failures never fail the call;
// the fetched value is written back in the background under the generation
// observed before the fetch.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error)) error {
	var (
		gen      int64
		cacheKey string
	)
	if c.client != nil {
		var err error
		if gen, err = c.generation(ctx); err != nil {
			slog.WarnContext(ctx, "Cache generation read error, bypassing cache", "error", err, "key", key)
		} else {
			cacheKey = versionedKey(gen, key)
		}
	}

	if cacheKey != "" {
		err := c.Get(ctx, cacheKey, dest)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCacheNotFound) {
			slog.WarnContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", key)
		}
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}

	if cacheKey != "" {
		go func(parent context.Context) {
			setCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), 5*time.Second)
			defer cancel()
			if err := c.client.Set(setCtx, c.key(cacheKey), data, c.ttl).Err(); err != nil {
				slog.Error("Cache set error", "error", err, "key", cacheKey)
			}
		}(ctx)
	}

	return json.Unmarshal(data, dest)
}

// CacheManager groups the helpers used by repositories
type CacheManager struct {
	client     *redis.Client
	Class      *CacheHelper
	Instructor *CacheHelper
}

// NewCacheManager creates the helpers; client may be nil
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		client:     client,
		Class:      NewCacheHelper(client, ClassCacheConfig),
		Instructor: NewCacheHelper(client, InstructorCacheConfig),
	}
}

// HealthCheck verifies cache connectivity
func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}

// Available reports whether a redis client is configured
func (cm *CacheManager) Available() bool {
	return cm.client != nil
}
