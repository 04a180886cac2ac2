package detection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/yungbote/dxplatform-backend/internal/observability"
	"github.com/yungbote/dxplatform-backend/internal/platform/logger"
)

const (
	DefaultCacheTTL    = 5 * time.Minute
	DefaultCachePrefix = "dx:detect:"
)

// Store is the backing key-value store of the detection cache.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryStore keeps entries in process. Expired entries are removed when next looked up.
type MemoryStore struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]memoryEntry
}

func NewMemoryStore(clock Clock) *MemoryStore {
	if clock == nil {
		clock = SystemClock()
	}
	return &MemoryStore{clock: clock, entries: map[string]memoryEntry{}}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !s.clock.Now().Before(e.expires) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: value, expires: s.clock.Now().Add(ttl)}
	return nil
}

// Len counts stored entries, expired ones included until they are looked up.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RedisStore shares entries between instances; expiry is left to redis.
type RedisStore struct {
	rdb goredis.Cmdable
}

func NewRedisStore(rdb goredis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

// Cache memoizes detection responses. A nil *Cache disables caching.
type Cache struct {
	log     *logger.Logger
	store   Store
	ttl     time.Duration
	prefix  string
	metrics *observability.Metrics
	group   singleflight.Group
}

func NewCache(baseLog *logger.Logger, store Store, ttl time.Duration, prefix string, metrics *observability.Metrics) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if prefix == "" {
		prefix = DefaultCachePrefix
	}
	return &Cache{
		log:     baseLog.With("component", "DetectionCache"),
		store:   store,
		ttl:     ttl,
		prefix:  prefix,
		metrics: metrics,
	}
}

type cacheKeyFields struct {
	MaxCandidates int      `json:"max_candidates"`
	MinConfidence float64  `json:"min_confidence"`
	ObjectIDs     []string `json:"object_ids"`
}

// Key hashes the normalized request. Identifier order does not change the key.
func (c *Cache) Key(ids []string, minConfidence float64, maxCandidates int) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	raw, _ := json.Marshal(cacheKeyFields{
		MaxCandidates: maxCandidates,
		MinConfidence: minConfidence,
		ObjectIDs:     sorted,
	})
	sum := sha256.Sum256(raw)
	prefix := DefaultCachePrefix
	if c != nil {
		prefix = c.prefix
	}
	return prefix + hex.EncodeToString(sum[:])
}

// Do returns the cached response for key or computes it with fn. Concurrent misses on one
// key share a single fn call. Store failures are logged and treated as misses.
func (c *Cache) Do(ctx context.Context, key string, fn func(ctx context.Context) (*Response, error)) (*Response, bool, error) {
	if c == nil || c.store == nil {
		resp, err := fn(ctx)
		return resp, false, err
	}

	if resp, ok := c.lookup(ctx, key); ok {
		c.metrics.DetectionCache("hit")
		return resp, true, nil
	}
	c.metrics.DetectionCache("miss")

	// fn runs detached from the leader's cancellation; followers share its result.
	shared := context.WithoutCancel(ctx)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		resp, err := fn(shared)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			c.log.Warn("Detection cache encode failed", "error", err)
			return resp, nil
		}
		if err := c.store.Set(shared, key, raw, c.ttl); err != nil {
			c.metrics.DetectionCache("error")
			c.log.Warn("Detection cache write failed", "error", err)
		}
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	resp := *(v.(*Response))
	return &resp, false, nil
}

func (c *Cache) lookup(ctx context.Context, key string) (*Response, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.metrics.DetectionCache("error")
		c.log.Warn("Detection cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		c.log.Warn("Detection cache entry unreadable", "error", err)
		return nil, false
	}
	return &resp, true
}
