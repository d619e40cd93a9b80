package cache_impl

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

type CacheI[K comparable, V any] interface {
	Contains(key K) bool
	Add(key K, value V) (evicted bool)
	Len() int
}

// WebhookCache remembers recently delivered webhook ids.
type WebhookCache struct {
	mu    sync.Mutex
	cache CacheI[string, time.Time]
	now   func() time.Time

	log logger.Logger
}

func NewCache(
	cache CacheI[string, time.Time],
	log logger.Logger,
) *WebhookCache {
	return &WebhookCache{
		cache: cache,
		now:   time.Now,
		log:   log,
	}
}

// NewLRU builds a WebhookCache on an expiring LRU of the given size and TTL.
func NewLRU(size int, ttl time.Duration, log logger.Logger) *WebhookCache {
	return NewCache(expirable.NewLRU[string, time.Time](size, nil, ttl), log)
}

// Seen reports whether id was already marked. Empty ids are never seen.
func (c *WebhookCache) Seen(id string) bool {
	if id == "" {
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cache.Contains(id)
}

// Mark records id so later deliveries of it are treated as duplicates.
func (c *WebhookCache) Mark(id string) {
	const op = "cache_impl.WebhookCache.Mark"

	if id == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if evicted := c.cache.Add(id, c.now()); evicted {
		c.log.Debug(op, logger.String("reason", "cache size was exceeded"), logger.Int("size", c.cache.Len()))
	}
}
