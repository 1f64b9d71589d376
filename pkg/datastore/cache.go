package datastore

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/getmockd/idmclient/pkg/metrics"
)

// responseCache holds raw GET bodies keyed by absolute URL.
type responseCache struct {
	lru     *expirable.LRU[string, []byte]
	metrics *metrics.Metrics
}

func newResponseCache(size int, ttl time.Duration, m *metrics.Metrics) *responseCache {
	c := &responseCache{metrics: m}
	c.lru = expirable.NewLRU[string, []byte](size, func(string, []byte) {
		c.metrics.CacheEvict()
	}, ttl)
	return c
}

func (c *responseCache) get(key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	body, ok := c.lru.Get(key)
	if ok {
		c.metrics.CacheHit()
	} else {
		c.metrics.CacheMiss()
	}
	return body, ok
}

func (c *responseCache) add(key string, body []byte) {
	if c != nil {
		c.lru.Add(key, body)
	}
}

// invalidate drops key and every cached page of it.
func (c *responseCache) invalidate(key string) {
	if c == nil {
		return
	}
	for _, k := range c.lru.Keys() {
		if k == key || strings.HasPrefix(k, key+"?") {
			c.lru.Remove(k)
		}
	}
}

func (c *responseCache) len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}
