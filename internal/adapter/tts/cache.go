package tts

import (
	"context"
	"sync"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
)

// CachedSynthesizer wraps a VoiceSynthesizer with an in-memory LRU cache keyed
// by language and text. Alert texts repeat per emergency type and city, so
// most escalations are served from memory.
type CachedSynthesizer struct {
	inner   domain.VoiceSynthesizer
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSynthesizer creates a cache decorator around a synthesizer.
func NewCachedSynthesizer(inner domain.VoiceSynthesizer, maxEntries int, metrics *observability.Metrics) *CachedSynthesizer {
	return &CachedSynthesizer{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSynthesizer) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	key := lang + "|" + text
	if audio, ok := c.cache.get(key); ok {
		c.metrics.TTSCache.WithLabelValues("hit").Inc()
		return audio, nil
	}
	c.metrics.TTSCache.WithLabelValues("miss").Inc()

	audio, err := c.inner.Synthesize(ctx, text, lang)
	if err != nil {
		return nil, err
	}
	// Failures and empty payloads are never cached so the next alert retries.
	if len(audio) > 0 {
		c.cache.put(key, audio)
	}
	return audio, nil
}

// lruCache is a thread-safe LRU cache of audio payloads.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
