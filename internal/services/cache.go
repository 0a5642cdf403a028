package services

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"time"

	"spcpulse/internal/spc"
)

// CacheEntry represents a cached analysis result
type CacheEntry struct {
	Result    *AnalysisResult
	CachedAt  time.Time
	ExpiresAt time.Time
	HitCount  int
}

// CacheStats is a point-in-time view of cache usage.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxSize    int     `json:"max_size"`
	HitCount   int64   `json:"hit_count"`
	MissCount  int64   `json:"miss_count"`
	HitRatio   float64 `json:"hit_ratio"`
	TTLSeconds float64 `json:"ttl_seconds"`
}

// ResultCache keeps recent analyses keyed by input fingerprint and indexed by
// analysis ID. Entries expire after ttl; the oldest entry is evicted when the
// cache is full.
type ResultCache struct {
	entries   map[string]CacheEntry
	byID      map[string]string
	mutex     sync.RWMutex
	ttl       time.Duration
	maxSize   int
	hitCount  int64
	missCount int64
	stopChan  chan struct{}
	stopOnce  sync.Once
	now       func() time.Time
}

// NewResultCache creates a cache and starts its cleanup goroutine. A
// non-positive cleanupInterval disables background cleanup; expired entries
// are still ignored on read.
func NewResultCache(ttl time.Duration, maxSize int, cleanupInterval time.Duration) *ResultCache {
	cache := &ResultCache{
		entries:  make(map[string]CacheEntry),
		byID:     make(map[string]string),
		ttl:      ttl,
		maxSize:  maxSize,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}

	if cleanupInterval > 0 {
		go cache.cleanup(cleanupInterval)
	}

	return cache
}

// Get retrieves a result by fingerprint. An expired entry is dropped on read.
func (c *ResultCache) Get(key string) (*AnalysisResult, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.missCount++
		return nil, false
	}
	if c.now().After(entry.ExpiresAt) {
		c.remove(key)
		c.missCount++
		return nil, false
	}

	entry.HitCount++
	c.entries[key] = entry
	c.hitCount++

	result := *entry.Result
	return &result, true
}

// GetByID retrieves a result by analysis ID. ID lookups do not count toward
// hit statistics.
func (c *ResultCache) GetByID(id string) (*AnalysisResult, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	key, ok := c.byID[id]
	if !ok {
		return nil, false
	}
	entry, exists := c.entries[key]
	if !exists || c.now().After(entry.ExpiresAt) {
		return nil, false
	}

	result := *entry.Result
	return &result, true
}

// Set stores a result under key
func (c *ResultCache) Set(key string, result *AnalysisResult) {
	if result == nil {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.maxSize <= 0 {
		return
	}

	if old, exists := c.entries[key]; exists {
		delete(c.byID, old.Result.ID)
	} else if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	stored := *result
	c.entries[key] = CacheEntry{
		Result:    &stored,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	}
	c.byID[result.ID] = key
}

// Len returns the number of stored entries, expired ones included.
func (c *ResultCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.entries)
}

// Stats returns cache statistics
func (c *ResultCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	totalRequests := c.hitCount + c.missCount
	hitRatio := float64(0)
	if totalRequests > 0 {
		hitRatio = float64(c.hitCount) / float64(totalRequests)
	}

	return CacheStats{
		Entries:    len(c.entries),
		MaxSize:    c.maxSize,
		HitCount:   c.hitCount,
		MissCount:  c.missCount,
		HitRatio:   hitRatio,
		TTLSeconds: c.ttl.Seconds(),
	}
}

// Stop gracefully stops the cache cleanup goroutine. It is safe to call more
// than once.
func (c *ResultCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *ResultCache) remove(key string) {
	if entry, ok := c.entries[key]; ok {
		delete(c.byID, entry.Result.ID)
		delete(c.entries, key)
	}
}

func (c *ResultCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CachedAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CachedAt
		}
	}

	if oldestKey != "" {
		c.remove(oldestKey)
	}
}

func (c *ResultCache) purgeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			c.remove(key)
		}
	}
}

func (c *ResultCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stopChan:
			return
		}
	}
}

// Fingerprint derives the cache key for an analysis request from the exact
// bit patterns of the matrix, the chart type and the optional spec limits.
func Fingerprint(ds spc.Dataset, chart spc.ChartType, spec *spc.SpecLimits) string {
	h := sha256.New()
	var buf [8]byte

	writeUint := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	writeUint(uint64(ds.NumSubgroups()))
	writeUint(uint64(ds.SubgroupSize()))
	for _, v := range ds.Flatten() {
		writeUint(math.Float64bits(v))
	}
	writeUint(uint64(chart))
	if spec != nil {
		writeUint(1)
		writeUint(math.Float64bits(spec.USL))
		writeUint(math.Float64bits(spec.LSL))
	} else {
		writeUint(0)
	}

	return hex.EncodeToString(h.Sum(nil))
}
