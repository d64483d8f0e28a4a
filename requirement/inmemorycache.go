package requirement

import (
	"sync"
	"time"
)

// InMemoryCache is a simple in-memory implementation of Cache.
// Thread-safe for concurrent access
type InMemoryCache struct {
	reqs     []*Requirement
	cachedAt time.Time
	config   CacheConfig
	mu       sync.RWMutex
	isValid  bool
}

// NewInMemoryCache creates a new in-memory requirement cache
func NewInMemoryCache(config CacheConfig) *InMemoryCache {
	return &InMemoryCache{
		config:  config,
		isValid: false,
	}
}

// Get retrieves cached requirements.
// Returns nil if cache is invalid or expired
func (c *InMemoryCache) Get() []*Requirement {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isValid {
		return nil
	}

	if c.config.TTL > 0 {
		if time.Since(c.cachedAt) > c.config.TTL {
			return nil
		}
	}

	// Return copy to prevent external modifications
	reqsCopy := make([]*Requirement, len(c.reqs))
	copy(reqsCopy, c.reqs)
	return reqsCopy
}

// Set stores requirements in cache
func (c *InMemoryCache) Set(reqs []*Requirement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Store copy to prevent external modifications
	c.reqs = make([]*Requirement, len(reqs))
	copy(c.reqs, reqs)
	c.cachedAt = time.Now()
	c.isValid = true
}

// Invalidate clears the cache
func (c *InMemoryCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.isValid = false
	c.reqs = nil
}

// IsValid returns true if cache contains valid data
func (c *InMemoryCache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.isValid {
		return false
	}

	if c.config.TTL > 0 {
		return time.Since(c.cachedAt) <= c.config.TTL
	}

	return true
}
