package requirement

import "time"

// Cache provides an abstraction for caching the active requirement list,
// so repeated analysis runs do not re-query the backing store
type Cache interface {
	// Get retrieves cached requirements, returns nil if cache miss or expired
	Get() []*Requirement

	// Set stores requirements in cache
	Set(reqs []*Requirement)

	// Invalidate clears the cache, forcing a refresh on next Get
	Invalidate()

	// IsValid returns true if cache has valid data
	IsValid() bool
}

// CacheConfig holds configuration for cache behavior
type CacheConfig struct {
	// TTL is the time-to-live for cached entries
	// Set to 0 for no expiration (manual invalidation only)
	TTL time.Duration
}

// DefaultCacheConfig returns sensible defaults for requirement caching
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL: 0, // No TTL - only invalidate on mutations
	}
}
