// Package cache provides a cost-bounded LRU cache.
//
// Entries carry a cost (typically a byte size). When the total cost goes
// over the budget, least recently used entries are evicted and handed to
// an optional callback so that owners can release what the value holds:
//
//	clouds := cache.New[string, *gsplat.Cloud](1<<30,
//	    func(c *gsplat.Cloud) uint64 { return c.BufferBytes() },
//	    func(_ string, c *gsplat.Cloud) { c.ReleaseBuffer() })
//
// Cache is safe for concurrent use. It must not be copied after creation.
package cache
