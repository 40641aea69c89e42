package cache

import "sync"

// Cache maps keys to values and keeps the summed cost of its values at or
// under a budget by evicting the least recently used entries.
type Cache[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*lruNode[K, V]
	list    lruList[K, V]
	budget  uint64
	total   uint64
	cost    func(V) uint64
	onEvict func(K, V)

	hits, misses, evictions uint64
}

// New creates a cache. A zero budget means unlimited. cost may be nil, in
// which case every entry costs 1 and budget is an entry count. onEvict, if
// not nil, is called for every value that leaves the cache other than by
// Get; it runs with the cache lock held and must not call back into the
// cache.
func New[K comparable, V any](budget uint64, cost func(V) uint64, onEvict func(K, V)) *Cache[K, V] {
	if cost == nil {
		cost = func(V) uint64 { return 1 }
	}
	return &Cache[K, V]{
		entries: make(map[K]*lruNode[K, V]),
		budget:  budget,
		cost:    cost,
		onEvict: onEvict,
	}
}

// Get returns the value for key and marks it as recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}
	c.hits++
	c.list.moveToFront(node)
	return node.value, true
}

// Set stores value under key, replacing (and evicting) any previous value.
// A value whose cost alone exceeds the budget is still stored; it becomes
// the only entry.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.entries[key]; ok {
		c.remove(old)
	}
	node := &lruNode[K, V]{key: key, value: value, cost: c.cost(value)}
	c.entries[key] = node
	c.list.pushFront(node)
	c.total += node.cost
	c.shrink()
}

// GetOrCreate returns the cached value for key or stores the result of
// create. create runs under the lock, so concurrent callers never create
// the same key twice. A create error is returned and nothing is stored.
func (c *Cache[K, V]) GetOrCreate(key K, create func() (V, error)) (V, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.entries[key]; ok {
		c.hits++
		c.list.moveToFront(node)
		return node.value, nil
	}
	c.misses++
	value, err := create()
	if err != nil {
		return value, err
	}
	node := &lruNode[K, V]{key: key, value: value, cost: c.cost(value)}
	c.entries[key] = node
	c.list.pushFront(node)
	c.total += node.cost
	c.shrink()
	return value, nil
}

// Delete removes key and reports whether it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.entries[key]
	if ok {
		c.remove(node)
	}
	return ok
}

// Clear evicts every entry.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for node := c.list.oldest(); node != nil; node = c.list.oldest() {
		c.remove(node)
	}
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Len:       len(c.entries),
		Cost:      c.total,
		Budget:    c.budget,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}

// shrink evicts from the tail until the budget holds, keeping at least the
// newest entry. Caller must hold c.mu.
func (c *Cache[K, V]) shrink() {
	if c.budget == 0 {
		return
	}
	for c.total > c.budget && c.list.len > 1 {
		c.remove(c.list.oldest())
	}
}

// remove drops node and reports it to onEvict. Caller must hold c.mu.
func (c *Cache[K, V]) remove(node *lruNode[K, V]) {
	c.list.unlink(node)
	delete(c.entries, node.key)
	c.total -= node.cost
	c.evictions++
	if c.onEvict != nil {
		c.onEvict(node.key, node.value)
	}
}

// Stats contains cache counters.
type Stats struct {
	Len       int
	Cost      uint64
	Budget    uint64
	Hits      uint64
	Misses    uint64
	// Evictions counts every removal: budget, replacement, Delete, Clear.
	Evictions uint64
}

// HitRate returns hits / (hits + misses), or 0 before the first lookup.
func (s Stats) HitRate() float64 {
	if n := s.Hits + s.Misses; n > 0 {
		return float64(s.Hits) / float64(n)
	}
	return 0
}
