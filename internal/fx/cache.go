package fx

import "sync"

// Cache memoizes resolved FX rates for one search request. It must not be
// shared across requests: each search gets a fresh cache so that a price
// refresh between requests can never leak stale rates into a new search.
type Cache struct {
	mu    sync.Mutex
	rates map[[2]string]float64
}

// NewCache returns an empty rate cache.
func NewCache() *Cache {
	return &Cache{rates: make(map[[2]string]float64)}
}

// Rate returns the memoized rate for the coin pair, if any.
func (c *Cache) Rate(coin, baseCoin string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rate, ok := c.rates[[2]string{coin, baseCoin}]
	return rate, ok
}

// Put memoizes a resolved rate.
func (c *Cache) Put(coin, baseCoin string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[[2]string{coin, baseCoin}] = rate
}

// Reset drops every memoized rate. Long-lived holders must call it whenever
// the underlying price table changes.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates = make(map[[2]string]float64)
}
