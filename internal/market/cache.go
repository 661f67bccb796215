// Package market caches quotes, runs the provider fallback chain and keeps the live asset board.
package market

import (
	"sync"
	"time"

	"MarketWatch/internal/model"
)

// Cache holds the last quote per symbol with a fetch timestamp, plus a bounded
// price history per symbol that seeds synthetic moves. Writes are last-writer-wins.
type Cache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	historySize int
	entries     map[string]entry
	history     map[string]*ring
	now         func() time.Time
}

type entry struct {
	quote     model.Quote
	fetchedAt time.Time
}

// NewCache creates a cache whose entries stay fresh for ttl and whose history keeps historySize prices.
func NewCache(ttl time.Duration, historySize int) *Cache {
	return &Cache{
		ttl:         ttl,
		historySize: historySize,
		entries:     make(map[string]entry),
		history:     make(map[string]*ring),
		now:         time.Now,
	}
}

// Get returns the cached quote while now - fetchedAt < ttl.
func (c *Cache) Get(symbol string) (*model.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[symbol]
	if !ok || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	q := e.quote
	return &q, true
}

// Latest returns the last stored quote regardless of age.
func (c *Cache) Latest(symbol string) (*model.Quote, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[symbol]
	if !ok {
		return nil, time.Time{}, false
	}
	q := e.quote
	return &q, e.fetchedAt, true
}

// Put stores q for symbol stamped with the current time and appends its price to the history.
func (c *Cache) Put(symbol string, q *model.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[symbol] = entry{quote: *q, fetchedAt: c.now()}
	h, ok := c.history[symbol]
	if !ok {
		h = newRing(c.historySize)
		c.history[symbol] = h
	}
	h.push(q.Price)
}

// History returns the recorded prices for symbol, oldest first.
func (c *Cache) History(symbol string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if h, ok := c.history[symbol]; ok {
		return h.values()
	}
	return nil
}

// Invalidate marks the given symbols stale without dropping their history.
func (c *Cache) Invalidate(symbols ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range symbols {
		delete(c.entries, s)
	}
}

// ring is a fixed-capacity FIFO that evicts the oldest value when full.
type ring struct {
	buf   []float64
	start int
	n     int
}

func newRing(capacity int) *ring {
	if capacity < 1 {
		capacity = 1
	}
	return &ring{buf: make([]float64, capacity)}
}

func (r *ring) push(v float64) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) values() []float64 {
	out := make([]float64, r.n)
	for i := 0; i < r.n; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}
