package book

import (
	"sync/atomic"

	"okfix/internal/model"
)

// Cache holds the latest published order book. The message handler is the
// single writer; any goroutine may read. Readers always observe a fully
// built snapshot because the pointer is swapped atomically and books are
// immutable.
type Cache struct {
	v atomic.Pointer[model.OrderBook]
}

// Store replaces the cached book with a new snapshot.
func (c *Cache) Store(book *model.OrderBook) {
	c.v.Store(book)
}

// Load returns the latest cached book, or nil before the first snapshot.
func (c *Cache) Load() *model.OrderBook {
	return c.v.Load()
}
