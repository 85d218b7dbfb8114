package model

import "time"

// OrderBook is an immutable snapshot of both sides of the book. Asks ascend
// by price, bids descend. A new snapshot always replaces a previous one;
// books are never mutated in place.
type OrderBook struct {
	Timestamp time.Time
	Asks      []LimitOrder
	Bids      []LimitOrder
}

// NewOrderBook copies both sides into a fresh snapshot.
func NewOrderBook(ts time.Time, asks, bids []LimitOrder) *OrderBook {
	book := &OrderBook{
		Timestamp: ts,
		Asks:      make([]LimitOrder, len(asks)),
		Bids:      make([]LimitOrder, len(bids)),
	}
	copy(book.Asks, asks)
	copy(book.Bids, bids)

	return book
}
