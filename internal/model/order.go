package model

import (
	"time"

	"github.com/shopspring/decimal"

	"okfix/internal/model/enum"
)

// LimitOrder is a single resting price level of an order book.
type LimitOrder struct {
	Side      enum.Side
	Pair      CurrencyPair
	Price     decimal.Decimal
	Amount    decimal.Decimal
	Timestamp time.Time
}

// WithSide returns a copy of the order relabeled to the given side. Price,
// amount and timestamp are unchanged.
func (o LimitOrder) WithSide(side enum.Side) LimitOrder {
	o.Side = side
	return o
}

// Before reports whether o sorts strictly before other on its own side:
// descending price for bids, ascending price for asks. Equal prices compare
// false so a stable sort keeps their input order.
func (o LimitOrder) Before(other LimitOrder) bool {
	if o.Side == enum.SideBid {
		return o.Price.GreaterThan(other.Price)
	}

	return o.Price.LessThan(other.Price)
}
