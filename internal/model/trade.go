package model

import (
	"github.com/shopspring/decimal"

	"okfix/internal/model/enum"
)

// Trade is a single executed trade reported by the exchange. Side is the
// side of the originating order: buy-originated trades carry SideBid.
type Trade struct {
	Pair   CurrencyPair
	Side   enum.Side
	Price  decimal.Decimal
	Amount decimal.Decimal
}
